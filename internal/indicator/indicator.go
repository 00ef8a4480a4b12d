// Package indicator handles user-facing notices and mute/unmute sound cues.
package indicator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

// Level is a notice severity.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelError:
		return "error"
	default:
		return "warning"
	}
}

// Notice is one message for the user.
type Notice struct {
	Level   Level
	Summary string
	Body    string
}

// Notifier delivers notices to the desktop, the log, and stderr.
type Notifier struct {
	bus     dbus.BusObject
	stderr  io.Writer
	logger  *slog.Logger
	appName string
	timeout time.Duration

	mu     sync.Mutex
	lastID uint32
}

// NewNotifier builds a notifier. bus may be nil when no session bus is available.
func NewNotifier(bus dbus.BusObject, stderr io.Writer, logger *slog.Logger, appName string) *Notifier {
	if stderr == nil {
		stderr = io.Discard
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if strings.TrimSpace(appName) == "" {
		appName = "mictoggle"
	}
	return &Notifier{
		bus:     bus,
		stderr:  stderr,
		logger:  logger,
		appName: appName,
		timeout: 400 * time.Millisecond,
	}
}

// Notice logs n, mirrors it to stderr, and shows it on the desktop when possible.
// Each notice replaces the previous one on screen.
func (n *Notifier) Notice(ctx context.Context, notice Notice) {
	n.logger.Log(ctx, slogLevel(notice.Level), "notice", "summary", notice.Summary, "body", notice.Body)

	line := notice.Summary
	if notice.Body != "" {
		line += ": " + strings.ReplaceAll(notice.Body, "\n", "; ")
	}
	_, _ = fmt.Fprintf(n.stderr, "%s: %s\n", notice.Level, line)

	if n.bus == nil {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	id, err := desktopNotify(runCtx, n.bus, n.appName, n.lastID, notice, expireMS(notice.Level))
	if err != nil {
		n.logger.Debug("desktop notice failed", "error", err.Error())
		return
	}
	n.lastID = id
}

func expireMS(level Level) int32 {
	if level == LevelError {
		return 0
	}
	return 5000
}

func slogLevel(level Level) slog.Level {
	switch level {
	case LevelInfo:
		return slog.LevelInfo
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
