// Package app dispatches mictoggle commands and maps outcomes to exit codes.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/rbright/mictoggle/internal/audio"
	"github.com/rbright/mictoggle/internal/cli"
	"github.com/rbright/mictoggle/internal/config"
	"github.com/rbright/mictoggle/internal/doctor"
	"github.com/rbright/mictoggle/internal/hotkey"
	"github.com/rbright/mictoggle/internal/indicator"
	"github.com/rbright/mictoggle/internal/ipc"
	"github.com/rbright/mictoggle/internal/logging"
	"github.com/rbright/mictoggle/internal/session"
	"github.com/rbright/mictoggle/internal/toggle"
	"github.com/rbright/mictoggle/internal/tray"
	"github.com/rbright/mictoggle/internal/version"
)

const (
	watchDebounce   = 250 * time.Millisecond
	shutdownTimeout = 2 * time.Second
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("mictoggle"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("mictoggle"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", parsed.ConfigPath,
		"log", logRuntime.Path,
		"version", version.Version,
	)

	switch parsed.Command {
	case cli.CommandRun:
		return r.commandRun(ctx, parsed, logger)
	case cli.CommandDoctor:
		return r.commandDoctor(ctx, parsed, logger)
	case cli.CommandDevices:
		return r.commandDevices(ctx, parsed, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// commandRun owns the singleton socket and runs the tray session until exit.
func (r Runner) commandRun(ctx context.Context, parsed cli.Parsed, logger *slog.Logger) int {
	msgs := indicator.MessagesFromEnv()

	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	var current atomic.Pointer[session.Controller]
	lock, err := ipc.Hold(ctx, socketPath, func() ipc.Status {
		if ctrl := current.Load(); ctrl != nil {
			return ctrl.Status()
		}
		return ipc.Status{PID: os.Getpid(), State: "starting"}
	})
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			r.noticeAlreadyRunning(ctx, msgs, logger)
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("release singleton socket", "error", err.Error())
		}
	}()

	bus, err := dbus.ConnectSessionBus()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: connect session bus: %v\n", err)
		logger.Error("connect session bus failed", "error", err.Error())
		return 1
	}
	defer bus.Close()

	notifier := indicator.NewNotifier(indicator.NotificationsObject(bus), r.Stderr, logger, msgs.AppName)

	dir, err := audio.NewDirectory(logger)
	if err != nil {
		notifier.Notice(ctx, indicator.Notice{Level: indicator.LevelError, Summary: msgs.AppName, Body: err.Error()})
		return 1
	}

	player := indicator.NewPlayer(logger)
	defer player.Stop()

	ctrl := session.NewController(session.Deps{
		Load:      func() (config.Loaded, error) { return config.Load(parsed.ConfigPath) },
		Directory: dir,
		NewTray: func(view toggle.View) (session.Tray, error) {
			t, err := tray.New(view, msgs, logger)
			if err != nil {
				return nil, err
			}
			return t, nil
		},
		Hotkeys:  hotkey.NewManager(logger),
		Notifier: notifier,
		Sound:    player,
		Messages: msgs,
		Logger:   logger,
	})
	current.Store(ctrl)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := ctrl.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(r.Stderr, "warning: %v\n", err)
		}
	}()

	if err := ctrl.Start(ctx); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	var watch <-chan struct{}
	if parsed.Watch {
		watch, err = config.Watch(ctx, ctrl.Config().Files.Config, watchDebounce, logger)
		if err != nil {
			fmt.Fprintf(r.Stderr, "warning: config watch disabled: %v\n", err)
			logger.Warn("config watch disabled", "error", err.Error())
			watch = nil
		}
	}

	if err := ctrl.Run(ctx, watch); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// noticeAlreadyRunning tells the user about the other instance, over the bus when possible.
func (r Runner) noticeAlreadyRunning(ctx context.Context, msgs indicator.Messages, logger *slog.Logger) {
	var obj dbus.BusObject
	if bus, err := dbus.ConnectSessionBus(); err == nil {
		defer bus.Close()
		obj = indicator.NotificationsObject(bus)
	}
	notifier := indicator.NewNotifier(obj, r.Stderr, logger, msgs.AppName)
	notifier.Notice(ctx, indicator.Notice{Level: indicator.LevelWarning, Summary: msgs.AlreadyRunning})
}

func (r Runner) loadConfig(parsed cli.Parsed, logger *slog.Logger) (config.Loaded, bool) {
	loaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return config.Loaded{}, false
	}
	for _, w := range loaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}
	return loaded, true
}

func (r Runner) commandDoctor(ctx context.Context, parsed cli.Parsed, logger *slog.Logger) int {
	loaded, ok := r.loadConfig(parsed, logger)
	if !ok {
		return 1
	}

	probes := doctor.Probes{Keyboards: hotkey.Keyboards}

	dir, err := audio.NewDirectory(logger)
	if err != nil {
		probes.DirectoryErr = err
	} else {
		defer dir.Close()
		probes.Directory = dir
	}

	if bus, err := dbus.ConnectSessionBus(); err == nil {
		defer bus.Close()
		probes.NameHasOwner = doctor.NameHasOwner(bus)
	} else {
		logger.Debug("doctor session bus unavailable", "error", err.Error())
	}

	if socketPath, err := ipc.RuntimeSocketPath(); err == nil {
		probes.InstanceStatus = doctor.InstanceStatus(socketPath)
	}

	report := doctor.Run(ctx, loaded, probes)
	fmt.Fprintln(r.Stdout, report.String())
	if report.OK() {
		return 0
	}
	return 1
}
