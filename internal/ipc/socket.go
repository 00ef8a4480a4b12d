package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// ErrAlreadyRunning reports that another mictoggle owns the socket.
var ErrAlreadyRunning = errors.New("mictoggle already running")

const socketName = "mictoggle.sock"

// RuntimeSocketPath places the singleton socket under $XDG_RUNTIME_DIR.
func RuntimeSocketPath() (string, error) {
	runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if runtimeDir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(runtimeDir, socketName), nil
}

// Acquire listens on path, recovering a stale socket left by a dead owner.
//
// A responsive owner yields ErrAlreadyRunning. An inconclusive probe never
// unlinks the socket.
func Acquire(ctx context.Context, path string, probeTimeout time.Duration, retries int) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure runtime socket dir: %w", err)
	}

	for attempt := 0; attempt <= retries; attempt++ {
		listener, err := net.Listen("unix", path)
		if err == nil {
			_ = os.Chmod(path, 0o600)
			return listener, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("listen unix %s: %w", path, err)
		}

		alive, probeErr := Probe(ctx, path, probeTimeout)
		if alive {
			return nil, ErrAlreadyRunning
		}
		if probeErr != nil {
			return nil, fmt.Errorf("probe existing socket %s: %w", path, probeErr)
		}

		if removeErr := os.Remove(path); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale socket %s: %w", path, removeErr)
		}

		if attempt < retries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(25*(attempt+1)) * time.Millisecond):
			}
		}
	}

	return nil, fmt.Errorf("failed to acquire socket %s after %d retries", path, retries)
}

// Lock is a held singleton socket serving status probes in the background.
type Lock struct {
	path   string
	cancel context.CancelFunc
	done   chan error
}

// Hold acquires path and serves status until Release.
func Hold(ctx context.Context, path string, status StatusFunc) (*Lock, error) {
	listener, err := Acquire(ctx, path, 200*time.Millisecond, 2)
	if err != nil {
		return nil, err
	}

	serveCtx, cancel := context.WithCancel(context.Background())
	lock := &Lock{path: path, cancel: cancel, done: make(chan error, 1)}
	go func() {
		lock.done <- Serve(serveCtx, listener, status)
	}()
	return lock, nil
}

// Release stops serving and removes the socket file.
func (l *Lock) Release() error {
	if l == nil || l.cancel == nil {
		return nil
	}
	l.cancel()
	l.cancel = nil
	err := <-l.done
	if removeErr := os.Remove(l.path); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
		err = errors.Join(err, removeErr)
	}
	return err
}
