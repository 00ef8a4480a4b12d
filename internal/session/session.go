// Package session coordinates the mictoggle lifecycle: startup, the event loop, reloads, and shutdown.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/rbright/mictoggle/internal/config"
	"github.com/rbright/mictoggle/internal/device"
	"github.com/rbright/mictoggle/internal/hotkey"
	"github.com/rbright/mictoggle/internal/indicator"
	"github.com/rbright/mictoggle/internal/ipc"
	"github.com/rbright/mictoggle/internal/toggle"
	"github.com/rbright/mictoggle/internal/tray"
)

// Tray is the session-facing subset of the status icon.
type Tray interface {
	Events() <-chan tray.Action
	Update(toggle.View)
	Close() error
}

// TrayFactory creates the status icon showing view.
type TrayFactory func(view toggle.View) (Tray, error)

// Hotkeys is the session-facing subset of the hotkey manager.
type Hotkeys interface {
	Register(b hotkey.Binding, useFilter bool, onPress func()) (hotkey.Registration, error)
	Fired() <-chan struct{}
	Release()
}

// Notifier surfaces one user-facing notice.
type Notifier interface {
	Notice(ctx context.Context, notice indicator.Notice)
}

// ConfigLoader loads the current configuration from disk.
type ConfigLoader func() (config.Loaded, error)

// Deps wires the controller's collaborators.
type Deps struct {
	Load      ConfigLoader
	Directory device.Directory
	NewTray   TrayFactory
	Hotkeys   Hotkeys
	Notifier  Notifier
	Sound     toggle.Sound
	Opener    Opener
	Messages  indicator.Messages
	Logger    *slog.Logger
}

type noopNotifier struct{}

func (noopNotifier) Notice(context.Context, indicator.Notice) {}

type noopHotkeys struct{}

func (noopHotkeys) Register(hotkey.Binding, bool, func()) (hotkey.Registration, error) {
	return hotkey.Registration{Mode: hotkey.ModeNone}, nil
}

func (noopHotkeys) Fired() <-chan struct{} { return nil }
func (noopHotkeys) Release()               {}

// Controller owns the bound device, the toggle machine, and the UI surfaces.
//
// Start, Run, Reload, and Shutdown are called from one goroutine. Toggles
// from the keyboard filter arrive concurrently and are serialized by the
// toggle machine.
type Controller struct {
	load     ConfigLoader
	dir      device.Directory
	newTray  TrayFactory
	hotkeys  Hotkeys
	notifier Notifier
	opener   Opener
	messages indicator.Messages
	logger   *slog.Logger

	binder  *device.Binder
	machine *toggle.Machine

	cfg  config.Config
	tray Tray

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewController constructs a controller with safe default fallbacks.
func NewController(deps Deps) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	hotkeys := deps.Hotkeys
	if hotkeys == nil {
		hotkeys = noopHotkeys{}
	}
	opener := deps.Opener
	if opener == nil {
		opener = ExecOpener{}
	}
	messages := deps.Messages
	if messages.AppName == "" {
		messages = indicator.MessagesFromEnv()
	}

	return &Controller{
		load:     deps.Load,
		dir:      deps.Directory,
		newTray:  deps.NewTray,
		hotkeys:  hotkeys,
		notifier: notifier,
		opener:   opener,
		messages: messages,
		logger:   logger,
		binder:   device.NewBinder(deps.Directory, logger),
		machine:  toggle.New(logger, deps.Sound, nil, toggle.Policy{}),
	}
}

// Machine exposes the toggle machine.
func (c *Controller) Machine() *toggle.Machine {
	return c.machine
}

// Config returns the configuration currently in effect.
func (c *Controller) Config() config.Config {
	return c.cfg
}

// Status reports the binding state for singleton probes.
func (c *Controller) Status() ipc.Status {
	view := c.machine.View()
	return ipc.Status{
		PID:    os.Getpid(),
		State:  string(c.machine.State()),
		Device: view.DeviceName,
	}
}

// Start loads config, binds the device, publishes the tray, and registers the hotkey.
//
// A bind or tray failure aborts startup after one notice. A hotkey failure
// only warns.
func (c *Controller) Start(ctx context.Context) error {
	loaded, err := c.load()
	if err != nil {
		c.notify(ctx, indicator.LevelError, c.messages.AppName, err.Error())
		return fmt.Errorf("load config: %w", err)
	}
	c.applyConfig(loaded)
	if loaded.ParseErr != nil {
		c.notify(ctx, indicator.LevelWarning, c.messages.ConfigDefaulted, loaded.ParseErr.Error())
	}

	bound, err := c.binder.Bind(ctx, device.PreferenceFromConfig(c.cfg.Device))
	if err != nil {
		c.machine.Attach(nil)
		c.reportBindFailure(ctx, err)
		return fmt.Errorf("bind capture device: %w", err)
	}
	c.machine.Attach(bound)

	if c.newTray == nil {
		return errors.New("create tray: no tray factory")
	}
	t, err := c.newTray(c.machine.View())
	if err != nil {
		c.notify(ctx, indicator.LevelError, c.messages.AppName, fmt.Sprintf("create tray: %v", err))
		return fmt.Errorf("create tray: %w", err)
	}
	c.tray = t
	c.machine.SetDisplay(t)
	c.machine.Refresh()

	if err := c.registerHotkey(ctx); err != nil {
		c.notify(ctx, indicator.LevelWarning, c.messages.HotkeyFailed, err.Error())
	}

	c.logger.Info("session started", "device", c.machine.View().DeviceName, "config", c.cfg.Files.Config)
	return nil
}

// Run serves tray actions, registered hotkeys, and config-watch events until
// exit is requested or ctx is done. A nil watch disables watching.
func (c *Controller) Run(ctx context.Context, watch <-chan struct{}) error {
	if c.tray == nil {
		return errors.New("session not started")
	}
	events := c.tray.Events()
	fired := c.hotkeys.Fired()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("session stopping", "reason", context.Cause(ctx).Error())
			return nil
		case action, ok := <-events:
			if !ok {
				return nil
			}
			if c.handle(ctx, action) {
				c.logger.Info("session stopping", "reason", "exit requested")
				return nil
			}
		case <-fired:
			c.toggle(ctx)
		case _, ok := <-watch:
			if !ok {
				watch = nil
				continue
			}
			c.logger.Info("config changed on disk; reloading", "path", c.cfg.Files.Config)
			c.reloadAndNotify(ctx)
		}
	}
}

// handle runs one tray action and reports whether the loop should exit.
func (c *Controller) handle(ctx context.Context, action tray.Action) bool {
	switch action {
	case tray.ActionToggle:
		c.toggle(ctx)
	case tray.ActionListDevices:
		c.ListDevices(ctx)
	case tray.ActionOpenConfig:
		c.OpenConfig(ctx)
	case tray.ActionReload:
		c.reloadAndNotify(ctx)
	case tray.ActionExit:
		return true
	default:
		c.logger.Warn("unknown tray action", "action", string(action))
	}
	return false
}

func (c *Controller) toggle(ctx context.Context) {
	outcome, err := c.machine.Toggle(ctx)
	if err != nil {
		return
	}
	c.logger.Debug("toggle handled", "outcome", string(outcome))
}

// Shutdown restores the exit mute policy and releases everything in order:
// tray, hotkey, bound device, directory. Safe to call repeatedly.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.shutdownOnce.Do(func() {
		var errs []error
		if err := c.machine.RestoreOnExit(ctx); err != nil {
			c.logger.Warn("restore mute on exit failed", "error", err.Error())
			errs = append(errs, err)
		}

		if c.tray != nil {
			c.machine.SetDisplay(nil)
			if err := c.tray.Close(); err != nil {
				errs = append(errs, err)
			}
		}

		c.hotkeys.Release()

		c.machine.Detach()
		c.binder.Release()

		if c.dir != nil {
			if err := c.dir.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close device directory: %w", err))
			}
		}

		c.shutdownErr = errors.Join(errs...)
		c.logger.Info("session stopped")
	})
	return c.shutdownErr
}

func (c *Controller) applyConfig(loaded config.Loaded) {
	for _, w := range loaded.Warnings {
		if w.Line > 0 {
			c.logger.Warn("config warning", "path", loaded.Path, "line", w.Line, "message", w.Message)
			continue
		}
		c.logger.Warn("config warning", "path", loaded.Path, "message", w.Message)
	}
	if loaded.ParseErr != nil {
		c.logger.Error("config unusable; using defaults", "path", loaded.Path, "error", loaded.ParseErr.Error())
	}

	c.cfg = loaded.Config
	c.machine.Configure(toggle.PolicyFromConfig(c.cfg))
}

// registerHotkey activates the configured chord. A keyboard filter that fell
// back to registration raises one warning notice; hard failures are returned.
func (c *Controller) registerHotkey(ctx context.Context) error {
	binding := hotkey.BindingFromConfig(c.cfg.Hotkey)
	reg, err := c.hotkeys.Register(binding, c.cfg.Hotkey.UseKeyboardHook, c.onFilterPress)
	if err != nil {
		c.logger.Warn("hotkey unavailable", "chord", binding.String(), "error", err.Error())
		return err
	}
	if reg.FilterErr != nil {
		c.notify(ctx, indicator.LevelWarning, c.messages.HotkeyFallback, reg.FilterErr.Error())
	}
	c.logger.Debug("hotkey registered", "chord", binding.String(), "mode", string(reg.Mode))
	return nil
}

// onFilterPress runs on keyboard filter goroutines.
func (c *Controller) onFilterPress() {
	c.toggle(context.Background())
}

// reportBindFailure regenerates the device list and raises one error notice.
func (c *Controller) reportBindFailure(ctx context.Context, err error) {
	c.logger.Error("bind capture device failed", "error", err.Error())

	body := err.Error()
	if path, writeErr := c.writeDeviceList(ctx); writeErr != nil {
		c.logger.Warn("write device list failed", "error", writeErr.Error())
		body += "\n" + c.messages.DeviceListFailed
	} else {
		body += "\n" + fmt.Sprintf(c.messages.DeviceListHint, path)
	}
	c.notify(ctx, indicator.LevelError, c.messages.BindFailed, body)
}

func (c *Controller) notify(ctx context.Context, level indicator.Level, summary string, body string) {
	c.notifier.Notice(ctx, indicator.Notice{Level: level, Summary: summary, Body: body})
}
