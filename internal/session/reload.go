package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/rbright/mictoggle/internal/device"
	"github.com/rbright/mictoggle/internal/indicator"
)

// ReloadReport records which reload steps failed.
type ReloadReport struct {
	ConfigErr      error
	DeviceErr      error
	HotkeyErr      error
	DeviceListPath string
}

// OK reports whether every step succeeded.
func (r ReloadReport) OK() bool {
	return r.ConfigErr == nil && r.DeviceErr == nil && r.HotkeyErr == nil
}

// Message joins the failed steps into one body, or returns "" when OK.
func (r ReloadReport) Message() string {
	var lines []string
	if r.ConfigErr != nil {
		lines = append(lines, fmt.Sprintf("config: %v", r.ConfigErr))
	}
	if r.DeviceErr != nil {
		line := fmt.Sprintf("device: %v", r.DeviceErr)
		if r.DeviceListPath != "" {
			line += fmt.Sprintf(" (device list: %s)", r.DeviceListPath)
		}
		lines = append(lines, line)
	}
	if r.HotkeyErr != nil {
		lines = append(lines, fmt.Sprintf("hotkey: %v", r.HotkeyErr))
	}
	return strings.Join(lines, "\n")
}

// Notice builds the single notice shown after a reload.
func (r ReloadReport) Notice(msgs indicator.Messages) indicator.Notice {
	if r.OK() {
		return indicator.Notice{Level: indicator.LevelInfo, Summary: msgs.ReloadDone}
	}
	level := indicator.LevelWarning
	if r.DeviceErr != nil {
		level = indicator.LevelError
	}
	return indicator.Notice{Level: level, Summary: msgs.ReloadProblems, Body: r.Message()}
}

// Reload re-reads config, rebinds the device, and re-registers the hotkey.
//
// Every step runs regardless of earlier failures. Afterwards the machine is
// either bound to the new device or unbound.
func (c *Controller) Reload(ctx context.Context) ReloadReport {
	var report ReloadReport

	c.hotkeys.Release()

	loaded, err := c.load()
	switch {
	case err != nil:
		report.ConfigErr = err
		c.logger.Error("reload config failed; keeping previous config", "error", err.Error())
	default:
		c.applyConfig(loaded)
		report.ConfigErr = loaded.ParseErr
	}

	c.machine.Detach()
	bound, err := c.binder.Bind(ctx, device.PreferenceFromConfig(c.cfg.Device))
	if err != nil {
		report.DeviceErr = err
		c.machine.Attach(nil)
		c.logger.Error("rebind capture device failed", "error", err.Error())
		path, writeErr := c.writeDeviceList(ctx)
		if writeErr != nil {
			c.logger.Warn("write device list failed", "error", writeErr.Error())
		} else {
			report.DeviceListPath = path
		}
	} else {
		c.machine.Attach(bound)
	}
	c.machine.Refresh()

	report.HotkeyErr = c.registerHotkey(ctx)

	c.logger.Info("reload finished", "ok", report.OK(), "state", string(c.machine.State()))
	return report
}

func (c *Controller) reloadAndNotify(ctx context.Context) {
	report := c.Reload(ctx)
	c.notifier.Notice(ctx, report.Notice(c.messages))
}
