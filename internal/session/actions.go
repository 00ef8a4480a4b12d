package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/rbright/mictoggle/internal/config"
	"github.com/rbright/mictoggle/internal/device"
	"github.com/rbright/mictoggle/internal/indicator"
)

// Opener shows a file to the user.
type Opener interface {
	Open(ctx context.Context, path string) error
}

// ExecOpener launches the desktop's default handler for a file.
type ExecOpener struct {
	Command string
}

// Open starts the handler without waiting for it to exit.
func (o ExecOpener) Open(_ context.Context, path string) error {
	command := o.Command
	if command == "" {
		command = "xdg-open"
	}
	cmd := exec.Command(command, path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", command, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// ListDevices regenerates the device list and opens it.
func (c *Controller) ListDevices(ctx context.Context) {
	path, err := c.writeDeviceList(ctx)
	if err != nil {
		c.logger.Warn("write device list failed", "error", err.Error())
		c.notify(ctx, indicator.LevelError, c.messages.DeviceListFailed, err.Error())
		return
	}
	if err := c.opener.Open(ctx, path); err != nil {
		c.logger.Warn("open device list failed", "path", path, "error", err.Error())
		c.notify(ctx, indicator.LevelInfo, c.messages.AppName, fmt.Sprintf(c.messages.DeviceListHint, path))
	}
}

// OpenConfig opens the config file, recreating it from the current config if it was removed.
func (c *Controller) OpenConfig(ctx context.Context) {
	path := c.cfg.Files.Config
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if saveErr := config.Save(path, c.cfg); saveErr != nil {
			c.logger.Warn("recreate config failed", "path", path, "error", saveErr.Error())
		}
	}
	if err := c.opener.Open(ctx, path); err != nil {
		c.logger.Warn("open config failed", "path", path, "error", err.Error())
		c.notify(ctx, indicator.LevelWarning, c.messages.OpenConfig, err.Error())
	}
}

func (c *Controller) writeDeviceList(ctx context.Context) (string, error) {
	path := c.cfg.Files.DeviceList
	if path == "" {
		path = config.DeviceListPath(c.cfg.Files.Config)
	}
	if err := device.WriteReport(path, c.cfg.Files.Config, c.dir.ListCaptureDevices(ctx)); err != nil {
		return "", err
	}
	return path, nil
}
