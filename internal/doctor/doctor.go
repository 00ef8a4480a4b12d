// Package doctor runs runtime readiness diagnostics for config, audio, desktop bus, hotkey, and sounds.
package doctor

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/rbright/mictoggle/internal/config"
	"github.com/rbright/mictoggle/internal/device"
	"github.com/rbright/mictoggle/internal/hotkey"
	"github.com/rbright/mictoggle/internal/ipc"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", status, check.Name, check.Message)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// PulseDirectory is a device directory that can name its audio server.
type PulseDirectory interface {
	device.Directory
	ServerName() (string, error)
}

// Probes supplies the live environment. A nil probe marks its check failed.
type Probes struct {
	Directory      PulseDirectory
	DirectoryErr   error
	NameHasOwner   func(name string) (bool, error)
	Keyboards      func() ([]string, error)
	InstanceStatus func(ctx context.Context) (ipc.Status, bool, error)
}

const trayWatcherName = "org.kde.StatusNotifierWatcher"

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded, probes Probes) Report {
	checks := []Check{checkConfig(loaded)}

	checks = append(checks, checkPulse(probes))
	checks = append(checks, checkBinding(ctx, loaded.Config, probes.Directory))
	checks = append(checks, checkEnv("DBUS_SESSION_BUS_ADDRESS", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "session bus address set", "DBUS_SESSION_BUS_ADDRESS is empty"))
	checks = append(checks, checkTrayWatcher(probes.NameHasOwner))
	checks = append(checks, checkHotkey(loaded.Config.Hotkey, probes.Keyboards))
	checks = append(checks, checkSounds(loaded.Config)...)
	checks = append(checks, checkInstance(ctx, probes.InstanceStatus))

	return Report{Checks: checks}
}

func checkConfig(loaded config.Loaded) Check {
	if loaded.ParseErr != nil {
		return Check{Name: "config", Pass: false, Message: fmt.Sprintf("%v (defaults in effect)", loaded.ParseErr)}
	}
	message := fmt.Sprintf("loaded %q", loaded.Path)
	if loaded.Created {
		message = fmt.Sprintf("created %q with defaults", loaded.Path)
	}
	if n := len(loaded.Warnings); n > 0 {
		message += fmt.Sprintf(" (%d warnings)", n)
	}
	return Check{Name: "config", Pass: true, Message: message}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

func checkPulse(probes Probes) Check {
	if probes.Directory == nil {
		msg := "audio server unavailable"
		if probes.DirectoryErr != nil {
			msg = probes.DirectoryErr.Error()
		}
		return Check{Name: "pulse.server", Pass: false, Message: msg}
	}
	name, err := probes.Directory.ServerName()
	if err != nil {
		return Check{Name: "pulse.server", Pass: false, Message: err.Error()}
	}
	return Check{Name: "pulse.server", Pass: true, Message: name}
}

// checkBinding runs a real bind and releases it immediately.
func checkBinding(ctx context.Context, cfg config.Config, dir device.Directory) Check {
	if dir == nil {
		return Check{Name: "device.bind", Pass: false, Message: "no device directory"}
	}

	binder := device.NewBinder(dir, nil)
	bound, err := binder.Bind(ctx, device.PreferenceFromConfig(cfg.Device))
	if err != nil {
		return Check{Name: "device.bind", Pass: false, Message: err.Error()}
	}
	defer binder.Release()

	state := "unmuted"
	if bound.InitialMuted {
		state = "muted"
	}
	return Check{Name: "device.bind", Pass: true, Message: fmt.Sprintf("bound %q (%s)", bound.Name, state)}
}

func checkTrayWatcher(nameHasOwner func(string) (bool, error)) Check {
	if nameHasOwner == nil {
		return Check{Name: "tray.watcher", Pass: false, Message: "session bus unavailable"}
	}
	owned, err := nameHasOwner(trayWatcherName)
	if err != nil {
		return Check{Name: "tray.watcher", Pass: false, Message: err.Error()}
	}
	if !owned {
		return Check{Name: "tray.watcher", Pass: false, Message: trayWatcherName + " has no owner; no tray host is running"}
	}
	return Check{Name: "tray.watcher", Pass: true, Message: trayWatcherName + " is running"}
}

func checkHotkey(cfg config.HotkeyConfig, keyboards func() ([]string, error)) Check {
	binding := hotkey.BindingFromConfig(cfg)
	if !hotkey.Supported(binding.Key) {
		return Check{Name: "hotkey", Pass: false, Message: fmt.Sprintf("%v: %d", hotkey.ErrUnmappedKey, binding.Key)}
	}
	if !cfg.UseKeyboardHook {
		return Check{Name: "hotkey", Pass: true, Message: fmt.Sprintf("%s via hotkey registration", binding)}
	}

	if keyboards == nil {
		return Check{Name: "hotkey", Pass: true, Message: fmt.Sprintf("%s via keyboard filter (not probed)", binding)}
	}
	paths, err := keyboards()
	if err != nil {
		return Check{Name: "hotkey", Pass: false, Message: err.Error()}
	}
	readable := 0
	var openErr error
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			openErr = err
			continue
		}
		_ = f.Close()
		readable++
	}
	if readable == 0 {
		msg := "no keyboards found"
		if openErr != nil {
			msg = fmt.Sprintf("no readable keyboard: %v (registration will be used)", openErr)
		}
		return Check{Name: "hotkey", Pass: false, Message: msg}
	}
	return Check{Name: "hotkey", Pass: true, Message: fmt.Sprintf("%s via keyboard filter on %d keyboards", binding, readable)}
}

func checkSounds(cfg config.Config) []Check {
	if !cfg.Sound.Enable || cfg.Sound.Volume == 0 {
		return []Check{{Name: "sounds", Pass: true, Message: "sound cues disabled"}}
	}

	checks := make([]Check, 0, 2)
	for _, sound := range []struct{ name, raw string }{
		{name: "sound.mute", raw: cfg.Sound.MuteFile},
		{name: "sound.unmute", raw: cfg.Sound.UnmuteFile},
	} {
		path := cfg.ResolveSoundPath(sound.raw)
		if path == "" {
			checks = append(checks, Check{Name: sound.name, Pass: true, Message: "no file configured"})
			continue
		}
		if _, err := os.Stat(path); err != nil {
			checks = append(checks, Check{Name: sound.name, Pass: false, Message: err.Error()})
			continue
		}
		checks = append(checks, Check{Name: sound.name, Pass: true, Message: path})
	}
	return checks
}

func checkInstance(ctx context.Context, status func(context.Context) (ipc.Status, bool, error)) Check {
	if status == nil {
		return Check{Name: "instance", Pass: true, Message: "not probed"}
	}
	s, running, err := status(ctx)
	if err != nil {
		return Check{Name: "instance", Pass: false, Message: err.Error()}
	}
	if !running {
		return Check{Name: "instance", Pass: true, Message: "not running"}
	}
	message := fmt.Sprintf("running (pid %d, %s)", s.PID, s.State)
	if s.Device != "" {
		message = fmt.Sprintf("running (pid %d, %s, %q)", s.PID, s.State, s.Device)
	}
	return Check{Name: "instance", Pass: true, Message: message}
}

// NameHasOwner asks the bus daemon whether name is owned.
func NameHasOwner(conn *dbus.Conn) func(string) (bool, error) {
	return func(name string) (bool, error) {
		var owned bool
		if err := conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, name).Store(&owned); err != nil {
			return false, fmt.Errorf("query %s: %w", name, err)
		}
		return owned, nil
	}
}

// InstanceStatus queries the singleton socket at path.
func InstanceStatus(path string) func(context.Context) (ipc.Status, bool, error) {
	return func(ctx context.Context) (ipc.Status, bool, error) {
		alive, err := ipc.Probe(ctx, path, 300*time.Millisecond)
		if err != nil || !alive {
			return ipc.Status{}, false, err
		}
		status, err := ipc.Query(ctx, path, 300*time.Millisecond)
		if err != nil {
			return ipc.Status{}, false, err
		}
		return status, true, nil
	}
}
