package doctor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/mictoggle/internal/config"
	"github.com/rbright/mictoggle/internal/device"
	"github.com/rbright/mictoggle/internal/ipc"
)

type fakeControl struct{ muted bool }

func (c *fakeControl) Muted(context.Context) (bool, error)  { return c.muted, nil }
func (c *fakeControl) SetMuted(context.Context, bool) error { return nil }
func (c *fakeControl) Close() error                         { return nil }

type fakeDirectory struct {
	endpoints []device.Endpoint
	server    string
	serverErr error
}

func (d *fakeDirectory) ListCaptureDevices(context.Context) []device.Endpoint { return d.endpoints }

func (d *fakeDirectory) DefaultCaptureDevice(context.Context) (device.Endpoint, error) {
	for _, ep := range d.endpoints {
		if ep.Default {
			return ep, nil
		}
	}
	return device.Endpoint{}, device.ErrNoDefaultDevice
}

func (d *fakeDirectory) Activate(context.Context, string) (device.MuteControl, error) {
	return &fakeControl{muted: true}, nil
}

func (d *fakeDirectory) Close() error { return nil }

func (d *fakeDirectory) ServerName() (string, error) { return d.server, d.serverErr }

func findCheck(t *testing.T, report Report, name string) Check {
	t.Helper()
	for _, check := range report.Checks {
		if check.Name == name {
			return check
		}
	}
	t.Fatalf("check %q not found in %v", name, report.Checks)
	return Check{}
}

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestReportOKAllPassing(t *testing.T) {
	report := Report{Checks: []Check{{Name: "one", Pass: true}, {Name: "two", Pass: true}}}
	require.True(t, report.OK())
}

func TestCheckEnv(t *testing.T) {
	t.Setenv("TEST_DOCTOR_ENV", "unix:path=/run/user/1000/bus")

	check := checkEnv(
		"TEST_DOCTOR_ENV",
		func(v string) bool { return strings.HasPrefix(v, "unix:") },
		"looks good",
		"unexpected",
	)

	require.True(t, check.Pass)
	require.Equal(t, "looks good", check.Message)
}

func TestCheckConfig(t *testing.T) {
	cases := []struct {
		name     string
		loaded   config.Loaded
		wantPass bool
		want     string
	}{
		{name: "loaded", loaded: config.Loaded{Path: "/c/mic_config.txt", Exists: true}, wantPass: true, want: "loaded"},
		{name: "created", loaded: config.Loaded{Path: "/c/mic_config.txt", Created: true}, wantPass: true, want: "created"},
		{
			name:     "warnings",
			loaded:   config.Loaded{Path: "/c/mic_config.txt", Warnings: []config.Warning{{Message: "x"}}},
			wantPass: true,
			want:     "(1 warnings)",
		},
		{name: "defaulted", loaded: config.Loaded{ParseErr: errors.New("bad number")}, wantPass: false, want: "defaults in effect"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			check := checkConfig(tc.loaded)
			require.Equal(t, tc.wantPass, check.Pass)
			require.Contains(t, check.Message, tc.want)
		})
	}
}

func TestCheckPulse(t *testing.T) {
	require.False(t, checkPulse(Probes{DirectoryErr: errors.New("connection refused")}).Pass)
	require.False(t, checkPulse(Probes{Directory: &fakeDirectory{serverErr: errors.New("gone")}}).Pass)

	check := checkPulse(Probes{Directory: &fakeDirectory{server: "pulseaudio 17.0"}})
	require.True(t, check.Pass)
	require.Equal(t, "pulseaudio 17.0", check.Message)
}

func TestCheckBinding(t *testing.T) {
	dir := &fakeDirectory{endpoints: []device.Endpoint{{ID: "a", Name: "USB Mic", Enabled: true}}}

	cfg := config.Default()
	cfg.Device = config.DeviceConfig{Name: "USB Mic"}
	check := checkBinding(context.Background(), cfg, dir)
	require.True(t, check.Pass)
	require.Equal(t, `bound "USB Mic" (muted)`, check.Message)

	cfg.Device = config.DeviceConfig{Name: "Other"}
	check = checkBinding(context.Background(), cfg, dir)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "not found")

	require.False(t, checkBinding(context.Background(), cfg, nil).Pass)
}

func TestCheckTrayWatcher(t *testing.T) {
	require.False(t, checkTrayWatcher(nil).Pass)
	require.False(t, checkTrayWatcher(func(string) (bool, error) { return false, nil }).Pass)
	require.False(t, checkTrayWatcher(func(string) (bool, error) { return false, errors.New("denied") }).Pass)

	var asked string
	check := checkTrayWatcher(func(name string) (bool, error) {
		asked = name
		return true, nil
	})
	require.True(t, check.Pass)
	require.Equal(t, "org.kde.StatusNotifierWatcher", asked)
}

func TestCheckHotkey(t *testing.T) {
	readable := filepath.Join(t.TempDir(), "event3")
	require.NoError(t, os.WriteFile(readable, nil, 0o600))
	missing := filepath.Join(t.TempDir(), "event9")

	cases := []struct {
		name      string
		cfg       config.HotkeyConfig
		keyboards func() ([]string, error)
		wantPass  bool
		want      string
	}{
		{
			name:     "unmapped key",
			cfg:      config.HotkeyConfig{Modifiers: config.ModControl, Key: 0xFF},
			wantPass: false,
			want:     "unsupported hotkey_vk",
		},
		{
			name:     "registration",
			cfg:      config.HotkeyConfig{Modifiers: config.ModControl | config.ModShift, Key: 112},
			wantPass: true,
			want:     "Ctrl+Shift+F1 via hotkey registration",
		},
		{
			name:      "filter with keyboard",
			cfg:       config.HotkeyConfig{Modifiers: config.ModAlt, Key: 'M', UseKeyboardHook: true},
			keyboards: func() ([]string, error) { return []string{missing, readable}, nil },
			wantPass:  true,
			want:      "on 1 keyboards",
		},
		{
			name:      "filter without readable keyboard",
			cfg:       config.HotkeyConfig{Key: 112, UseKeyboardHook: true},
			keyboards: func() ([]string, error) { return []string{missing}, nil },
			wantPass:  false,
			want:      "no readable keyboard",
		},
		{
			name:      "filter table unreadable",
			cfg:       config.HotkeyConfig{Key: 112, UseKeyboardHook: true},
			keyboards: func() ([]string, error) { return nil, errors.New("read input device table: denied") },
			wantPass:  false,
			want:      "denied",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			check := checkHotkey(tc.cfg, tc.keyboards)
			require.Equal(t, tc.wantPass, check.Pass, check.Message)
			require.Contains(t, check.Message, tc.want)
		})
	}
}

func TestCheckSounds(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mute.wav"), []byte("RIFF"), 0o600))

	cfg := config.Default()
	cfg.Files.Config = filepath.Join(dir, "mic_config.txt")

	checks := checkSounds(cfg)
	require.Len(t, checks, 2)
	require.True(t, checks[0].Pass)
	require.False(t, checks[1].Pass)
	require.Contains(t, checks[1].Message, "unmute.wav")

	cfg.Sound.Enable = false
	checks = checkSounds(cfg)
	require.Len(t, checks, 1)
	require.True(t, checks[0].Pass)
}

func TestCheckInstance(t *testing.T) {
	require.Equal(t, "not probed", checkInstance(context.Background(), nil).Message)

	idle := func(context.Context) (ipc.Status, bool, error) { return ipc.Status{}, false, nil }
	require.Equal(t, "not running", checkInstance(context.Background(), idle).Message)

	running := func(context.Context) (ipc.Status, bool, error) {
		return ipc.Status{PID: 12, State: "bound", Device: "USB Mic"}, true, nil
	}
	check := checkInstance(context.Background(), running)
	require.True(t, check.Pass)
	require.Equal(t, `running (pid 12, bound, "USB Mic")`, check.Message)
}

func TestInstanceStatusWithoutOwner(t *testing.T) {
	status := InstanceStatus(filepath.Join(t.TempDir(), "mictoggle.sock"))
	_, running, err := status(context.Background())
	require.NoError(t, err)
	require.False(t, running)
}

func TestRunCollectsEveryCheck(t *testing.T) {
	t.Setenv("DBUS_SESSION_BUS_ADDRESS", "unix:path=/tmp/bus")

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Files.Config = filepath.Join(dir, "mic_config.txt")
	cfg.Device = config.DeviceConfig{UseDefault: true}
	cfg.Hotkey.UseKeyboardHook = false
	cfg.Sound.Enable = false

	report := Run(context.Background(), config.Loaded{Path: cfg.Files.Config, Config: cfg, Exists: true}, Probes{
		Directory: &fakeDirectory{
			server:    "pulseaudio 17.0",
			endpoints: []device.Endpoint{{ID: "src", Name: "Built-in", Enabled: true, Default: true}},
		},
		NameHasOwner: func(string) (bool, error) { return true, nil },
	})

	require.True(t, report.OK(), report.String())
	for _, name := range []string{"config", "pulse.server", "device.bind", "DBUS_SESSION_BUS_ADDRESS", "tray.watcher", "hotkey", "sounds", "instance"} {
		findCheck(t, report, name)
	}
}
