package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/mictoggle/internal/config"
	"github.com/rbright/mictoggle/internal/device"
	"github.com/rbright/mictoggle/internal/hotkey"
	"github.com/rbright/mictoggle/internal/indicator"
	"github.com/rbright/mictoggle/internal/toggle"
	"github.com/rbright/mictoggle/internal/tray"
)

// recorder keeps the order of release-relevant calls across fakes.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fakeControl struct {
	rec *recorder

	mu       sync.Mutex
	muted    bool
	setCalls []bool
	closed   bool
}

func (c *fakeControl) Muted(context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted, nil
}

func (c *fakeControl) SetMuted(_ context.Context, muted bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted = muted
	c.setCalls = append(c.setCalls, muted)
	c.rec.add(fmt.Sprintf("set_muted:%t", muted))
	return nil
}

func (c *fakeControl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.rec.add("control_close")
	return nil
}

func (c *fakeControl) calls() []bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]bool(nil), c.setCalls...)
}

func (c *fakeControl) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type fakeDirectory struct {
	rec *recorder

	endpoints  []device.Endpoint
	defaultEp  device.Endpoint
	defaultErr error

	mu        sync.Mutex
	activated []string
	controls  []*fakeControl
	closed    bool
}

func (d *fakeDirectory) ListCaptureDevices(context.Context) []device.Endpoint {
	return append([]device.Endpoint(nil), d.endpoints...)
}

func (d *fakeDirectory) DefaultCaptureDevice(context.Context) (device.Endpoint, error) {
	if d.defaultErr != nil {
		return device.Endpoint{}, d.defaultErr
	}
	return d.defaultEp, nil
}

func (d *fakeDirectory) Activate(_ context.Context, id string) (device.MuteControl, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	control := &fakeControl{rec: d.rec}
	d.activated = append(d.activated, id)
	d.controls = append(d.controls, control)
	return control, nil
}

func (d *fakeDirectory) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.rec.add("directory_close")
	return nil
}

func (d *fakeDirectory) lastControl() *fakeControl {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.controls) == 0 {
		return nil
	}
	return d.controls[len(d.controls)-1]
}

type fakeTray struct {
	rec    *recorder
	events chan tray.Action

	mu      sync.Mutex
	updates []toggle.View
	closed  bool
}

func (t *fakeTray) Events() <-chan tray.Action { return t.events }

func (t *fakeTray) Update(view toggle.View) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.updates = append(t.updates, view)
}

func (t *fakeTray) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.rec.add("tray_close")
	return nil
}

func (t *fakeTray) lastView() toggle.View {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.updates) == 0 {
		return toggle.View{}
	}
	return t.updates[len(t.updates)-1]
}

type fakeHotkeys struct {
	rec   *recorder
	fired chan struct{}

	mu          sync.Mutex
	registerErr error
	filterErr   error
	registered  []hotkey.Binding
	filter      []bool
	onPress     func()
	releases    int

	// beforeRelease runs at the start of Release, outside the lock.
	beforeRelease func()
}

func (h *fakeHotkeys) Register(b hotkey.Binding, useFilter bool, onPress func()) (hotkey.Registration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.registered = append(h.registered, b)
	h.filter = append(h.filter, useFilter)
	if h.registerErr != nil {
		return hotkey.Registration{Mode: hotkey.ModeNone}, h.registerErr
	}
	if useFilter && h.filterErr != nil {
		return hotkey.Registration{Mode: hotkey.ModeRegistration, FilterErr: h.filterErr}, nil
	}
	h.onPress = onPress
	if useFilter {
		return hotkey.Registration{Mode: hotkey.ModeKeyboardFilter}, nil
	}
	return hotkey.Registration{Mode: hotkey.ModeRegistration}, nil
}

func (h *fakeHotkeys) Fired() <-chan struct{} { return h.fired }

func (h *fakeHotkeys) Release() {
	if h.beforeRelease != nil {
		h.beforeRelease()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.releases++
	h.onPress = nil
	h.rec.add("hotkeys_release")
}

func (h *fakeHotkeys) setRegisterErr(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.registerErr = err
}

func (h *fakeHotkeys) press() func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.onPress
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []indicator.Notice
}

func (n *fakeNotifier) Notice(_ context.Context, notice indicator.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *fakeNotifier) all() []indicator.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]indicator.Notice(nil), n.notices...)
}

type fakeOpener struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (o *fakeOpener) Open(_ context.Context, path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paths = append(o.paths, path)
	return o.err
}

func (o *fakeOpener) opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.paths...)
}

// harness wires a controller over fakes and a real config file.
type harness struct {
	configPath string
	rec        *recorder
	dir        *fakeDirectory
	tray       *fakeTray
	trayErr    error
	hotkeys    *fakeHotkeys
	notifier   *fakeNotifier
	opener     *fakeOpener
	ctrl       *Controller
}

func newHarness(t *testing.T, configBody string, endpoints ...device.Endpoint) *harness {
	t.Helper()

	rec := &recorder{}
	h := &harness{
		configPath: filepath.Join(t.TempDir(), "mic_config.txt"),
		rec:        rec,
		dir:        &fakeDirectory{rec: rec, endpoints: endpoints},
		tray:       &fakeTray{rec: rec, events: make(chan tray.Action, 8)},
		hotkeys:    &fakeHotkeys{rec: rec, fired: make(chan struct{}, 1)},
		notifier:   &fakeNotifier{},
		opener:     &fakeOpener{},
	}
	h.writeConfig(t, configBody)

	h.ctrl = NewController(Deps{
		Load:      func() (config.Loaded, error) { return config.Load(h.configPath) },
		Directory: h.dir,
		NewTray:   func(view toggle.View) (Tray, error) {
			if h.trayErr != nil {
				return nil, h.trayErr
			}
			h.tray.Update(view)
			return h.tray, nil
		},
		Hotkeys:  h.hotkeys,
		Notifier: h.notifier,
		Opener:   h.opener,
	})
	return h
}

func (h *harness) writeConfig(t *testing.T, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(h.configPath, []byte(body), 0o600))
}

func (h *harness) deviceListPath() string {
	return filepath.Join(filepath.Dir(h.configPath), "available_devices.txt")
}

var errHotkeyTaken = errors.New("hotkey already grabbed")
