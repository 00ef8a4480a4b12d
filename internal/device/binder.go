package device

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

const defaultDisplayName = "Default Device"

// Binder owns at most one bound endpoint at a time.
type Binder struct {
	dir    Directory
	logger *slog.Logger

	mu    sync.Mutex
	bound *Bound
}

// NewBinder creates a binder over dir.
func NewBinder(dir Directory, logger *slog.Logger) *Binder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Binder{dir: dir, logger: logger}
}

// Bind releases the current endpoint and activates the one pref selects.
//
// On failure the binder is left with nothing bound.
func (b *Binder) Bind(ctx context.Context, pref Preference) (*Bound, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseLocked()

	ep, err := b.resolve(ctx, pref)
	if err != nil {
		return nil, err
	}

	name := ep.Name
	if pref.UseDefault && name == "" {
		name = defaultDisplayName
	}

	control, err := b.dir.Activate(ctx, ep.ID)
	if err != nil {
		return nil, &BindError{Kind: KindActivationFailed, Name: name, Err: err}
	}

	muted, err := control.Muted(ctx)
	if err != nil {
		_ = control.Close()
		return nil, &BindError{Kind: KindActivationFailed, Name: name, Err: err}
	}

	b.bound = &Bound{ID: ep.ID, Name: name, InitialMuted: muted, control: control}
	b.logger.Info("capture device bound", "id", ep.ID, "name", name, "muted", muted, "use_default", pref.UseDefault)
	return b.bound, nil
}

// Current returns the bound endpoint, or nil.
func (b *Binder) Current() *Bound {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bound
}

// Release closes the bound endpoint's control. Safe to call repeatedly.
func (b *Binder) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseLocked()
}

func (b *Binder) releaseLocked() {
	if b.bound == nil {
		return
	}
	if b.bound.control != nil {
		if err := b.bound.control.Close(); err != nil {
			b.logger.Debug("release capture device", "id", b.bound.ID, "error", err.Error())
		}
	}
	b.bound = nil
}

func (b *Binder) resolve(ctx context.Context, pref Preference) (Endpoint, error) {
	if pref.UseDefault {
		ep, err := b.dir.DefaultCaptureDevice(ctx)
		if err != nil {
			return Endpoint{}, &BindError{Kind: KindNoDefaultDevice, Err: err}
		}
		return ep, nil
	}

	if pref.Name == "" {
		return Endpoint{}, &BindError{Kind: KindEmptyName}
	}

	if ep, ok := FindByName(b.dir.ListCaptureDevices(ctx), pref.Name); ok {
		return ep, nil
	}
	return Endpoint{}, &BindError{Kind: KindNotFound, Name: pref.Name, Err: errors.New("no enabled endpoint has that name")}
}

// FindByName returns the first enabled endpoint whose name equals name exactly.
func FindByName(endpoints []Endpoint, name string) (Endpoint, bool) {
	for _, ep := range endpoints {
		if !ep.Enabled {
			continue
		}
		if ep.Name == name {
			return ep, true
		}
	}
	return Endpoint{}, false
}
