// Package device resolves the configured capture endpoint and holds its mute control.
package device

import (
	"context"
	"errors"

	"github.com/rbright/mictoggle/internal/config"
)

// ErrNoDefaultDevice reports that the system has no default capture endpoint.
var ErrNoDefaultDevice = errors.New("no default capture device")

// Endpoint is one capture device as reported by the audio backend.
//
// Name is the human-facing label that device_name is matched against.
// Description carries secondary detail such as the active port.
type Endpoint struct {
	ID          string
	Name        string
	Description string
	Default     bool
	Enabled     bool
}

// MuteControl reads and writes the mute flag of one activated endpoint.
type MuteControl interface {
	Muted(ctx context.Context) (bool, error)
	SetMuted(ctx context.Context, muted bool) error
	Close() error
}

// Directory enumerates capture endpoints and activates mute control on one of them.
//
// ListCaptureDevices never fails; an enumeration problem yields an empty list.
type Directory interface {
	ListCaptureDevices(ctx context.Context) []Endpoint
	DefaultCaptureDevice(ctx context.Context) (Endpoint, error)
	Activate(ctx context.Context, id string) (MuteControl, error)
	Close() error
}

// Preference is the device selection derived from config.
type Preference struct {
	UseDefault bool
	Name       string
}

// PreferenceFromConfig maps device config into a selection preference.
func PreferenceFromConfig(cfg config.DeviceConfig) Preference {
	return Preference{UseDefault: cfg.UseDefault, Name: cfg.Name}
}

// Bound is an activated endpoint plus the mute state observed at bind time.
type Bound struct {
	ID           string
	Name         string
	InitialMuted bool

	control MuteControl
}

// Control returns the live mute control for the bound endpoint.
func (b *Bound) Control() MuteControl {
	if b == nil {
		return nil
	}
	return b.control
}

// NewBound wraps an activated control. Exposed for fakes in other packages' tests.
func NewBound(id string, name string, initialMuted bool, control MuteControl) *Bound {
	return &Bound{ID: id, Name: name, InitialMuted: initialMuted, control: control}
}
