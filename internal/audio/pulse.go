// Package audio talks to the PulseAudio server for capture endpoints and their mute state.
package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"

	"github.com/rbright/mictoggle/internal/device"
)

const (
	applicationName = "mictoggle"
	iconName        = "audio-input-microphone"
	monitorSuffix   = ".monitor"
)

// Directory enumerates Pulse input sources and activates per-source mute control.
type Directory struct {
	client *pulse.Client
	logger *slog.Logger

	closeOnce sync.Once
}

var _ device.Directory = (*Directory)(nil)

// NewDirectory connects to the Pulse server.
func NewDirectory(logger *slog.Logger) (*Directory, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Directory{client: client, logger: logger}, nil
}

func newClient() (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName(applicationName),
		pulse.ClientApplicationIconName(iconName),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}

// ListCaptureDevices returns active, non-monitor input sources in server order.
func (d *Directory) ListCaptureDevices(_ context.Context) []device.Endpoint {
	defaultID := ""
	if source, err := d.client.DefaultSource(); err == nil && source != nil {
		defaultID = source.ID()
	}

	var sourceInfos pulseproto.GetSourceInfoListReply
	if err := d.client.RawRequest(&pulseproto.GetSourceInfoList{}, &sourceInfos); err != nil {
		d.logger.Warn("list pulse sources failed", "error", err.Error())
		return []device.Endpoint{}
	}

	return endpointsFromSources(sourceInfos, defaultID)
}

// DefaultCaptureDevice resolves the server's default source.
func (d *Directory) DefaultCaptureDevice(_ context.Context) (device.Endpoint, error) {
	var server pulseproto.GetServerInfoReply
	if err := d.client.RawRequest(&pulseproto.GetServerInfo{}, &server); err != nil {
		return device.Endpoint{}, fmt.Errorf("read server info: %w", err)
	}
	name := strings.TrimSpace(server.DefaultSourceName)
	if name == "" || isMonitor(name) {
		return device.Endpoint{}, device.ErrNoDefaultDevice
	}

	info, err := sourceInfo(d.client, name)
	if err != nil {
		return device.Endpoint{}, fmt.Errorf("%w: %v", device.ErrNoDefaultDevice, err)
	}

	ep := endpointFromSource(info, name)
	return ep, nil
}

// Activate opens a dedicated connection that controls the mute flag of source id.
func (d *Directory) Activate(_ context.Context, id string) (device.MuteControl, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	if _, err := sourceInfo(client, id); err != nil {
		client.Close()
		return nil, err
	}
	return &SourceMute{client: client, name: id}, nil
}

// Close releases the directory's server connection.
func (d *Directory) Close() error {
	d.closeOnce.Do(func() {
		d.client.Close()
	})
	return nil
}

// ServerName reports the connected server's name and version for diagnostics.
func (d *Directory) ServerName() (string, error) {
	var server pulseproto.GetServerInfoReply
	if err := d.client.RawRequest(&pulseproto.GetServerInfo{}, &server); err != nil {
		return "", fmt.Errorf("read server info: %w", err)
	}
	return strings.TrimSpace(server.PackageName + " " + server.PackageVersion), nil
}

// SourceMute reads and writes one source's mute flag over its own connection.
type SourceMute struct {
	client *pulse.Client
	name   string

	mu     sync.Mutex
	closed bool
}

var errClosed = errors.New("mute control closed")

// Muted reports the source's current mute flag.
func (m *SourceMute) Muted(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, errClosed
	}
	info, err := sourceInfo(m.client, m.name)
	if err != nil {
		return false, err
	}
	return info.Mute, nil
}

// SetMuted writes the source's mute flag.
func (m *SourceMute) SetMuted(_ context.Context, muted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errClosed
	}
	req := &pulseproto.SetSourceMute{
		SourceIndex: pulseproto.Undefined,
		SourceName:  m.name,
		Mute:        muted,
	}
	if err := m.client.RawRequest(req, nil); err != nil {
		return fmt.Errorf("set mute on %q: %w", m.name, err)
	}
	return nil
}

// Close drops the connection. Subsequent calls fail with errClosed.
func (m *SourceMute) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.client.Close()
	return nil
}

func sourceInfo(client *pulse.Client, name string) (*pulseproto.GetSourceInfoReply, error) {
	var info pulseproto.GetSourceInfoReply
	req := &pulseproto.GetSourceInfo{SourceIndex: pulseproto.Undefined, SourceName: name}
	if err := client.RawRequest(req, &info); err != nil {
		return nil, fmt.Errorf("read source %q: %w", name, err)
	}
	return &info, nil
}

// endpointsFromSources filters monitor and unavailable sources and maps the rest.
func endpointsFromSources(sources []*pulseproto.GetSourceInfoReply, defaultID string) []device.Endpoint {
	endpoints := make([]device.Endpoint, 0, len(sources))
	for _, source := range sources {
		if source == nil || isMonitor(source.SourceName) || !sourceAvailable(source) {
			continue
		}
		endpoints = append(endpoints, endpointFromSource(source, defaultID))
	}
	return endpoints
}

func endpointFromSource(source *pulseproto.GetSourceInfoReply, defaultID string) device.Endpoint {
	return device.Endpoint{
		ID:          source.SourceName,
		Name:        source.Device,
		Description: activePortLabel(source),
		Default:     source.SourceName == defaultID,
		Enabled:     sourceAvailable(source),
	}
}

func isMonitor(name string) bool {
	return strings.HasSuffix(name, monitorSuffix)
}

// activePortLabel prefers the active port's description over its raw name.
func activePortLabel(source *pulseproto.GetSourceInfoReply) string {
	for _, port := range source.Ports {
		if port.Name != source.ActivePortName {
			continue
		}
		if strings.TrimSpace(port.Description) != "" {
			return port.Description
		}
		break
	}
	return source.ActivePortName
}

// sourceAvailable maps Pulse source port availability to a simple boolean.
func sourceAvailable(source *pulseproto.GetSourceInfoReply) bool {
	if source == nil {
		return false
	}
	if len(source.Ports) == 0 {
		return true
	}
	for _, port := range source.Ports {
		if port.Name != source.ActivePortName {
			continue
		}
		// PulseAudio values: unknown=0, no=1, yes=2.
		return port.Available == 0 || port.Available == 2
	}
	return true
}
