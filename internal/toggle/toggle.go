// Package toggle owns the mute state of the bound capture device.
package toggle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/mictoggle/internal/config"
	"github.com/rbright/mictoggle/internal/device"
	"github.com/rbright/mictoggle/internal/fsm"
)

// Outcome classifies what one Toggle call did.
type Outcome string

const (
	OutcomeUnbound  Outcome = "unbound"
	OutcomeCooldown Outcome = "cooldown"
	OutcomeToggled  Outcome = "toggled"
	OutcomeFailed   Outcome = "failed"
)

// Policy is the config-derived toggle behavior.
type Policy struct {
	Cooldown     time.Duration
	PlaySounds   bool
	Volume       int
	MuteSound    string
	UnmuteSound  string
	UnmuteOnExit bool
}

// PolicyFromConfig resolves sound paths and copies toggle-related settings.
func PolicyFromConfig(cfg config.Config) Policy {
	return Policy{
		Cooldown:     cfg.Behavior.ToggleCooldown(),
		PlaySounds:   cfg.Sound.Enable,
		Volume:       cfg.Sound.Volume,
		MuteSound:    cfg.ResolveSoundPath(cfg.Sound.MuteFile),
		UnmuteSound:  cfg.ResolveSoundPath(cfg.Sound.UnmuteFile),
		UnmuteOnExit: cfg.Behavior.UnmuteOnExit,
	}
}

// View is a snapshot of what the UI should show.
type View struct {
	Bound        bool
	Muted        bool
	InitialMuted bool
	DeviceName   string
}

// Sound plays a cue without blocking the caller.
type Sound interface {
	Play(path string, volume int)
}

// Display reflects the current View in the UI.
type Display interface {
	Update(View)
}

type noopSound struct{}

func (noopSound) Play(string, int) {}

type noopDisplay struct{}

func (noopDisplay) Update(View) {}

// Machine serializes toggles from the event loop and the keyboard filter.
type Machine struct {
	logger  *slog.Logger
	sound   Sound
	display Display
	now     func() time.Time

	mu           sync.Mutex
	state        fsm.State
	bound        *device.Bound
	muted        bool
	initialMuted bool
	lastToggle   time.Time
	policy       Policy
}

// New constructs an unbound machine with safe default fallbacks.
func New(logger *slog.Logger, sound Sound, display Display, policy Policy) *Machine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if sound == nil {
		sound = noopSound{}
	}
	if display == nil {
		display = noopDisplay{}
	}
	return &Machine{
		logger:  logger,
		sound:   sound,
		display: display,
		now:     time.Now,
		state:   fsm.StateUnbound,
		policy:  policy,
	}
}

// SetDisplay swaps the UI sink once it exists.
func (m *Machine) SetDisplay(display Display) {
	if display == nil {
		display = noopDisplay{}
	}
	m.mu.Lock()
	m.display = display
	m.mu.Unlock()
}

// Configure replaces the cooldown and sound policy.
func (m *Machine) Configure(policy Policy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policy = policy
}

// Attach switches to a freshly bound device and resets mute state from its snapshot.
// The cooldown window survives rebinding.
func (m *Machine) Attach(bound *device.Bound) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if bound == nil || bound.Control() == nil {
		m.resetLocked(fsm.EventBindFailed)
		return
	}

	m.apply(fsm.EventBind)
	m.bound = bound
	m.muted = bound.InitialMuted
	m.initialMuted = bound.InitialMuted
}

// Detach drops the bound device; later toggles are no-ops.
func (m *Machine) Detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked(fsm.EventUnbind)
}

func (m *Machine) resetLocked(event fsm.Event) {
	m.apply(event)
	m.bound = nil
	m.muted = false
	m.initialMuted = false
}

// apply advances the binding state; both states accept every known event.
func (m *Machine) apply(event fsm.Event) {
	next, err := fsm.Transition(m.state, event)
	if err != nil {
		m.logger.Error("binding state transition rejected", "state", string(m.state), "event", string(event), "error", err.Error())
		return
	}
	m.state = next
}

// State returns the binding state.
func (m *Machine) State() fsm.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// View returns a snapshot for the UI.
func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked()
}

func (m *Machine) viewLocked() View {
	if m.state != fsm.StateBound || m.bound == nil {
		return View{}
	}
	return View{
		Bound:        true,
		Muted:        m.muted,
		InitialMuted: m.initialMuted,
		DeviceName:   m.bound.Name,
	}
}

// Refresh pushes the current view to the display.
func (m *Machine) Refresh() {
	m.mu.Lock()
	view := m.viewLocked()
	display := m.display
	m.mu.Unlock()

	display.Update(view)
}

// Toggle flips the bound device's mute flag unless unbound or inside the cooldown.
//
// The cooldown check, the device write, and the state commit happen under
// one lock. Sound and display side effects run after it is released.
func (m *Machine) Toggle(ctx context.Context) (Outcome, error) {
	m.mu.Lock()

	if m.state != fsm.StateBound || m.bound == nil {
		m.mu.Unlock()
		return OutcomeUnbound, nil
	}

	now := m.now()
	if !m.lastToggle.IsZero() && now.Sub(m.lastToggle) < m.policy.Cooldown {
		m.mu.Unlock()
		return OutcomeCooldown, nil
	}

	next := !m.muted
	if err := m.bound.Control().SetMuted(ctx, next); err != nil {
		name := m.bound.Name
		m.mu.Unlock()
		m.logger.Debug("toggle mute failed", "device", name, "target_muted", next, "error", err.Error())
		return OutcomeFailed, fmt.Errorf("set mute on %q: %w", name, err)
	}

	m.muted = next
	m.lastToggle = now

	cue := m.policy.UnmuteSound
	if next {
		cue = m.policy.MuteSound
	}
	playSound := m.policy.PlaySounds && m.policy.Volume > 0 && cue != ""
	volume := m.policy.Volume
	view := m.viewLocked()
	sound, display := m.sound, m.display
	m.mu.Unlock()

	m.logger.Info("microphone toggled", "device", view.DeviceName, "muted", next)
	if playSound {
		sound.Play(cue, volume)
	}
	display.Update(view)
	return OutcomeToggled, nil
}

// RestoreOnExit unmutes the bound device when the exit policy asks for it,
// then detaches so presses arriving during shutdown are no-ops.
//
// The bind-time snapshot is not consulted; the policy always leaves the
// microphone unmuted.
func (m *Machine) RestoreOnExit(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.resetLocked(fsm.EventUnbind)

	if !m.policy.UnmuteOnExit || m.state != fsm.StateBound || m.bound == nil || !m.muted {
		return nil
	}
	if err := m.bound.Control().SetMuted(ctx, false); err != nil {
		return fmt.Errorf("unmute %q on exit: %w", m.bound.Name, err)
	}
	m.muted = false
	m.logger.Info("microphone unmuted on exit", "device", m.bound.Name, "initial_muted", m.initialMuted)
	return nil
}
