package hotkey

import (
	"fmt"
	"log/slog"
	"sync"
)

// Mode names the active delivery mechanism.
type Mode string

const (
	ModeNone           Mode = "none"
	ModeRegistration   Mode = "registration"
	ModeKeyboardFilter Mode = "keyboard_filter"
)

// Registration reports what Register activated.
type Registration struct {
	Mode Mode
	// FilterErr is set when the keyboard filter was requested but could not
	// start and registration was used instead.
	FilterErr error
}

// stopFunc tears down one active delivery mechanism.
type stopFunc func()

// registerFunc grabs binding with the display server and signals presses on fired.
type registerFunc func(b Binding, fired chan<- struct{}, logger *slog.Logger) (stopFunc, error)

// filterFunc reads keyboards directly and calls onPress from its reader goroutines.
type filterFunc func(b Binding, onPress func(), logger *slog.Logger) (stopFunc, error)

// Manager owns at most one active delivery mechanism.
type Manager struct {
	logger   *slog.Logger
	register registerFunc
	filter   filterFunc
	fired    chan struct{}

	mu   sync.Mutex
	mode Mode
	stop stopFunc
}

// NewManager creates a manager using the platform mechanisms.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		logger:   logger,
		register: startRegistration,
		filter:   startFilter,
		fired:    make(chan struct{}, 1),
		mode:     ModeNone,
	}
}

// Fired delivers registered-hotkey presses to the event loop.
func (m *Manager) Fired() <-chan struct{} {
	return m.fired
}

// Mode returns the active mechanism.
func (m *Manager) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Register releases any active mechanism and starts the one useFilter selects.
//
// In filter mode onPress runs on reader goroutines, concurrently with the
// caller. If the filter cannot start, registration is tried instead,
// presses arrive on Fired, and the filter error is kept in FilterErr.
func (m *Manager) Register(b Binding, useFilter bool, onPress func()) (Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.releaseLocked()

	if !Supported(b.Key) {
		return Registration{Mode: ModeNone}, fmt.Errorf("%w: %d", ErrUnmappedKey, b.Key)
	}

	var filterErr error
	if useFilter {
		stop, err := m.filter(b, onPress, m.logger)
		if err == nil {
			m.activate(ModeKeyboardFilter, stop, b)
			return Registration{Mode: ModeKeyboardFilter}, nil
		}
		filterErr = fmt.Errorf("start keyboard filter: %w", err)
		m.logger.Warn("keyboard filter unavailable; falling back to hotkey registration", "error", err.Error())
	}

	stop, err := m.register(b, m.fired, m.logger)
	if err != nil {
		return Registration{Mode: ModeNone, FilterErr: filterErr}, fmt.Errorf("register hotkey %s: %w", b, err)
	}
	m.activate(ModeRegistration, stop, b)
	return Registration{Mode: ModeRegistration, FilterErr: filterErr}, nil
}

func (m *Manager) activate(mode Mode, stop stopFunc, b Binding) {
	m.mode = mode
	m.stop = stop
	m.logger.Info("hotkey active", "mode", string(mode), "chord", b.String())
}

// Release stops the active mechanism. Safe to call when nothing is active.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked()
}

func (m *Manager) releaseLocked() {
	if m.stop != nil {
		m.stop()
	}
	m.stop = nil
	m.mode = ModeNone

	select {
	case <-m.fired:
	default:
	}
}

// notify is a non-blocking send; presses that arrive while one is pending coalesce.
func notify(fired chan<- struct{}) {
	select {
	case fired <- struct{}{}:
	default:
	}
}
