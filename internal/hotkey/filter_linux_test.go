//go:build linux

package hotkey

import (
	"fmt"
	"log/slog"
	"os"
	"testing"

	evdev "github.com/holoplot/go-evdev"
	"github.com/stretchr/testify/require"

	"github.com/rbright/mictoggle/internal/config"
)

const (
	codeLeftCtrl  = 29
	codeRightCtrl = 97
	codeLeftShift = 42
	codeLeftAlt   = 56
	codeF1        = 59
)

func TestChordTrackerRequiresExactModifiers(t *testing.T) {
	tr := newChordTracker(config.ModControl|config.ModShift, codeF1)

	require.False(t, tr.observe(codeF1, keyDown), "no modifiers held")

	tr.observe(codeLeftCtrl, keyDown)
	require.False(t, tr.observe(codeF1, keyDown), "shift missing")

	tr.observe(codeLeftShift, keyDown)
	require.True(t, tr.observe(codeF1, keyDown))
	require.False(t, tr.observe(codeF1, keyRepeat), "auto-repeat is ignored")
	require.False(t, tr.observe(codeF1, keyUp))

	tr.observe(codeLeftAlt, keyDown)
	require.False(t, tr.observe(codeF1, keyDown), "extra modifier blocks the chord")

	tr.observe(codeLeftAlt, keyUp)
	tr.observe(codeLeftCtrl, keyUp)
	tr.observe(codeRightCtrl, keyDown)
	require.True(t, tr.observe(codeF1, keyDown), "either side of a modifier counts")
}

func TestChordTrackerWithoutModifiers(t *testing.T) {
	tr := newChordTracker(0, codeF1)
	require.True(t, tr.observe(codeF1, keyDown))
	tr.observe(codeLeftShift, keyDown)
	require.False(t, tr.observe(codeF1, keyDown))
}

type scriptedKeyboard struct {
	events []evdev.InputEvent
}

func (k *scriptedKeyboard) ReadOne() (*evdev.InputEvent, error) {
	if len(k.events) == 0 {
		return nil, fmt.Errorf("read event: %w", os.ErrClosed)
	}
	ev := k.events[0]
	k.events = k.events[1:]
	return &ev, nil
}

func TestReadChordsMatchesKeyEvents(t *testing.T) {
	key := func(code uint16, value int32) evdev.InputEvent {
		return evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.EvCode(code), Value: value}
	}
	kb := &scriptedKeyboard{events: []evdev.InputEvent{
		key(codeLeftCtrl, keyDown),
		{Type: evdev.EV_SYN},
		key(codeF1, keyDown),
		key(codeF1, keyUp),
		key(codeLeftCtrl, keyUp),
		key(codeF1, keyDown),
	}}

	pressed := 0
	readChords(kb, newChordTracker(config.ModControl, codeF1), func() { pressed++ }, slog.New(slog.DiscardHandler))
	require.Equal(t, 1, pressed)
	require.Empty(t, kb.events)
}

func TestIsKeyboard(t *testing.T) {
	letters := []evdev.EvCode{evdev.KEY_ESC, evdev.KEY_A, evdev.KEY_ENTER, evdev.KEY_F1}

	cases := []struct {
		name  string
		types []evdev.EvType
		keys  []evdev.EvCode
		want  bool
	}{
		{name: "keyboard", types: []evdev.EvType{evdev.EV_SYN, evdev.EV_KEY, evdev.EV_LED}, keys: letters, want: true},
		{name: "power button", types: []evdev.EvType{evdev.EV_SYN, evdev.EV_KEY}, keys: []evdev.EvCode{evdev.KEY_POWER}},
		{name: "mouse", types: []evdev.EvType{evdev.EV_SYN, evdev.EV_KEY, evdev.EV_REL}, keys: []evdev.EvCode{evdev.BTN_LEFT, evdev.BTN_RIGHT}},
		{name: "lid switch", types: []evdev.EvType{evdev.EV_SYN, evdev.EV_SW}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, isKeyboard(tc.types, tc.keys))
		})
	}
}
