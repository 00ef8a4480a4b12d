// Package hotkey delivers the configured global key chord through one of two mechanisms.
package hotkey

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rbright/mictoggle/internal/config"
)

// ErrUnmappedKey reports a virtual key code with no Linux equivalent.
var ErrUnmappedKey = errors.New("unsupported hotkey_vk")

// Binding is a modifier mask plus a virtual key code, as written in the config file.
type Binding struct {
	Modifiers uint32
	Key       uint32
}

// BindingFromConfig extracts the chord from hotkey config.
func BindingFromConfig(cfg config.HotkeyConfig) Binding {
	return Binding{Modifiers: cfg.Modifiers & knownModifiers, Key: cfg.Key}
}

const knownModifiers = config.ModAlt | config.ModControl | config.ModShift | config.ModWin

const (
	vkTab   = 9
	vkEnter = 13
	vkSpace = 32
	vk0     = 48
	vk9     = 57
	vkA     = 65
	vkZ     = 90
	vkF1    = 112
	vkF24   = 135
)

// evdev key codes from linux/input-event-codes.h.
var (
	evdevLetters = [26]uint16{
		30, 48, 46, 32, 18, 33, 34, 35, 23, 36, 37, 38, 50, // A-M
		49, 24, 25, 16, 19, 31, 20, 22, 47, 17, 45, 21, 44, // N-Z
	}
	evdevDigits = [10]uint16{11, 2, 3, 4, 5, 6, 7, 8, 9, 10} // 0-9
)

type modifierKeys struct {
	bit   uint32
	codes [2]uint16
	name  string
}

var modifierTable = []modifierKeys{
	{bit: config.ModControl, codes: [2]uint16{29, 97}, name: "Ctrl"},
	{bit: config.ModAlt, codes: [2]uint16{56, 100}, name: "Alt"},
	{bit: config.ModShift, codes: [2]uint16{42, 54}, name: "Shift"},
	{bit: config.ModWin, codes: [2]uint16{125, 126}, name: "Super"},
}

// Supported reports whether vk can be delivered on this platform.
func Supported(vk uint32) bool {
	_, ok := keysym(vk)
	return ok
}

// keysym maps a virtual key code to its X11 keysym.
func keysym(vk uint32) (uint32, bool) {
	switch {
	case vk >= vkA && vk <= vkZ:
		return 'a' + (vk - vkA), true
	case vk >= vk0 && vk <= vk9:
		return '0' + (vk - vk0), true
	case vk >= vkF1 && vk <= vkF24:
		return 0xffbe + (vk - vkF1), true
	case vk == vkSpace:
		return 0x20, true
	case vk == vkEnter:
		return 0xff0d, true
	case vk == vkTab:
		return 0xff09, true
	default:
		return 0, false
	}
}

// evdevCode maps a virtual key code to its kernel input key code.
func evdevCode(vk uint32) (uint16, bool) {
	switch {
	case vk >= vkA && vk <= vkZ:
		return evdevLetters[vk-vkA], true
	case vk >= vk0 && vk <= vk9:
		return evdevDigits[vk-vk0], true
	case vk >= vkF1 && vk <= vkF1+9:
		return uint16(59 + vk - vkF1), true
	case vk == vkF1+10:
		return 87, true
	case vk == vkF1+11:
		return 88, true
	case vk >= vkF1+12 && vk <= vkF24:
		return uint16(183 + vk - (vkF1 + 12)), true
	case vk == vkSpace:
		return 57, true
	case vk == vkEnter:
		return 28, true
	case vk == vkTab:
		return 15, true
	default:
		return 0, false
	}
}

// modifierBit returns the config modifier bit for an evdev key code.
func modifierBit(code uint16) (uint32, bool) {
	for _, m := range modifierTable {
		if code == m.codes[0] || code == m.codes[1] {
			return m.bit, true
		}
	}
	return 0, false
}

// String renders the chord for logs and diagnostics, e.g. "Ctrl+Shift+F1".
func (b Binding) String() string {
	parts := make([]string, 0, len(modifierTable)+1)
	for _, m := range modifierTable {
		if b.Modifiers&m.bit != 0 {
			parts = append(parts, m.name)
		}
	}
	parts = append(parts, keyName(b.Key))
	return strings.Join(parts, "+")
}

func keyName(vk uint32) string {
	switch {
	case vk >= vkA && vk <= vkZ, vk >= vk0 && vk <= vk9:
		return string(rune(vk))
	case vk >= vkF1 && vk <= vkF24:
		return fmt.Sprintf("F%d", vk-vkF1+1)
	case vk == vkSpace:
		return "Space"
	case vk == vkEnter:
		return "Enter"
	case vk == vkTab:
		return "Tab"
	default:
		return fmt.Sprintf("VK(%d)", vk)
	}
}
