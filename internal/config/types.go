// Package config resolves, parses, validates, and defaults mictoggle configuration.
package config

import "time"

// Modifier bits as written in the config file. The values match the
// classic desktop hotkey mask so existing files keep working.
const (
	ModAlt     uint32 = 1
	ModControl uint32 = 2
	ModShift   uint32 = 4
	ModWin     uint32 = 8

	modifierMask = ModAlt | ModControl | ModShift | ModWin
)

const (
	MinSoundVolume      = 0
	MaxSoundVolume      = 100
	MinToggleCooldownMS = 0
	MaxToggleCooldownMS = 60000
)

// Config is the fully materialized runtime configuration used by mictoggle.
type Config struct {
	Device   DeviceConfig
	Hotkey   HotkeyConfig
	Sound    SoundConfig
	Behavior BehaviorConfig
	Files    FilesConfig
}

// DeviceConfig selects the capture endpoint to bind.
type DeviceConfig struct {
	UseDefault bool
	Name       string
}

// HotkeyConfig holds the modifier mask, virtual key code, and delivery mode.
type HotkeyConfig struct {
	Modifiers       uint32
	Key             uint32
	UseKeyboardHook bool
}

// SoundConfig controls mute/unmute cue playback.
type SoundConfig struct {
	Enable     bool
	Volume     int
	MuteFile   string
	UnmuteFile string
}

// BehaviorConfig controls toggle debounce and exit policy.
type BehaviorConfig struct {
	ToggleCooldownMS int
	UnmuteOnExit     bool
}

// FilesConfig records where the config and the device report live.
type FilesConfig struct {
	Config     string
	DeviceList string
}

// ToggleCooldown returns the cooldown as a duration.
func (c BehaviorConfig) ToggleCooldown() time.Duration {
	return time.Duration(c.ToggleCooldownMS) * time.Millisecond
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
