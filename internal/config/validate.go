package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if cfg.Sound.Volume < MinSoundVolume || cfg.Sound.Volume > MaxSoundVolume {
		return nil, fmt.Errorf("sound_volume must be within %d-%d", MinSoundVolume, MaxSoundVolume)
	}
	if cfg.Behavior.ToggleCooldownMS < MinToggleCooldownMS || cfg.Behavior.ToggleCooldownMS > MaxToggleCooldownMS {
		return nil, fmt.Errorf("toggle_cooldown must be within %d-%d", MinToggleCooldownMS, MaxToggleCooldownMS)
	}
	if cfg.Hotkey.Key == 0 {
		return nil, errors.New("hotkey_vk must not be 0")
	}

	if extra := cfg.Hotkey.Modifiers &^ modifierMask; extra != 0 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("hotkey_mod has unsupported bits 0x%X; they are ignored", extra)})
	}
	if cfg.Device.UseDefault && strings.TrimSpace(cfg.Device.Name) != "" {
		warnings = append(warnings, Warning{Message: "device_name is ignored while use_default_device = true"})
	}
	if !cfg.Device.UseDefault && cfg.Device.Name == "" {
		warnings = append(warnings, Warning{Message: "use_default_device = false but device_name is empty"})
	}

	return warnings, nil
}
