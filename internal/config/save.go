package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Render serializes cfg into the commented flat config template.
func Render(cfg Config) string {
	var b strings.Builder
	w := func(format string, args ...any) { fmt.Fprintf(&b, format, args...) }

	w("===============================================\n")
	w("# mictoggle configuration\n")
	w("===============================================\n\n")

	w("# Lines starting with # are comments\n")
	w("# Boolean values: true/false, yes/no, 1/0, on/off\n\n")

	w("=== DEVICE SELECTION ===\n\n")
	w("# Use the system default microphone\n")
	w("%s = %s\n\n", keyUseDefaultDevice, formatBool(cfg.Device.UseDefault))
	w("# Exact device name (only used when use_default_device = false)\n")
	w("# Run `mictoggle devices --write` or use the tray menu to generate %s\n", filepath.Base(cfg.Files.DeviceList))
	w("%s = %s\n\n", keyDeviceName, cfg.Device.Name)

	w("=== HOTKEY CONFIGURATION ===\n\n")
	w("# Modifier keys, added together: Alt = 1, Control = 2, Shift = 4, Super = 8\n")
	w("#   Control+Shift = 6, Alt+Control = 3, Shift only = 4\n")
	w("%s = %d\n\n", keyHotkeyMod, cfg.Hotkey.Modifiers)
	w("# Main key (virtual key code)\n")
	w("#   F1 = 112 ... F12 = 123, A = 65 ... Z = 90, 0 = 48 ... 9 = 57\n")
	w("#   Space = 32, Enter = 13, Tab = 9\n")
	w("%s = %d\n\n", keyHotkeyVK, cfg.Hotkey.Key)
	w("# Minimum time between toggles in milliseconds (0-%d)\n", MaxToggleCooldownMS)
	w("%s = %d\n\n", keyToggleCooldown, cfg.Behavior.ToggleCooldownMS)
	w("# true: read keyboards directly (works under Wayland, needs input group access)\n")
	w("# false: register the hotkey with the X server\n")
	w("%s = %s\n\n", keyUseKeyboardHook, formatBool(cfg.Hotkey.UseKeyboardHook))

	w("=== SOUND SETTINGS ===\n\n")
	w("# Play a sound when muting/unmuting\n")
	w("%s = %s\n\n", keyPlaySounds, formatBool(cfg.Sound.Enable))
	w("# Cue volume (0-100, 0 = silent)\n")
	w("%s = %d\n\n", keySoundVolume, cfg.Sound.Volume)
	w("# WAV files; relative paths are resolved next to this file, empty disables the cue\n")
	w("%s = %s\n", keyMuteSoundFile, cfg.Sound.MuteFile)
	w("%s = %s\n\n", keyUnmuteSoundFile, cfg.Sound.UnmuteFile)

	w("=== BEHAVIOR SETTINGS ===\n\n")
	w("# Unmute the microphone when mictoggle exits\n")
	w("%s = %s\n\n", keyUnmuteOnExit, formatBool(cfg.Behavior.UnmuteOnExit))

	w("===============================================\n")
	w("# Default hotkey: Ctrl+Shift+F1\n")
	w("# Left-click the tray icon to toggle, right-click for the menu\n")
	w("# Use 'Reload Config' from the tray menu to apply changes\n")

	return b.String()
}

// Save writes cfg to path, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(Render(cfg)), 0o600); err != nil {
		return fmt.Errorf("write config %q: %w", path, err)
	}
	return nil
}

func formatBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
