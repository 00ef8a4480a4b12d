package config

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	keyUseDefaultDevice = "use_default_device"
	keyDeviceName       = "device_name"
	keyHotkeyMod        = "hotkey_mod"
	keyHotkeyVK         = "hotkey_vk"
	keyToggleCooldown   = "toggle_cooldown"
	keyUseKeyboardHook  = "use_keyboard_hook"
	keyPlaySounds       = "play_sounds"
	keySoundVolume      = "sound_volume"
	keyMuteSoundFile    = "mute_sound_file"
	keyUnmuteSoundFile  = "unmute_sound_file"
	keyUnmuteOnExit     = "unmute_on_exit"
)

type applyFunc func(cfg *Config, value string) error

// knownKeys is applied in this order so the result does not depend on file order.
var knownKeys = []string{
	keyHotkeyMod,
	keyHotkeyVK,
	keyToggleCooldown,
	keyUseKeyboardHook,
	keyPlaySounds,
	keyUnmuteOnExit,
	keyUseDefaultDevice,
	keySoundVolume,
	keyDeviceName,
	keyMuteSoundFile,
	keyUnmuteSoundFile,
}

var appliers = map[string]applyFunc{
	keyHotkeyMod: func(cfg *Config, v string) error {
		n, err := parseUint(v)
		cfg.Hotkey.Modifiers = n
		return err
	},
	keyHotkeyVK: func(cfg *Config, v string) error {
		n, err := parseUint(v)
		cfg.Hotkey.Key = n
		return err
	},
	keyToggleCooldown: func(cfg *Config, v string) error {
		n, err := parseClamped(v, MinToggleCooldownMS, MaxToggleCooldownMS)
		cfg.Behavior.ToggleCooldownMS = n
		return err
	},
	keyUseKeyboardHook: func(cfg *Config, v string) error {
		cfg.Hotkey.UseKeyboardHook = parseBool(v)
		return nil
	},
	keyPlaySounds: func(cfg *Config, v string) error {
		cfg.Sound.Enable = parseBool(v)
		return nil
	},
	keyUnmuteOnExit: func(cfg *Config, v string) error {
		cfg.Behavior.UnmuteOnExit = parseBool(v)
		return nil
	},
	keyUseDefaultDevice: func(cfg *Config, v string) error {
		cfg.Device.UseDefault = parseBool(v)
		return nil
	},
	keySoundVolume: func(cfg *Config, v string) error {
		n, err := parseClamped(v, MinSoundVolume, MaxSoundVolume)
		cfg.Sound.Volume = n
		return err
	},
	keyDeviceName: func(cfg *Config, v string) error {
		cfg.Device.Name = v
		return nil
	},
	keyMuteSoundFile: func(cfg *Config, v string) error {
		cfg.Sound.MuteFile = v
		return nil
	},
	keyUnmuteSoundFile: func(cfg *Config, v string) error {
		cfg.Sound.UnmuteFile = v
		return nil
	},
}

// ParseError reports the first malformed value in a config file.
type ParseError struct {
	Line  int
	Key   string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s = %q: %v", e.Line, e.Key, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type setting struct {
	value string
	line  int
}

// Parse reads flat `key = value` content on top of base.
//
// Empty lines and lines starting with `#` or `=` are ignored, as are lines
// without `=`. The last occurrence of a key wins. Any malformed numeric
// value fails the whole parse so callers can fall back to defaults.
func Parse(content string, base Config) (Config, []Warning, error) {
	settings, warnings := scanSettings(content)

	cfg := base
	for _, key := range knownKeys {
		s, ok := settings[key]
		if !ok {
			continue
		}
		if err := appliers[key](&cfg, s.value); err != nil {
			return Config{}, warnings, &ParseError{Line: s.line, Key: key, Value: s.value, Err: err}
		}
	}

	return cfg, warnings, nil
}

// scanSettings tokenizes content into key/value pairs and flags unknown keys.
func scanSettings(content string) (map[string]setting, []Warning) {
	settings := make(map[string]setting)
	var warnings []Warning

	scanner := bufio.NewScanner(strings.NewReader(content))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == '=' {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if _, known := appliers[key]; !known {
			warnings = append(warnings, Warning{Line: lineNo, Message: fmt.Sprintf("unknown key %q ignored", key)})
			continue
		}
		settings[key] = setting{value: value, line: lineNo}
	}

	return settings, warnings
}

func parseBool(raw string) bool {
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseUint(raw string) (uint32, error) {
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, errors.New("expected unsigned integer")
	}
	return uint32(n), nil
}

func parseClamped(raw string, lo int, hi int) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("expected integer")
	}
	return max(lo, min(hi, n)), nil
}
