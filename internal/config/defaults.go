package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Device: DeviceConfig{
			UseDefault: true,
			Name:       "",
		},
		Hotkey: HotkeyConfig{
			Modifiers:       ModControl | ModShift,
			Key:             112, // F1
			UseKeyboardHook: true,
		},
		Sound: SoundConfig{
			Enable:     true,
			Volume:     50,
			MuteFile:   "mute.wav",
			UnmuteFile: "unmute.wav",
		},
		Behavior: BehaviorConfig{
			ToggleCooldownMS: 1000,
			UnmuteOnExit:     true,
		},
	}
}
