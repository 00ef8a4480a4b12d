package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDefaultsHaveNoWarnings(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "volume high", mutate: func(c *Config) { c.Sound.Volume = 101 }, want: "sound_volume"},
		{name: "volume low", mutate: func(c *Config) { c.Sound.Volume = -1 }, want: "sound_volume"},
		{name: "cooldown high", mutate: func(c *Config) { c.Behavior.ToggleCooldownMS = MaxToggleCooldownMS + 1 }, want: "toggle_cooldown"},
		{name: "zero key", mutate: func(c *Config) { c.Hotkey.Key = 0 }, want: "hotkey_vk"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	cfg := Default()
	cfg.Hotkey.Modifiers = ModControl | 0x4000
	cfg.Device.Name = "Ignored Mic"

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	require.Contains(t, warnings[0].Message, "0x4000")
	require.Contains(t, warnings[1].Message, "device_name is ignored")

	cfg = Default()
	cfg.Device.UseDefault = false
	warnings, err = Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "device_name is empty")
}
