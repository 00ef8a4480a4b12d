package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	appDirName         = "mictoggle"
	configFileName     = "mic_config.txt"
	deviceListFileName = "available_devices.txt"
)

// ResolvePath applies CLI/XDG/home fallback rules for the config file location.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}

	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, appDirName, configFileName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}

	return filepath.Join(home, ".config", appDirName, configFileName), nil
}

// DeviceListPath places the device report beside the config file.
func DeviceListPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), deviceListFileName)
}

// ResolveSoundPath expands ~ and anchors relative sound paths at the config directory.
func (c Config) ResolveSoundPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if raw == "~" || strings.HasPrefix(raw, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return raw
		}
		return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(raw, "~"), "/"))
	}
	if filepath.IsAbs(raw) || c.Files.Config == "" {
		return raw
	}
	return filepath.Join(filepath.Dir(c.Files.Config), raw)
}
