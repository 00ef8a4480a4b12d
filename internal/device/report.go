package device

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RenderReport formats endpoints as the human-readable device list file.
func RenderReport(endpoints []Endpoint, configPath string) string {
	var b strings.Builder
	configName := filepath.Base(configPath)

	b.WriteString("=== AVAILABLE AUDIO INPUT DEVICES ===\n\n")
	b.WriteString("Copy the exact device name (including spaces and special characters) to your config file.\n")
	fmt.Fprintf(&b, "Use the 'device_name' setting in %s\n\n", configName)

	if len(endpoints) == 0 {
		b.WriteString("No active audio input devices found!\n")
		b.WriteString("Make sure your microphone is connected and enabled.\n")
		return b.String()
	}

	for i, ep := range endpoints {
		fmt.Fprintf(&b, "Device %d:\n", i+1)
		fmt.Fprintf(&b, "  Name: %s\n", ep.Name)
		fmt.Fprintf(&b, "  Description: %s\n", ep.Description)
		fmt.Fprintf(&b, "  ID: %s\n", ep.ID)
		fmt.Fprintf(&b, "  Status: %s\n", yesNo(ep.Enabled, "Active", "Inactive"))
		fmt.Fprintf(&b, "  Default: %s\n\n", yesNo(ep.Default, "Yes", "No"))
		if ep.Default {
			b.WriteString("  *** This is your system's default microphone ***\n\n")
		}
	}

	b.WriteString("=== CONFIGURATION INSTRUCTIONS ===\n\n")
	b.WriteString("To use a specific device:\n")
	fmt.Fprintf(&b, "1. Open %s\n", configName)
	b.WriteString("2. Set 'use_default_device = false'\n")
	b.WriteString("3. Set 'device_name = [exact device name from above]'\n\n")
	b.WriteString("Example:\n")
	b.WriteString("use_default_device = false\n")
	fmt.Fprintf(&b, "device_name = %s\n", endpoints[0].Name)

	return b.String()
}

// WriteReport renders endpoints and replaces the file at path.
func WriteReport(path string, configPath string, endpoints []Endpoint) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create device list dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(RenderReport(endpoints, configPath)), 0o600); err != nil {
		return fmt.Errorf("write device list %q: %w", path, err)
	}
	return nil
}

func yesNo(v bool, yes string, no string) string {
	if v {
		return yes
	}
	return no
}
