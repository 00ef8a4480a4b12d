package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/rbright/mictoggle/internal/audio"
	"github.com/rbright/mictoggle/internal/cli"
	"github.com/rbright/mictoggle/internal/device"
)

// deviceRecord is the yaml shape of one capture endpoint.
type deviceRecord struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Default     bool   `yaml:"default"`
	Enabled     bool   `yaml:"enabled"`
}

func (r Runner) commandDevices(ctx context.Context, parsed cli.Parsed, logger *slog.Logger) int {
	dir, err := audio.NewDirectory(logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer dir.Close()

	endpoints := dir.ListCaptureDevices(ctx)

	if parsed.Write {
		loaded, ok := r.loadConfig(parsed, logger)
		if !ok {
			return 1
		}
		path := loaded.Config.Files.DeviceList
		if err := device.WriteReport(path, loaded.Path, endpoints); err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		fmt.Fprintf(r.Stderr, "wrote %s\n", path)
	}

	if err := writeDevices(r.Stdout, parsed.Format, endpoints); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(endpoints) == 0 {
		return 1
	}
	return 0
}

func writeDevices(w io.Writer, format string, endpoints []device.Endpoint) error {
	if format == cli.FormatYAML {
		records := make([]deviceRecord, 0, len(endpoints))
		for _, ep := range endpoints {
			records = append(records, deviceRecord(ep))
		}
		data, err := yaml.Marshal(records)
		if err != nil {
			return fmt.Errorf("encode devices: %w", err)
		}
		_, err = w.Write(data)
		return err
	}

	if len(endpoints) == 0 {
		fmt.Fprintln(w, "no capture devices found")
		return nil
	}
	for _, ep := range endpoints {
		defaultMark := " "
		if ep.Default {
			defaultMark = "*"
		}
		fmt.Fprintf(w, "%s name=%q | description=%q | id=%s\n", defaultMark, ep.Name, ep.Description, ep.ID)
	}
	return nil
}
