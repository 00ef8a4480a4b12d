// Package cli parses mictoggle command-line arguments.
package cli

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

type Command string

const (
	CommandRun     Command = "run"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

// Device list output formats.
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// Parsed is the resolved invocation.
type Parsed struct {
	Command    Command
	ConfigPath string
	Watch      bool
	Format     string
	Write      bool
	ShowHelp   bool
}

// Parse resolves args into one command. No args means run.
func Parse(args []string) (Parsed, error) {
	var parsed Parsed
	root := newRoot("mictoggle", &parsed)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	if err := root.Execute(); err != nil {
		return Parsed{}, err
	}

	// cobra answers -h/--help and "help" itself without running a command.
	if parsed.Command == "" {
		parsed.Command = CommandHelp
		parsed.ShowHelp = true
	}
	return parsed, nil
}

// HelpText renders usage for binaryName.
func HelpText(binaryName string) string {
	var parsed Parsed
	root := newRoot(binaryName, &parsed)

	var b bytes.Buffer
	root.SetOut(&b)
	_ = root.Help()
	return b.String()
}

func newRoot(binaryName string, parsed *Parsed) *cobra.Command {
	var showVersion bool

	root := &cobra.Command{
		Use:   binaryName,
		Short: "Toggle the microphone mute from the tray or a global hotkey",
		Long: binaryName + ` keeps one capture device bound and flips its mute state from a
tray icon or a global hotkey. Running it without a command starts the tray.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if showVersion {
				parsed.Command = CommandVersion
				return nil
			}
			parsed.Command = CommandRun
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVar(&parsed.ConfigPath, "config", "",
		"Config file path (default: $XDG_CONFIG_HOME/mictoggle/mic_config.txt)")
	root.PersistentFlags().BoolVar(&parsed.Watch, "watch", false,
		"Reload automatically when the config file changes")
	root.Flags().BoolVar(&showVersion, "version", false, "Show version")

	root.AddCommand(&cobra.Command{
		Use:   string(CommandRun),
		Short: "Start the tray icon and hotkey (default)",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			parsed.Command = CommandRun
			return nil
		},
	})

	devices := &cobra.Command{
		Use:   string(CommandDevices),
		Short: "List capture devices",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			switch parsed.Format {
			case FormatText, FormatYAML:
			default:
				return fmt.Errorf("unsupported format %q (want %s)", parsed.Format, strings.Join([]string{FormatText, FormatYAML}, " or "))
			}
			parsed.Command = CommandDevices
			return nil
		},
	}
	devices.Flags().StringVar(&parsed.Format, "format", FormatText, "Output format: text or yaml")
	devices.Flags().BoolVar(&parsed.Write, "write", false, "Also regenerate the device list file beside the config")
	root.AddCommand(devices)

	root.AddCommand(&cobra.Command{
		Use:   string(CommandDoctor),
		Short: "Run configuration and environment checks",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			parsed.Command = CommandDoctor
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   string(CommandVersion),
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			parsed.Command = CommandVersion
			return nil
		},
	})

	return root
}
