package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToRun(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.False(t, parsed.ShowHelp)
	require.Equal(t, CommandRun, parsed.Command)
}

func TestParseCommandWithConfig(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/mic_config.txt", "doctor"})
	require.NoError(t, err)
	require.Equal(t, CommandDoctor, parsed.Command)
	require.Equal(t, "/tmp/mic_config.txt", parsed.ConfigPath)
}

func TestParseArgMatrix(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantErr    string
		wantCmd    Command
		wantHelp   bool
		wantPath   string
		wantWatch  bool
		wantFormat string
		wantWrite  bool
	}{
		{
			name:     "help short flag",
			args:     []string{"-h"},
			wantCmd:  CommandHelp,
			wantHelp: true,
		},
		{
			name:     "help long flag",
			args:     []string{"--help"},
			wantCmd:  CommandHelp,
			wantHelp: true,
		},
		{
			name:     "help command",
			args:     []string{"help"},
			wantCmd:  CommandHelp,
			wantHelp: true,
		},
		{
			name:    "version flag",
			args:    []string{"--version"},
			wantCmd: CommandVersion,
		},
		{
			name:    "version command",
			args:    []string{"version"},
			wantCmd: CommandVersion,
		},
		{
			name:      "run with watch",
			args:      []string{"run", "--watch"},
			wantCmd:   CommandRun,
			wantWatch: true,
		},
		{
			name:     "config after command",
			args:     []string{"run", "--config", "/tmp/cfg"},
			wantCmd:  CommandRun,
			wantPath: "/tmp/cfg",
		},
		{
			name:       "devices defaults to text",
			args:       []string{"devices"},
			wantCmd:    CommandDevices,
			wantFormat: FormatText,
		},
		{
			name:       "devices yaml and write",
			args:       []string{"devices", "--format", "yaml", "--write"},
			wantCmd:    CommandDevices,
			wantFormat: FormatYAML,
			wantWrite:  true,
		},
		{
			name:    "devices bad format",
			args:    []string{"devices", "--format", "json"},
			wantErr: "unsupported format",
		},
		{
			name:    "missing config path",
			args:    []string{"--config"},
			wantErr: "needs an argument",
		},
		{
			name:    "unknown flag",
			args:    []string{"--bogus"},
			wantErr: "unknown flag",
		},
		{
			name:    "unknown command",
			args:    []string{"bogus"},
			wantErr: "unknown command",
		},
		{
			name:    "extra args after command",
			args:    []string{"doctor", "extra"},
			wantErr: "unknown command",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := Parse(tc.args)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.wantCmd, parsed.Command)
			require.Equal(t, tc.wantHelp, parsed.ShowHelp)
			require.Equal(t, tc.wantPath, parsed.ConfigPath)
			require.Equal(t, tc.wantWatch, parsed.Watch)
			require.Equal(t, tc.wantWrite, parsed.Write)
			if tc.wantFormat != "" {
				require.Equal(t, tc.wantFormat, parsed.Format)
			}
		})
	}
}

func TestHelpTextListsCommands(t *testing.T) {
	text := HelpText("mictoggle")
	require.Contains(t, text, "Usage:")
	for _, want := range []string{"run", "devices", "doctor", "version", "--config", "--watch"} {
		require.Contains(t, text, want)
	}
}
