package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.True(t, parsed.ShowHelp)
	require.Equal(t, CommandHelp, parsed.Command)
}

func TestParseCommandWithConfig(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/sayback.jsonc", "doctor"})
	require.NoError(t, err)
	require.Equal(t, CommandDoctor, parsed.Command)
	require.Equal(t, "/tmp/sayback.jsonc", parsed.ConfigPath)
	require.False(t, parsed.ShowHelp)
}

func TestParseArgMatrix(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantErr  string
		wantCmd  Command
		wantHelp bool
		wantPath string
	}{
		{name: "help short flag", args: []string{"-h"}, wantCmd: CommandHelp, wantHelp: true},
		{name: "help long flag", args: []string{"--help"}, wantCmd: CommandHelp, wantHelp: true},
		{name: "version flag", args: []string{"--version"}, wantCmd: CommandVersion},
		{name: "config after command", args: []string{"status", "--config", "/tmp/cfg"}, wantErr: "unexpected arguments after command"},
		{name: "missing config path", args: []string{"--config"}, wantErr: "requires a path"},
		{name: "empty config equals", args: []string{"--config=", "start"}, wantErr: "requires a path"},
		{name: "unknown flag", args: []string{"--bogus"}, wantErr: "unknown flag"},
		{name: "unknown command", args: []string{"toggle"}, wantErr: "unknown command"},
		{name: "extra args after command", args: []string{"doctor", "extra"}, wantErr: "unexpected arguments"},
		{name: "submit", args: []string{"submit"}, wantCmd: CommandSubmit},
		{name: "shell", args: []string{"shell"}, wantCmd: CommandShell},
		{name: "stop with config", args: []string{"--config", "/tmp/cfg", "stop"}, wantCmd: CommandStop, wantPath: "/tmp/cfg"},
		{name: "config equals form", args: []string{"--config=/tmp/cfg", "replay"}, wantCmd: CommandReplay, wantPath: "/tmp/cfg"},
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
		})
	}
}

func TestCommandTrigger(t *testing.T) {
	for _, cmd := range []Command{CommandStart, CommandStop, CommandSubmit, CommandCancel, CommandPreview, CommandReplay, CommandQuit, CommandStatus} {
		require.True(t, cmd.Trigger(), cmd)
	}
	for _, cmd := range []Command{CommandShell, CommandDevices, CommandDoctor, CommandVersion, CommandHelp} {
		require.False(t, cmd.Trigger(), cmd)
	}
}

func TestHelpTextIncludesCoreCommands(t *testing.T) {
	text := HelpText("sayback")
	for _, want := range []string{"start", "stop", "submit", "cancel", "preview", "replay", "shell", "doctor", "--config PATH"} {
		require.Contains(t, text, want)
	}
}
