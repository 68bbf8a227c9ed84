// Package cli parses sayback command-line arguments.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandStart   Command = "start"
	CommandStop    Command = "stop"
	CommandSubmit  Command = "submit"
	CommandCancel  Command = "cancel"
	CommandPreview Command = "preview"
	CommandReplay  Command = "replay"
	CommandQuit    Command = "quit"
	CommandStatus  Command = "status"
	CommandShell   Command = "shell"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandStart:   {},
	CommandStop:    {},
	CommandSubmit:  {},
	CommandCancel:  {},
	CommandPreview: {},
	CommandReplay:  {},
	CommandQuit:    {},
	CommandStatus:  {},
	CommandShell:   {},
	CommandDevices: {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

// Trigger reports whether cmd is a session trigger handled by the owner process.
func (c Command) Trigger() bool {
	switch c {
	case CommandStart, CommandStop, CommandSubmit, CommandCancel, CommandPreview, CommandReplay, CommandQuit, CommandStatus:
		return true
	default:
		return false
	}
}

type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case arg == "-h" || arg == "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case arg == "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case arg == "--config":
			i++
			if i >= len(args) || strings.TrimSpace(args[i]) == "" {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		case strings.HasPrefix(arg, "--config="):
			path := strings.TrimPrefix(arg, "--config=")
			if strings.TrimSpace(path) == "" {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = path
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			if i != len(args)-1 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command>

Session commands:
  start     Start recording; becomes the session owner when none is running
  stop      Stop recording and keep the clip for preview or submit
  submit    Send the clip to the speech server and print the reply
  cancel    Discard the active recording
  preview   Play back the recorded clip
  replay    Play the reply audio again
  status    Print the current state and reply
  quit      Stop the session owner
  shell     Interactive session reading commands from stdin

Other commands:
  devices   List available input devices
  doctor    Run configuration and environment checks
  version   Print version information
  help      Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/sayback/config.jsonc)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
