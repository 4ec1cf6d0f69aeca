package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandOpen       Command = "open"
	CommandScan       Command = "scan"
	CommandCancel     Command = "cancel"
	CommandAsk        Command = "ask"
	CommandClear      Command = "clear"
	CommandTranscript Command = "transcript"
	CommandStatus     Command = "status"
	CommandClose      Command = "close"
	CommandDevices    Command = "devices"
	CommandDoctor     Command = "doctor"
	CommandVersion    Command = "version"
	CommandHelp       Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandOpen:       {},
	CommandScan:       {},
	CommandCancel:     {},
	CommandAsk:        {},
	CommandClear:      {},
	CommandTranscript: {},
	CommandStatus:     {},
	CommandClose:      {},
	CommandDevices:    {},
	CommandDoctor:     {},
	CommandVersion:    {},
	CommandHelp:       {},
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

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
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

Commands:
  open        Open a camera session and serve scan/answer commands
  scan        Capture the current frame and extract its text
  cancel      Abandon the in-flight scan
  ask         Submit the accumulated transcript and print the answer
  clear       Discard the accumulated transcript
  transcript  Print the accumulated transcript, one snippet per line
  status      Print scan and answer coordinator states
  close       Shut down the active session
  devices     List available camera devices
  doctor      Run configuration and environment checks
  version     Print version information
  help        Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/glance/config.yaml)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
