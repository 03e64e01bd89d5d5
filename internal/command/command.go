package command

import "strings"

const (
	Unknown Command = iota
	TakeOff
	Land
	ReturnHome
	GoTo
	Quit
)

// Command is one operator command.
type Command int

var commandNames = map[Command]string{
	Unknown:    "unknown",
	TakeOff:    "takeoff",
	Land:       "land",
	ReturnHome: "returnHome",
	GoTo:       "goTo",
	Quit:       "quit",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return commandNames[Unknown]
}

// label is the operator-facing name used in status lines.
func (c Command) label() string {
	switch c {
	case TakeOff:
		return "Take-off"
	case Land:
		return "Land"
	case ReturnHome:
		return "Return home"
	case GoTo:
		return "GoTo"
	case Quit:
		return "Quit"
	default:
		return "Command"
	}
}

// Parse maps a command token (a single-character key token or a full command name) to a
// Command. Anything else is Unknown.
func Parse(token string) Command {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "t", "takeoff":
		return TakeOff
	case "l", "land":
		return Land
	case "r", "h", "returnhome", "rtl":
		return ReturnHome
	case "g", "goto":
		return GoTo
	case "q", "quit":
		return Quit
	default:
		return Unknown
	}
}
