// internal/bridge/command.go
package bridge

import "strings"

// Kind tags a decoded command.
type Kind uint8

const (
	CmdUnknown Kind = iota
	CmdStep
	CmdGetState
	CmdReset
	CmdPing

	// Legacy simple-control verbs. These bypass the scheduler and drive the
	// keypad directly; they coexist with STEP (known inconsistency carried
	// over from the original protocol).
	CmdPress
	CmdRelease
	CmdClear
	CmdGetPos
)

// Command is one decoded protocol line. Malformed or unrecognized input
// decodes to CmdUnknown rather than failing; the session drops it silently.
type Command struct {
	Kind Kind
	Arg  string
}

// Decode parses a newline-delimited command into (verb, argument) by
// splitting on the first colon. Verbs are case-sensitive; surrounding
// whitespace is stripped first.
func Decode(line string) Command {
	line = strings.TrimSpace(line)
	verb, arg, _ := strings.Cut(line, ":")

	switch verb {
	case "STEP":
		if arg == "" {
			return Command{Kind: CmdUnknown}
		}
		return Command{Kind: CmdStep, Arg: arg}
	case "GETSTATE":
		return Command{Kind: CmdGetState}
	case "RESET":
		return Command{Kind: CmdReset}
	case "PING":
		return Command{Kind: CmdPing}
	case "PRESS":
		if arg == "" {
			return Command{Kind: CmdUnknown}
		}
		return Command{Kind: CmdPress, Arg: arg}
	case "RELEASE":
		if arg == "" {
			return Command{Kind: CmdUnknown}
		}
		return Command{Kind: CmdRelease, Arg: arg}
	case "CLEAR":
		return Command{Kind: CmdClear}
	case "GETPOS":
		return Command{Kind: CmdGetPos}
	}
	return Command{Kind: CmdUnknown}
}
