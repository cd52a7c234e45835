package ui

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is one parsed prompt input.
type Command struct {
	Name string
	Args []string
}

// Usage strings shown when a command is malformed.
var usage = map[string]string{
	"connect":    "connect <callsign>",
	"disconnect": "disconnect",
	"logon":      "logon <station>",
	"logoff":     "logoff",
	"climb":      "climb <altitude> [reason]",
	"descend":    "descend <altitude> [reason]",
	"telex":      "telex <recipient> <text>",
	"pdc":        "pdc <stand> <atis> (from SimBrief plan) | pdc <origin> <destination> <aircraft> <stand> <atis>",
	"ack":        "ack <id> <response>",
	"quit":       "quit",
}

// minimum and maximum argument counts per command; -1 means unbounded.
var arity = map[string][2]int{
	"connect":    {1, 1},
	"disconnect": {0, 0},
	"logon":      {1, 1},
	"logoff":     {0, 0},
	"climb":      {1, -1},
	"descend":    {1, -1},
	"telex":      {2, -1},
	"pdc":        {2, 5},
	"ack":        {2, 2},
	"quit":       {0, 0},
}

// ParseCommand splits a prompt line into a command and validates its shape.
func ParseCommand(input string) (Command, error) {
	fields := strings.Fields(strings.TrimSpace(input))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}

	name := strings.ToLower(fields[0])
	args := fields[1:]

	bounds, ok := arity[name]
	if !ok {
		return Command{}, fmt.Errorf("unknown command %q", name)
	}
	if len(args) < bounds[0] || (bounds[1] >= 0 && len(args) > bounds[1]) {
		return Command{}, fmt.Errorf("usage: %s", usage[name])
	}

	if name == "ack" {
		if _, err := strconv.Atoi(args[0]); err != nil {
			return Command{}, fmt.Errorf("usage: %s", usage["ack"])
		}
	}

	// pdc takes either the short SimBrief-prefilled form or all five fields.
	if name == "pdc" && len(args) != 2 && len(args) != 5 {
		return Command{}, fmt.Errorf("usage: %s", usage["pdc"])
	}

	return Command{Name: name, Args: args}, nil
}

// AltitudeReason splits a climb/descend argument list into the altitude and
// the optional free-text reason.
func AltitudeReason(args []string) (altitude, reason string) {
	altitude = args[0]
	if len(args) > 1 {
		reason = strings.Join(args[1:], " ")
	}
	return altitude, reason
}
