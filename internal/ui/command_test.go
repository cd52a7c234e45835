package ui

import "testing"

func TestParseCommandValidInputs(t *testing.T) {
	cases := []struct {
		input string
		name  string
		args  int
	}{
		{"connect DLH123", "connect", 1},
		{"logon EDDF", "logon", 1},
		{"logoff", "logoff", 0},
		{"climb FL350", "climb", 1},
		{"climb FL350 due to turbulence", "climb", 4},
		{"descend FL240 weather", "descend", 2},
		{"telex EDDW position report follows", "telex", 4},
		{"pdc EDDF KJFK A359 V158 K", "pdc", 5},
		{"pdc V158 K", "pdc", 2},
		{"ack 3 WILCO", "ack", 2},
		{"  QUIT  ", "quit", 0},
	}

	for _, c := range cases {
		cmd, err := ParseCommand(c.input)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", c.input, err)
		}
		if cmd.Name != c.name {
			t.Fatalf("%q: expected name %q, got %q", c.input, c.name, cmd.Name)
		}
		if len(cmd.Args) != c.args {
			t.Fatalf("%q: expected %d args, got %d", c.input, c.args, len(cmd.Args))
		}
	}
}

func TestParseCommandRejectsBadInputs(t *testing.T) {
	for _, input := range []string{
		"",
		"   ",
		"teleport EDDF",
		"logon",
		"logon EDDF EDDM",
		"climb",
		"telex EDDW",
		"pdc EDDF KJFK A359",
		"ack x WILCO",
		"ack 3",
	} {
		if _, err := ParseCommand(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestAltitudeReason(t *testing.T) {
	alt, reason := AltitudeReason([]string{"FL350"})
	if alt != "FL350" || reason != "" {
		t.Fatalf("unexpected split: %q / %q", alt, reason)
	}

	alt, reason = AltitudeReason([]string{"FL240", "due", "to", "weather"})
	if alt != "FL240" || reason != "due to weather" {
		t.Fatalf("unexpected split: %q / %q", alt, reason)
	}
}
