// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import (
	"strings"
	"testing"
)

func TestCommandString(t *testing.T) {
	tables := []struct {
		cmd      Command
		expected string
	}{
		{Command{Type: "PUBX", Data: []string{"00"}}, "$PUBX,00*33"},
		{Command{Type: "PUBX", Data: []string{"40", "GGA", "0", "10", "0", "0"}}, "$PUBX,40,GGA,0,10,0,0*6B"},
		{Command{Type: "PSTMGPSSUSPEND"}, "$PSTMGPSSUSPEND,*38"},
	}

	for _, table := range tables {
		if out := table.cmd.String(); out != table.expected {
			t.Errorf("%+v expected %q, got %q", table.cmd, table.expected, out)
		}
	}
}

func TestLookup(t *testing.T) {
	out, err := Lookup("request-all")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	lines := strings.Split(out, "\n")
	want := []string{"$PUBX,40,GGA,0,1,0,0*5B", "$PUBX,40,RMC,0,1,0,0*46", "$PUBX,40,GSA,0,1,0,0*4F"}
	if len(lines) != len(want) {
		t.Fatalf("lines=%q", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: %q want %q", i, lines[i], want[i])
		}
		if !Validate(lines[i]).OK {
			t.Errorf("line %d fails its own checksum", i)
		}
	}

	if _, err := Lookup("Set-Rate-10Hz"); err != nil {
		t.Fatalf("lookup should ignore case: %v", err)
	}
	if _, err := Lookup("warp-drive"); err == nil {
		t.Fatalf("expected unknown command error")
	}
	if len(CommandNames()) != len(Commands) {
		t.Fatalf("names=%v", CommandNames())
	}
}
