// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import (
	"errors"
	"fmt"
	"testing"
)

// nmeaLine wraps payload in '$' and a correct checksum.
func nmeaLine(payload string) string {
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return fmt.Sprintf("$%s*%02X", payload, ck)
}

func TestValidate(t *testing.T) {
	tables := []struct {
		in       string
		ok       bool
		present  bool
		computed string
	}{
		{"$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47", true, true, "47"},
		{"$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A", true, true, "6A"},
		{"$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6a", true, true, "6A"},
		{"$GPGSA,A,3,04,05,,09,12,,,24,,,,,2.5,1.3,2.1*39", true, true, "39"},
		{"$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*48", false, true, "47"},
		{"$GPGGA,123519*", false, true, ""},
		{"$GPGGA,123519*4", false, true, ""},
		{"$GPGGA,123519,no,checksum", true, false, ""},
	}

	for _, table := range tables {
		v := Validate(table.in)
		if v.OK != table.ok || v.Present != table.present {
			t.Errorf("%q: ok=%v present=%v, want ok=%v present=%v", table.in, v.OK, v.Present, table.ok, table.present)
		}
		if table.computed != "" && v.Computed != table.computed {
			t.Errorf("%q: computed=%q want %q", table.in, v.Computed, table.computed)
		}
	}
}

// Flipping any single payload character must break the checksum.
func TestValidate_SingleCharacterFlip(t *testing.T) {
	good := nmeaLine("GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")
	for i := 1; i < len(good)-3; i++ {
		b := []byte(good)
		b[i] ^= 0x01
		if Validate(string(b)).OK {
			t.Fatalf("flip at %d not detected: %q", i, b)
		}
	}
}

func TestVerdictErr(t *testing.T) {
	line := "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*48"
	err := Validate(line).Err(line)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
	var ce *ChecksumError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ChecksumError")
	}
	if ce.Expected != "48" || ce.Computed != "47" {
		t.Fatalf("expected=%q computed=%q", ce.Expected, ce.Computed)
	}

	ok := nmeaLine("GPGSA,A,3,04,05,,09,12,,,24,,,,,2.5,1.3,2.1")
	if err := Validate(ok).Err(ok); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}
