// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tables := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"123519", 12*time.Hour + 35*time.Minute + 19*time.Second, true},
		{"000000.50", 500 * time.Millisecond, true},
		{"235959.99", 23*time.Hour + 59*time.Minute + 59990*time.Millisecond, true},
		{"12351", 0, false},
		{"2a3519", 0, false},
		{"246000", 0, false},
		{"126100", 0, false},
		{"-10000", 0, false},
		{"+12351", 0, false},
		{"1200NaN", 0, false},
		{"12001e1", 0, false},
		{"1235Inf", 0, false},
		{"123519.", 0, false},
		{"123519.5e", 0, false},
		{"1235190", 0, false},
	}

	for _, table := range tables {
		got, err := ParseTimeOfDay(table.in)
		if (err == nil) != table.ok {
			t.Errorf("%q: err=%v", table.in, err)
			continue
		}
		if table.ok && (got-table.want > time.Millisecond || table.want-got > time.Millisecond) {
			t.Errorf("%q: got %v want %v", table.in, got, table.want)
		}
	}
}

func TestLocate(t *testing.T) {
	gga := GGA{Time: "010203", Latitude: 1, Longitude: 2, FixQuality: QualityGPS}
	pos, ok := gga.Locate()
	if !ok || !pos.HasTime || pos.TimeOfDay != time.Hour+2*time.Minute+3*time.Second {
		t.Fatalf("gga pos=%+v ok=%v", pos, ok)
	}

	if _, ok := (GGA{FixQuality: QualityNoFix}).Locate(); ok {
		t.Fatalf("no-fix GGA located")
	}
	if _, ok := (RMC{Status: StatusVoid}).Locate(); ok {
		t.Fatalf("void RMC located")
	}

	pos, ok = RMC{Status: StatusActive, Latitude: 3, Longitude: 4}.Locate()
	if !ok || pos.HasTime || pos.Latitude != 3 {
		t.Fatalf("rmc pos=%+v ok=%v", pos, ok)
	}

	loc := LocationFix{Mode: Fix3D, Latitude: 5, Longitude: 6, Time: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
	pos, ok = loc.Locate()
	if !ok || pos.TimeOfDay != 3*time.Hour+4*time.Minute+5*time.Second {
		t.Fatalf("location pos=%+v ok=%v", pos, ok)
	}
	if _, ok := (LocationFix{Mode: FixNone}).Locate(); ok {
		t.Fatalf("mode 1 location fix located")
	}
}

func TestRecordJSON(t *testing.T) {
	b, err := json.Marshal(GGA{FixQuality: QualityRTKFloat})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"fix_quality":"RTK Float"`) {
		t.Fatalf("json=%s", b)
	}

	var r RMC
	if err := json.Unmarshal([]byte(`{"status":"Active"}`), &r); err != nil || r.Status != StatusActive {
		t.Fatalf("r=%+v err=%v", r, err)
	}
}
