// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import (
	"math"
	"testing"
)

func TestToDecimal(t *testing.T) {
	tables := []struct {
		value string
		hemi  string
		axis  Axis
		want  float64
	}{
		{"4807.038", "N", Latitude, 48.1173},
		{"4807.038", "S", Latitude, -48.1173},
		{"01131.000", "E", Longitude, 11.516667},
		{"01131.000", "W", Longitude, -11.516667},
		{"0000.0000", "N", Latitude, 0},
		{"9000.0000", "N", Latitude, 90},
		{"18000.0000", "W", Longitude, -180},
		{"2837.4520", "n", Latitude, 28.624200},
	}

	for _, table := range tables {
		got, err := ToDecimal(table.value, table.hemi, table.axis)
		if err != nil {
			t.Errorf("%s %s: unexpected err: %v", table.value, table.hemi, err)
			continue
		}
		if math.Abs(got-table.want) > 1e-9 {
			t.Errorf("%s %s: got %v want %v", table.value, table.hemi, got, table.want)
		}
	}
}

func TestToDecimal_Rejects(t *testing.T) {
	tables := []struct {
		value string
		hemi  string
		axis  Axis
	}{
		{"", "N", Latitude},
		{"abc", "N", Latitude},
		{"4860.000", "N", Latitude},  // minutes >= 60
		{"9100.000", "N", Latitude},  // beyond the pole
		{"18100.000", "E", Longitude},
		{"4807.038", "E", Latitude},  // wrong hemisphere for axis
		{"01131.000", "N", Longitude},
		{"4807.038", "", Latitude},
		{"-4807.038", "N", Latitude},
		{"1e3", "N", Latitude},
		{"0x1p10", "N", Latitude},
		{"NaN", "N", Latitude},
		{"+4807.038", "N", Latitude},
		{"4807.03.8", "N", Latitude},
	}

	for _, table := range tables {
		if _, err := ToDecimal(table.value, table.hemi, table.axis); err == nil {
			t.Errorf("%q %q: expected error", table.value, table.hemi)
		}
	}
}
