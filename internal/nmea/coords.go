// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Axis selects which hemisphere letters and range apply to a coordinate.
type Axis int

const (
	Latitude Axis = iota
	Longitude
)

// ToDecimal converts an NMEA ddmm.mmmm (latitude) or dddmm.mmmm (longitude)
// value plus hemisphere letter into signed decimal degrees rounded to six
// places (about 0.11 m):
//
//	degrees = floor(value/100)
//	minutes = value - degrees*100
//	decimal = degrees + minutes/60, negated for S and W
func ToDecimal(value, hemisphere string, axis Axis) (float64, error) {
	value = strings.TrimSpace(value)
	hemisphere = strings.ToUpper(strings.TrimSpace(hemisphere))
	if value == "" {
		return 0, fmt.Errorf("empty coordinate")
	}

	if !isDecimal(value, false) {
		return 0, fmt.Errorf("coordinate %q: %w", value, errNotDecimal)
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("coordinate out of range")
	}

	degrees := math.Floor(v / 100)
	minutes := v - degrees*100
	if minutes >= 60 {
		return 0, fmt.Errorf("minutes %.4f out of range", minutes)
	}
	dec := degrees + minutes/60

	limit := 90.0
	neg, pos := "S", "N"
	if axis == Longitude {
		limit = 180.0
		neg, pos = "W", "E"
	}
	switch hemisphere {
	case neg:
		dec = -dec
	case pos:
	default:
		return 0, fmt.Errorf("hemisphere %q", hemisphere)
	}
	if math.Abs(dec) > limit {
		return 0, fmt.Errorf("%.6f outside ±%.0f", dec, limit)
	}
	return math.Round(dec*1e6) / 1e6, nil
}
