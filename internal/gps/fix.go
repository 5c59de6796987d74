// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind discriminates the decoded record variants.
type Kind int

const (
	KindGGA Kind = iota + 1
	KindRMC
	KindGSA
	KindLocation
)

var kindNames = map[Kind]string{
	KindGGA:      "GGA",
	KindRMC:      "RMC",
	KindGSA:      "GSA",
	KindLocation: "LOCATION",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown record kind %q", string(b))
}

// Record is one decoded fix record. The concrete type is one of GGA, RMC,
// GSA or LocationFix.
type Record interface {
	Kind() Kind
}

// Position is the location carried by a position-bearing record.
type Position struct {
	Latitude  float64 `json:"lat"` // decimal degrees, south negative
	Longitude float64 `json:"lon"` // decimal degrees, west negative

	// TimeOfDay is the receiver's UTC time since midnight, valid when HasTime.
	TimeOfDay time.Duration `json:"time_of_day_ns,omitempty"`
	HasTime   bool          `json:"has_time"`
}

// Locator is implemented by records that can carry a position. ok is false
// when this particular record does not hold a usable fix.
type Locator interface {
	Record
	Locate() (pos Position, ok bool)
}

// GGA is Global Positioning System Fix Data.
type GGA struct {
	Time       string     `json:"time"` // hhmmss.ss UTC
	Latitude   float64    `json:"lat"`
	Longitude  float64    `json:"lon"`
	FixQuality FixQuality `json:"fix_quality"`
	Satellites int        `json:"satellites"`
	HDOP       float64    `json:"hdop"`
	Altitude   float64    `json:"altitude_m"`
}

func (GGA) Kind() Kind { return KindGGA }

// Locate reports the GGA position unless the receiver has no fix.
func (g GGA) Locate() (Position, bool) {
	if g.FixQuality == QualityNoFix {
		return Position{}, false
	}
	return newPosition(g.Latitude, g.Longitude, g.Time), true
}

// Status is the RMC validity flag.
type Status int

const (
	StatusVoid Status = iota
	StatusActive
)

func (s Status) String() string {
	if s == StatusActive {
		return "Active"
	}
	return "Void"
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Active":
		*s = StatusActive
	case "Void":
		*s = StatusVoid
	default:
		return fmt.Errorf("unknown status %q", string(b))
	}
	return nil
}

// RMC is Recommended Minimum Specific GNSS Data.
type RMC struct {
	Time       string   `json:"time"`
	Status     Status   `json:"status"`
	Latitude   float64  `json:"lat"`
	Longitude  float64  `json:"lon"`
	SpeedKnots float64  `json:"speed_knots"`
	SpeedMS    float64  `json:"speed_mps"` // SpeedKnots converted, as reported by the receiver
	Course     *float64 `json:"course_deg,omitempty"`
	Date       string   `json:"date,omitempty"` // ddmmyy
}

func (RMC) Kind() Kind { return KindRMC }

// Locate reports the RMC position only for Active fixes.
func (r RMC) Locate() (Position, bool) {
	if r.Status != StatusActive {
		return Position{}, false
	}
	return newPosition(r.Latitude, r.Longitude, r.Time), true
}

// GSA is GNSS DOP and Active Satellites.
type GSA struct {
	Mode       string  `json:"mode"` // "A" automatic, "M" manual
	FixType    FixType `json:"fix_type"`
	Satellites []int   `json:"satellites"`
	PDOP       float64 `json:"pdop"`
	HDOP       float64 `json:"hdop"`
	VDOP       float64 `json:"vdop"`
	SystemID   int     `json:"system_id,omitempty"`
}

func (GSA) Kind() Kind { return KindGSA }

// LocationFix is a fix from the host location service rather than an NMEA
// device.
type LocationFix struct {
	Time      time.Time `json:"time"`
	Mode      FixType   `json:"mode"`
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lon"`
	Altitude  *float64  `json:"altitude_m,omitempty"`
	SpeedMS   *float64  `json:"speed_mps,omitempty"`
	Course    *float64  `json:"course_deg,omitempty"`
	AccuracyM *float64  `json:"accuracy_m,omitempty"`
}

func (LocationFix) Kind() Kind { return KindLocation }

func (l LocationFix) Locate() (Position, bool) {
	if l.Mode < Fix2D {
		return Position{}, false
	}
	pos := Position{Latitude: l.Latitude, Longitude: l.Longitude}
	if !l.Time.IsZero() {
		t := l.Time.UTC()
		pos.TimeOfDay = t.Sub(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
		pos.HasTime = true
	}
	return pos, true
}

func newPosition(lat, lon float64, hhmmss string) Position {
	pos := Position{Latitude: lat, Longitude: lon}
	if tod, err := ParseTimeOfDay(hhmmss); err == nil {
		pos.TimeOfDay = tod
		pos.HasTime = true
	}
	return pos
}

// ParseTimeOfDay parses an NMEA hhmmss[.sss] UTC time into the offset since
// midnight. Only plain ASCII digits are accepted.
func ParseTimeOfDay(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	whole, frac, hasFrac := strings.Cut(s, ".")
	if len(whole) != 6 || !allDigits(whole) || (hasFrac && (frac == "" || !allDigits(frac))) {
		return 0, fmt.Errorf("time %q: want hhmmss[.sss]", s)
	}
	hh, _ := strconv.Atoi(whole[0:2])
	mm, _ := strconv.Atoi(whole[2:4])
	ss, _ := strconv.Atoi(whole[4:6])
	if hh > 23 || mm > 59 || ss > 60 {
		return 0, fmt.Errorf("time %q: out of range", s)
	}
	var sub float64
	if hasFrac {
		sub, _ = strconv.ParseFloat("0."+frac, 64)
	}
	return time.Duration(hh)*time.Hour +
		time.Duration(mm)*time.Minute +
		time.Duration(ss)*time.Second +
		time.Duration(sub*float64(time.Second)), nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
