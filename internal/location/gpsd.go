// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package location reads the host's own position service (gpsd) so it can
// run as a session next to an external receiver.
package location

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/relabs-tech/gnss_tracker/internal/gps"
	"github.com/relabs-tech/gnss_tracker/internal/nmea"
	"github.com/relabs-tech/gnss_tracker/internal/transport"
)

// DefaultAddr is where gpsd listens by default.
const DefaultAddr = "127.0.0.1:2947"

// watchRequest turns on JSON reports in SI units.
const watchRequest = "?WATCH={\"enable\":true,\"json\":true,\"scaled\":true}\n"

// NewTransport returns a TCP transport that enables gpsd's JSON watch mode
// as soon as it connects.
func NewTransport(addr string) *transport.TCP {
	if strings.TrimSpace(addr) == "" {
		addr = DefaultAddr
	}
	t := transport.NewTCP(addr)
	t.OnOpen = func(conn net.Conn) error {
		_, err := conn.Write([]byte(watchRequest))
		return err
	}
	return t
}

type report struct {
	Class string `json:"class"`
}

type tpv struct {
	Class  string   `json:"class"`
	Mode   *int     `json:"mode"`
	Time   string   `json:"time"`
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	Alt    *float64 `json:"alt"`
	AltMSL *float64 `json:"altMSL"`
	Speed  *float64 `json:"speed"` // m/s with scaled=true
	Track  *float64 `json:"track"`
	Eph    *float64 `json:"eph"` // meters
}

// Decoder turns gpsd JSON reports into gps.LocationFix records. Only TPV
// reports carry a position; every other class is unsupported.
type Decoder struct{}

func (Decoder) Decode(line string) (gps.Record, error) {
	var base report
	if err := json.Unmarshal([]byte(line), &base); err != nil {
		return nil, fmt.Errorf("%w: gpsd json: %v", nmea.ErrMalformedField, err)
	}
	if !strings.EqualFold(strings.TrimSpace(base.Class), "TPV") {
		return nil, fmt.Errorf("%w: gpsd class %q", nmea.ErrUnsupported, base.Class)
	}

	var r tpv
	if err := json.Unmarshal([]byte(line), &r); err != nil {
		return nil, fmt.Errorf("%w: gpsd tpv: %v", nmea.ErrMalformedField, err)
	}
	fix := gps.LocationFix{SpeedMS: r.Speed, Course: r.Track, AccuracyM: r.Eph}
	if r.Mode != nil {
		if mode, ok := gps.FixTypeFromCode(*r.Mode); ok {
			fix.Mode = mode
		}
	}
	if r.Time != "" {
		t, err := time.Parse(time.RFC3339Nano, r.Time)
		if err != nil {
			return nil, fmt.Errorf("%w: gpsd time %q: %v", nmea.ErrMalformedField, r.Time, err)
		}
		fix.Time = t.UTC()
	}
	fix.Altitude = r.AltMSL
	if fix.Altitude == nil {
		fix.Altitude = r.Alt
	}

	if fix.Mode >= gps.Fix2D {
		if r.Lat == nil || r.Lon == nil {
			return nil, fmt.Errorf("%w: gpsd tpv mode %d without position", nmea.ErrMalformedField, fix.Mode)
		}
		if *r.Lat < -90 || *r.Lat > 90 || *r.Lon < -180 || *r.Lon > 180 {
			return nil, fmt.Errorf("%w: gpsd position %v,%v out of range", nmea.ErrMalformedField, *r.Lat, *r.Lon)
		}
		fix.Latitude, fix.Longitude = *r.Lat, *r.Lon
	}
	return fix, nil
}
