// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import (
	"fmt"
	"strings"

	"github.com/relabs-tech/gnss_tracker/internal/geo"
	"github.com/relabs-tech/gnss_tracker/internal/gps"
)

// UnknownDOP is what receivers report for a dilution of precision they
// cannot compute. Decoders use it when a no-fix GGA leaves HDOP empty.
const UnknownDOP = 99.99

// Minimum field counts, including the address field.
const (
	ggaFields = 12
	rmcFields = 9
	gsaFields = 18
)

type extractor func(f *fieldParser) gps.Record

// decoders has one entry per SentenceType other than TypeUnsupported.
var decoders = map[SentenceType]extractor{
	TypeGGA: decodeGGA,
	TypeRMC: decodeRMC,
	TypeGSA: decodeGSA,
}

// Decoder turns framed sentences into fix records.
type Decoder struct {
	// Lenient decodes sentences whose checksum does not match. The record
	// is still returned together with the *ChecksumError so the mismatch can
	// be reported.
	Lenient bool
}

// Decode validates the checksum of sentence and dispatches on its type.
//
// Errors wrap ErrUnsupported (skip silently), ErrChecksumMismatch or
// ErrMalformedField. A malformed sentence never yields a partial record.
func (d Decoder) Decode(sentence string) (gps.Record, error) {
	if !strings.HasPrefix(sentence, "$") {
		return nil, fmt.Errorf("%w: no start marker", ErrUnsupported)
	}

	verdict := Validate(sentence)
	csErr := verdict.Err(sentence)
	if csErr != nil && !d.Lenient {
		return nil, csErr
	}

	_, typ := ParseType(sentence)
	extract, ok := decoders[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, address(sentence))
	}

	p := &fieldParser{typ: typ.String(), fields: strings.Split(payload(sentence), ",")}
	rec := extract(p)
	if p.err != nil {
		return nil, p.err
	}
	return rec, csErr
}

// Decode decodes one sentence with strict checksum handling.
func Decode(sentence string) (gps.Record, error) {
	return Decoder{}.Decode(sentence)
}

func address(sentence string) string {
	s := payload(sentence)
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	return s
}

// GGA: 1 time, 2-3 latitude, 4-5 longitude, 6 quality, 7 satellites,
// 8 HDOP, 9 altitude (m). Position and altitude may be empty on a no-fix
// sentence.
func decodeGGA(p *fieldParser) gps.Record {
	if !p.require(ggaFields) {
		return nil
	}
	g := gps.GGA{Time: p.time(1)}
	g.FixQuality = gps.FixQualityFromCode(p.int(6, "fix quality"))
	g.Satellites = p.int(7, "satellites")

	if g.FixQuality == gps.QualityNoFix {
		g.Latitude, g.Longitude = p.optCoords(2)
		g.HDOP = p.optFloat(8, "hdop", UnknownDOP)
		g.Altitude = p.optFloat(9, "altitude", 0)
	} else {
		g.Latitude = p.coord(2, Latitude)
		g.Longitude = p.coord(4, Longitude)
		g.HDOP = p.float(8, "hdop")
		g.Altitude = p.float(9, "altitude")
	}
	return g
}

// RMC: 1 time, 2 status, 3-4 latitude, 5-6 longitude, 7 speed (knots),
// 8 course, 9 date. A void fix may leave position and speed empty.
func decodeRMC(p *fieldParser) gps.Record {
	if !p.require(rmcFields) {
		return nil
	}
	r := gps.RMC{Time: p.time(1)}
	switch p.str(2) {
	case "A":
		r.Status = gps.StatusActive
	case "V":
		r.Status = gps.StatusVoid
	default:
		p.fail(2, "status", nil)
		return nil
	}

	if r.Status == gps.StatusActive {
		r.Latitude = p.coord(3, Latitude)
		r.Longitude = p.coord(5, Longitude)
		r.SpeedKnots = p.float(7, "speed")
	} else {
		r.Latitude, r.Longitude = p.optCoords(3)
		r.SpeedKnots = p.optFloat(7, "speed", 0)
	}
	r.SpeedMS = r.SpeedKnots * geo.KnotsToMS

	if p.str(8) != "" {
		course := p.float(8, "course")
		r.Course = &course
	}
	r.Date = p.str(9)
	return r
}

// GSA: 1 mode, 2 fix type, 3-14 satellite IDs, 15 PDOP, 16 HDOP, 17 VDOP,
// 18 system ID (NMEA 4.1, optional).
func decodeGSA(p *fieldParser) gps.Record {
	if !p.require(gsaFields) {
		return nil
	}
	g := gps.GSA{Mode: p.str(1)}
	code := p.int(2, "fix type")
	ft, ok := gps.FixTypeFromCode(code)
	if p.err == nil && !ok {
		p.fail(2, "fix type", nil)
		return nil
	}
	g.FixType = ft

	g.Satellites = []int{}
	for i := 3; i <= 14; i++ {
		if p.str(i) == "" {
			continue
		}
		g.Satellites = append(g.Satellites, p.int(i, "satellite id"))
	}

	g.PDOP = p.float(15, "pdop")
	g.HDOP = p.float(16, "hdop")
	g.VDOP = p.float(17, "vdop")
	if p.str(18) != "" {
		g.SystemID = p.int(18, "system id")
	}
	return g
}
