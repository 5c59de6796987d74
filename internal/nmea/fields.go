// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import (
	"errors"
	"strconv"
	"strings"

	"github.com/relabs-tech/gnss_tracker/internal/gps"
)

var errNotDecimal = errors.New("not a plain decimal number")

// isDecimal reports whether s is ASCII digits with at most one decimal point
// and, when signed, an optional leading minus. It rules out the exponents,
// hex floats, NaN and Inf that strconv would otherwise accept.
func isDecimal(s string, signed bool) bool {
	if signed && strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	digits, dot := 0, false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}

// fieldParser reads comma-separated fields and remembers the first failure.
// After a failure every accessor returns zero values, so extractors can read
// all fields and check err once.
type fieldParser struct {
	typ    string
	fields []string
	err    error
}

func (p *fieldParser) fail(i int, name string, err error) {
	if p.err != nil {
		return
	}
	p.err = &FieldError{Type: p.typ, Index: i, Name: name, Value: p.str(i), Err: err}
}

func (p *fieldParser) require(n int) bool {
	if len(p.fields) < n {
		p.err = &FieldError{
			Type:  p.typ,
			Index: len(p.fields),
			Name:  "field count",
			Err:   errors.New("need " + strconv.Itoa(n) + " fields, have " + strconv.Itoa(len(p.fields))),
		}
		return false
	}
	return true
}

// str returns the trimmed field, or "" when it does not exist.
func (p *fieldParser) str(i int) string {
	if i < 0 || i >= len(p.fields) {
		return ""
	}
	return strings.TrimSpace(p.fields[i])
}

func (p *fieldParser) float(i int, name string) float64 {
	if p.err != nil {
		return 0
	}
	s := p.str(i)
	if s == "" {
		p.fail(i, name, errors.New("missing"))
		return 0
	}
	if !isDecimal(s, true) {
		p.fail(i, name, errNotDecimal)
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.fail(i, name, err)
		return 0
	}
	return v
}

// optFloat returns def for an empty field; a non-empty field must parse.
func (p *fieldParser) optFloat(i int, name string, def float64) float64 {
	if p.err != nil || p.str(i) == "" {
		return def
	}
	return p.float(i, name)
}

func (p *fieldParser) int(i int, name string) int {
	if p.err != nil {
		return 0
	}
	s := p.str(i)
	if s == "" {
		p.fail(i, name, errors.New("missing"))
		return 0
	}
	if !isDecimal(s, false) || strings.Contains(s, ".") {
		p.fail(i, name, errNotDecimal)
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		p.fail(i, name, err)
		return 0
	}
	return v
}

// coord reads a value/hemisphere pair starting at field i.
func (p *fieldParser) coord(i int, axis Axis) float64 {
	if p.err != nil {
		return 0
	}
	name := "latitude"
	if axis == Longitude {
		name = "longitude"
	}
	v, err := ToDecimal(p.str(i), p.str(i+1), axis)
	if err != nil {
		p.fail(i, name, err)
		return 0
	}
	return v
}

// optCoords reads latitude at i and longitude at i+2, allowing both to be
// empty.
func (p *fieldParser) optCoords(i int) (lat, lon float64) {
	if p.str(i) == "" && p.str(i+2) == "" {
		return 0, 0
	}
	return p.coord(i, Latitude), p.coord(i+2, Longitude)
}

// time returns the raw hhmmss.ss field after checking that it parses. An
// empty time is allowed.
func (p *fieldParser) time(i int) string {
	s := p.str(i)
	if p.err != nil || s == "" {
		return s
	}
	if _, err := gps.ParseTimeOfDay(s); err != nil {
		p.fail(i, "time", err)
		return ""
	}
	return s
}
