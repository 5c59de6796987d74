// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import (
	"strings"

	gonmea "github.com/adrianmo/go-nmea"
)

// Verdict is the result of checking a sentence checksum.
type Verdict struct {
	// Present is false when the sentence has no '*' field. Such sentences
	// cannot be verified and are passed through with OK set.
	Present  bool
	OK       bool
	Expected string // transmitted value, upper-cased
	Computed string
}

// Validate XORs every byte between the leading '$' and the '*' and compares
// the result against the two hex digits that follow, ignoring case.
func Validate(sentence string) Verdict {
	star := strings.LastIndexByte(sentence, '*')
	if star < 0 {
		return Verdict{OK: true}
	}

	start := 0
	if strings.HasPrefix(sentence, "$") {
		start = 1
	}

	v := Verdict{
		Present:  true,
		Expected: strings.ToUpper(strings.TrimSpace(sentence[star+1:])),
		Computed: gonmea.Checksum(sentence[start:star]),
	}
	v.OK = len(v.Expected) == 2 && v.Expected == v.Computed
	return v
}

// Err returns a *ChecksumError for a failed verdict and nil otherwise.
func (v Verdict) Err(sentence string) error {
	if v.OK {
		return nil
	}
	return &ChecksumError{Sentence: sentence, Expected: v.Expected, Computed: v.Computed}
}

// payload returns the text between '$' and '*' (or the end of the line).
func payload(sentence string) string {
	s := strings.TrimPrefix(sentence, "$")
	if star := strings.LastIndexByte(s, '*'); star >= 0 {
		s = s[:star]
	}
	return s
}
