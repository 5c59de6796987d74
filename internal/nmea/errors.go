// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import (
	"errors"
	"fmt"
)

var (
	// ErrChecksumMismatch means the transmitted checksum does not match the
	// sentence payload.
	ErrChecksumMismatch = errors.New("nmea: checksum mismatch")

	// ErrMalformedField means a required field is missing or does not parse.
	ErrMalformedField = errors.New("nmea: malformed field")

	// ErrUnsupported means the sentence is valid but not one this package
	// decodes. Callers are expected to skip it silently.
	ErrUnsupported = errors.New("nmea: unsupported sentence")
)

// ChecksumError carries both checksums of a rejected sentence.
type ChecksumError struct {
	Sentence string
	Expected string // as transmitted
	Computed string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("nmea: checksum mismatch: expected %s, computed %s", e.Expected, e.Computed)
}

func (e *ChecksumError) Is(target error) bool { return target == ErrChecksumMismatch }

// FieldError reports the field that made a sentence undecodable.
type FieldError struct {
	Type  string // sentence type, e.g. "GGA"
	Index int    // comma-separated field index, 0 is the address field
	Name  string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("nmea: %s field %d (%s) %q is malformed", e.Type, e.Index, e.Name, e.Value)
	}
	return fmt.Sprintf("nmea: %s field %d (%s) %q: %v", e.Type, e.Index, e.Name, e.Value, e.Err)
}

func (e *FieldError) Is(target error) bool { return target == ErrMalformedField }

func (e *FieldError) Unwrap() error { return e.Err }
