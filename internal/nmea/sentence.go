// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import "strings"

// SentenceType is the closed set of sentence types this package decodes.
type SentenceType int

const (
	TypeUnsupported SentenceType = iota
	TypeGGA
	TypeRMC
	TypeGSA
)

// sentenceTypes maps the three-letter type code that follows the two-letter
// talker ID. Adding a type here and an extractor in decoders is the whole
// change needed to support it.
var sentenceTypes = map[string]SentenceType{
	"GGA": TypeGGA,
	"RMC": TypeRMC,
	"GSA": TypeGSA,
}

func (t SentenceType) String() string {
	switch t {
	case TypeGGA:
		return "GGA"
	case TypeRMC:
		return "RMC"
	case TypeGSA:
		return "GSA"
	default:
		return "Unsupported"
	}
}

// addressLen is the length of the talker+type address field, e.g. "GNGGA".
const addressLen = 5

// ParseType reads the five-character address after '$' and returns the
// talker ID ("GP", "GN", ...) with the mapped type. Talker IDs are not
// checked, so GPGGA and GNGGA are both TypeGGA. Proprietary sentences such as
// $PUBX never match a type code and come back TypeUnsupported.
func ParseType(sentence string) (talker string, t SentenceType) {
	if len(sentence) < 1+addressLen || sentence[0] != '$' {
		return "", TypeUnsupported
	}
	addr := sentence[1 : 1+addressLen]
	t, ok := sentenceTypes[strings.ToUpper(addr[2:])]
	if !ok {
		return addr[:2], TypeUnsupported
	}
	return addr[:2], t
}
