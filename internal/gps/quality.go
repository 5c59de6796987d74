// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import "fmt"

// FixQuality is the GGA fix quality indicator.
type FixQuality int

const (
	QualityNoFix FixQuality = iota
	QualityGPS
	QualityDGPS
	QualityPPS
	QualityRTKFixed
	QualityRTKFloat
	QualityEstimated
	QualityUnknown
)

var qualityNames = []string{
	QualityNoFix:     "No Fix",
	QualityGPS:       "GPS Fix",
	QualityDGPS:      "DGPS Fix",
	QualityPPS:       "PPS Fix",
	QualityRTKFixed:  "RTK Fixed",
	QualityRTKFloat:  "RTK Float",
	QualityEstimated: "Estimated",
	QualityUnknown:   "Unknown",
}

// FixQualityFromCode maps the integer carried in GGA field 6. Codes outside
// 0-6 map to QualityUnknown.
func FixQualityFromCode(code int) FixQuality {
	if code < 0 || code >= int(QualityUnknown) {
		return QualityUnknown
	}
	return FixQuality(code)
}

func (q FixQuality) String() string {
	if q < 0 || int(q) >= len(qualityNames) {
		return qualityNames[QualityUnknown]
	}
	return qualityNames[q]
}

func (q FixQuality) MarshalText() ([]byte, error) { return []byte(q.String()), nil }

func (q *FixQuality) UnmarshalText(b []byte) error {
	for i, name := range qualityNames {
		if name == string(b) {
			*q = FixQuality(i)
			return nil
		}
	}
	return fmt.Errorf("unknown fix quality %q", string(b))
}

// FixType is the GSA fix dimensionality. gpsd TPV modes use the same codes.
type FixType int

const (
	FixUnknown FixType = iota
	FixNone
	Fix2D
	Fix3D
)

var fixTypeNames = map[FixType]string{
	FixUnknown: "Unknown",
	FixNone:    "No Fix",
	Fix2D:      "2D Fix",
	Fix3D:      "3D Fix",
}

// FixTypeFromCode maps 1/2/3. ok is false for any other code.
func FixTypeFromCode(code int) (FixType, bool) {
	switch code {
	case 1, 2, 3:
		return FixType(code), true
	}
	return FixUnknown, false
}

func (f FixType) String() string {
	if name, ok := fixTypeNames[f]; ok {
		return name
	}
	return fixTypeNames[FixUnknown]
}

func (f FixType) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *FixType) UnmarshalText(b []byte) error {
	for t, name := range fixTypeNames {
		if name == string(b) {
			*f = t
			return nil
		}
	}
	return fmt.Errorf("unknown fix type %q", string(b))
}

// Band is the qualitative reading of an accuracy score.
type Band int

const (
	BandPoor Band = iota
	BandFair
	BandGood
	BandExcellent
)

var bandNames = []string{"Poor", "Fair", "Good", "Excellent"}

func (b Band) String() string {
	if b < 0 || int(b) >= len(bandNames) {
		return bandNames[BandPoor]
	}
	return bandNames[b]
}

func (b Band) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *Band) UnmarshalText(text []byte) error {
	for i, name := range bandNames {
		if name == string(text) {
			*b = Band(i)
			return nil
		}
	}
	return fmt.Errorf("unknown band %q", string(text))
}

// AccuracyScore rates a fix from 0 to 100.
type AccuracyScore struct {
	Score int  `json:"score"`
	Band  Band `json:"band"`
}

// Points per fix quality. Qualities not listed score zero.
var fixQualityPoints = map[FixQuality]int{
	QualityNoFix:    0,
	QualityGPS:      15,
	QualityDGPS:     20,
	QualityPPS:      25,
	QualityRTKFixed: 30,
	QualityRTKFloat: 28,
}

const (
	maxQualityPoints   = 30
	maxSatellitePoints = 40
	maxHDOPPoints      = 30
	pointsPerSatellite = 4
)

// Score combines fix quality (0-30), satellite count (0-40) and HDOP (0-30,
// lower is better) into an AccuracyScore. It is pure and defined for every
// input, including NaN HDOP, which scores zero.
func Score(q FixQuality, satellites int, hdop float64) AccuracyScore {
	total := clamp(fixQualityPoints[q], 0, maxQualityPoints) +
		clamp(satellites*pointsPerSatellite, 0, maxSatellitePoints) +
		clamp(hdopPoints(hdop), 0, maxHDOPPoints)
	total = clamp(total, 0, 100)
	return AccuracyScore{Score: total, Band: bandFor(total)}
}

func hdopPoints(hdop float64) int {
	switch {
	case hdop < 1:
		return 30
	case hdop < 2:
		return 25
	case hdop < 5:
		return 15
	case hdop < 10:
		return 8
	default:
		return 0
	}
}

func bandFor(score int) Band {
	switch {
	case score > 85:
		return BandExcellent
	case score > 70:
		return BandGood
	case score > 50:
		return BandFair
	default:
		return BandPoor
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
