// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"math"
	"testing"
)

func TestScore(t *testing.T) {
	tables := []struct {
		q     FixQuality
		sats  int
		hdop  float64
		score int
		band  Band
	}{
		{QualityRTKFixed, 12, 0.8, 100, BandExcellent},
		{QualityNoFix, 0, 99.0, 0, BandPoor},
		{QualityGPS, 8, 0.9, 77, BandGood},        // 15 + 32 + 30
		{QualityDGPS, 6, 1.5, 69, BandFair},       // 20 + 24 + 25
		{QualityGPS, 4, 3.0, 46, BandPoor},        // 15 + 16 + 15
		{QualityRTKFloat, 10, 6.0, 76, BandGood},  // 28 + 40 + 8
		{QualityPPS, 9, 1.0, 86, BandExcellent},   // 25 + 36 + 25
		{QualityEstimated, 3, 12, 12, BandPoor},   // 0 + 12 + 0
		{QualityUnknown, -5, 0.5, 30, BandPoor},   // negative satellites clamp to 0
		{QualityGPS, 0, math.NaN(), 15, BandPoor}, // NaN HDOP scores nothing
	}

	for _, table := range tables {
		got := Score(table.q, table.sats, table.hdop)
		if got.Score != table.score || got.Band != table.band {
			t.Errorf("Score(%v, %d, %v) = %d/%v, want %d/%v",
				table.q, table.sats, table.hdop, got.Score, got.Band, table.score, table.band)
		}
	}
}

func TestScoreBounds(t *testing.T) {
	hdops := []float64{-1, 0, 0.99, 1, 1.99, 2, 4.99, 5, 9.99, 10, math.Inf(1), math.NaN()}
	for q := QualityNoFix; q <= QualityUnknown; q++ {
		for sats := -1; sats <= 40; sats++ {
			for _, h := range hdops {
				s := Score(q, sats, h)
				if s.Score < 0 || s.Score > 100 {
					t.Fatalf("Score(%v,%d,%v)=%d out of range", q, sats, h, s.Score)
				}
			}
		}
	}
}

func TestBandThresholds(t *testing.T) {
	tables := []struct {
		score int
		band  Band
	}{
		{0, BandPoor}, {50, BandPoor}, {51, BandFair}, {70, BandFair},
		{71, BandGood}, {85, BandGood}, {86, BandExcellent}, {100, BandExcellent},
	}
	for _, table := range tables {
		if b := bandFor(table.score); b != table.band {
			t.Errorf("bandFor(%d)=%v want %v", table.score, b, table.band)
		}
	}
}

func TestFixQualityFromCode(t *testing.T) {
	if FixQualityFromCode(4) != QualityRTKFixed {
		t.Fatalf("4 should be RTK Fixed")
	}
	if FixQualityFromCode(9) != QualityUnknown || FixQualityFromCode(-1) != QualityUnknown {
		t.Fatalf("out of range codes should be Unknown")
	}
	var q FixQuality
	if err := q.UnmarshalText([]byte("DGPS Fix")); err != nil || q != QualityDGPS {
		t.Fatalf("q=%v err=%v", q, err)
	}
}
