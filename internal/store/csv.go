// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package store

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{"Timestamp", "Latitude", "Longitude", "Speed", "Satellites", "Fix Quality"}

const notAvailable = "N/A"

// WriteCSV writes history with one row per fix. Missing values are N/A.
func WriteCSV(w io.Writer, history []Position) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range history {
		row := []string{
			p.Timestamp.UTC().Format(time.RFC3339Nano),
			strconv.FormatFloat(p.Latitude, 'f', 6, 64),
			strconv.FormatFloat(p.Longitude, 'f', 6, 64),
			notAvailable,
			notAvailable,
			notAvailable,
		}
		if p.Speed != nil {
			row[3] = strconv.FormatFloat(*p.Speed, 'f', 2, 64)
		}
		if p.Satellites != nil {
			row[4] = strconv.Itoa(*p.Satellites)
		}
		if p.FixQuality != "" {
			row[5] = p.FixQuality
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
