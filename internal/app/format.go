// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relabs-tech/gnss_tracker/internal/geo"
	"github.com/relabs-tech/gnss_tracker/internal/gps"
	"github.com/relabs-tech/gnss_tracker/internal/session"
)

// FormatRecord renders one decoded record as a console line.
func FormatRecord(rec gps.Record) string {
	switch r := rec.(type) {
	case gps.GGA:
		return fmt.Sprintf("[GGA ]  time=%s lat=%.6f lon=%.6f fix=%s sats=%d hdop=%.1f alt=%.1fm",
			r.Time, r.Latitude, r.Longitude, r.FixQuality, r.Satellites, r.HDOP, r.Altitude)
	case gps.RMC:
		course := "n/a"
		if r.Course != nil {
			course = fmt.Sprintf("%.1f°", *r.Course)
		}
		return fmt.Sprintf("[RMC ]  time=%s date=%s status=%s lat=%.6f lon=%.6f speed=%.1fkn course=%s",
			r.Time, r.Date, r.Status, r.Latitude, r.Longitude, r.SpeedKnots, course)
	case gps.GSA:
		sats := make([]string, len(r.Satellites))
		for i, id := range r.Satellites {
			sats[i] = strconv.Itoa(id)
		}
		return fmt.Sprintf("[GSA ]  mode=%s fix=%s sats=[%s] pdop=%.1f hdop=%.1f vdop=%.1f",
			r.Mode, r.FixType, strings.Join(sats, " "), r.PDOP, r.HDOP, r.VDOP)
	case gps.LocationFix:
		line := fmt.Sprintf("[LOC ]  mode=%s lat=%.6f lon=%.6f", r.Mode, r.Latitude, r.Longitude)
		if r.AccuracyM != nil {
			line += fmt.Sprintf(" acc=%.1fm", *r.AccuracyM)
		}
		if r.SpeedMS != nil {
			line += fmt.Sprintf(" speed=%.2fm/s", *r.SpeedMS)
		}
		return line
	}
	return fmt.Sprintf("[????]  %v", rec)
}

// FormatEvent renders any session event as a console line.
func FormatEvent(ev session.Event) string {
	switch ev.Kind {
	case session.EventRecord:
		return FormatRecord(ev.Record)
	case session.EventScore:
		return FormatScore(*ev.Score)
	case session.EventSnapshot:
		return Summary(*ev.State)
	case session.EventPhase:
		return fmt.Sprintf("[STAT]  %s %s", ev.Session, ev.Phase)
	case session.EventDiagnostic:
		return FormatDiagnostic(*ev.Diagnostic)
	}
	return fmt.Sprintf("[????]  %s", ev.Kind)
}

func FormatScore(s gps.AccuracyScore) string {
	return fmt.Sprintf("[QUAL]  score=%d band=%s", s.Score, s.Band)
}

func FormatDiagnostic(d session.Diagnostic) string {
	if d.Sentence == "" {
		return fmt.Sprintf("[DIAG]  %s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("[DIAG]  %s: %s (%q)", d.Kind, d.Message, d.Sentence)
}

// Summary is the one-line view of a session snapshot.
func Summary(st session.State) string {
	if st.Latest == nil {
		return fmt.Sprintf("[GPS ]  %s %s waiting for fix (%d sentences)", st.Name, st.Phase, st.Stats.Sentences)
	}
	line := fmt.Sprintf("[GPS ]  %s %s lat=%.6f lon=%.6f dist=%.1fm speed=%.2fm/s (%.1fkm/h) bearing=%.1f°",
		st.Name, st.Phase, st.Latest.Latitude, st.Latest.Longitude,
		st.Distance, st.Speed, geo.MSToKmh(st.Speed), st.Bearing)
	if st.Score != nil {
		line += fmt.Sprintf(" score=%d(%s)", st.Score.Score, st.Score.Band)
	}
	if st.LastGGA != nil {
		line += fmt.Sprintf(" sats=%d", st.LastGGA.Satellites)
	}
	return line
}
