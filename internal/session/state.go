// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import (
	"fmt"
	"time"

	"github.com/relabs-tech/gnss_tracker/internal/gps"
	"github.com/relabs-tech/gnss_tracker/internal/store"
)

// Phase is the connection phase of a session.
type Phase int

const (
	PhaseDisconnected Phase = iota
	PhaseConnecting
	PhaseConnected
	PhaseError
)

var phaseNames = []string{"Disconnected", "Connecting", "Connected", "Error"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "Unknown"
	}
	return phaseNames[p]
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", string(b))
}

// Fix is a position the session accepted, with the time it arrived.
type Fix struct {
	gps.Position
	ReceivedAt time.Time `json:"received_at"`
	Source     gps.Kind  `json:"source"`
}

// Stats counts what the decoding loop has seen.
type Stats struct {
	Sentences        int `json:"sentences"`
	Decoded          int `json:"decoded"`
	ChecksumFailures int `json:"checksum_failures"`
	Malformed        int `json:"malformed"`
	Unsupported      int `json:"unsupported"`
	Overflows        int `json:"overflows"`
}

// State is a snapshot of one session. Values handed out by a Session are
// copies and never change afterwards.
type State struct {
	Name  string `json:"name"`
	Phase Phase  `json:"phase"`
	Error string `json:"error,omitempty"`

	Latest   *Fix `json:"latest,omitempty"`
	Previous *Fix `json:"previous,omitempty"`

	Distance     float64   `json:"distance_m"` // cumulative
	Speed        float64   `json:"speed_mps"`  // from the last two fixes
	Bearing      float64   `json:"bearing_deg"`
	SpeedHistory []float64 `json:"speed_history"` // oldest first

	Score        *gps.AccuracyScore `json:"score,omitempty"`
	LastGGA      *gps.GGA           `json:"gga,omitempty"`
	LastRMC      *gps.RMC           `json:"rmc,omitempty"`
	LastGSA      *gps.GSA           `json:"gsa,omitempty"`
	LastLocation *gps.LocationFix   `json:"location,omitempty"`

	Stats     Stats     `json:"stats"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ptr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func (s *State) clone() *State {
	c := *s
	c.Latest = ptr(s.Latest)
	c.Previous = ptr(s.Previous)
	c.Score = ptr(s.Score)
	c.LastGGA = ptr(s.LastGGA)
	if s.LastRMC != nil {
		r := copyRMC(*s.LastRMC)
		c.LastRMC = &r
	}
	if s.LastGSA != nil {
		g := copyGSA(*s.LastGSA)
		c.LastGSA = &g
	}
	if s.LastLocation != nil {
		l := copyLocation(*s.LastLocation)
		c.LastLocation = &l
	}
	c.SpeedHistory = append([]float64{}, s.SpeedHistory...)
	return &c
}

// copyRMC, copyGSA and copyLocation detach a record from anything it shares
// with an emitted event or an earlier snapshot.
func copyRMC(r gps.RMC) gps.RMC {
	r.Course = ptr(r.Course)
	return r
}

func copyGSA(g gps.GSA) gps.GSA {
	if g.Satellites != nil {
		g.Satellites = append([]int(nil), g.Satellites...)
	}
	return g
}

func copyLocation(l gps.LocationFix) gps.LocationFix {
	l.Altitude = ptr(l.Altitude)
	l.SpeedMS = ptr(l.SpeedMS)
	l.Course = ptr(l.Course)
	l.AccuracyM = ptr(l.AccuracyM)
	return l
}

// StoreRecord converts the latest fix into a persisted position. ok is false
// before the first fix.
func (s *State) StoreRecord() (store.Position, bool) {
	fix := s.Latest
	if fix == nil {
		return store.Position{}, false
	}
	p := store.Position{
		Latitude:  fix.Latitude,
		Longitude: fix.Longitude,
		Source:    s.Name,
		Timestamp: fix.ReceivedAt.UTC(),
	}
	if s.Previous != nil {
		speed := s.Speed
		p.Speed = &speed
	}
	switch {
	case fix.Source == gps.KindLocation && s.LastLocation != nil:
		p.FixQuality = s.LastLocation.Mode.String()
		p.Accuracy = ptr(s.LastLocation.AccuracyM)
	case s.LastGGA != nil:
		sats := s.LastGGA.Satellites
		hdop := s.LastGGA.HDOP
		p.Satellites = &sats
		p.Accuracy = &hdop
		p.FixQuality = s.LastGGA.FixQuality.String()
	}
	return p, true
}

// EventKind discriminates events.
type EventKind int

const (
	EventPhase EventKind = iota + 1
	EventRecord
	EventScore
	EventSnapshot
	EventDiagnostic
)

var eventNames = map[EventKind]string{
	EventPhase:      "phase",
	EventRecord:     "record",
	EventScore:      "score",
	EventSnapshot:   "snapshot",
	EventDiagnostic: "diagnostic",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// DiagnosticKind follows the error taxonomy of the decoding loop.
type DiagnosticKind int

const (
	DiagChecksumMismatch DiagnosticKind = iota + 1
	DiagMalformedField
	DiagFramingOverflow
	DiagTransportIO
	DiagCommandRejected
	DiagStorageFailed
)

var diagNames = map[DiagnosticKind]string{
	DiagChecksumMismatch: "ChecksumMismatch",
	DiagMalformedField:   "MalformedField",
	DiagFramingOverflow:  "FramingOverflow",
	DiagTransportIO:      "TransportIOError",
	DiagCommandRejected:  "CommandRejected",
	DiagStorageFailed:    "StorageFailed",
}

func (k DiagnosticKind) String() string {
	if name, ok := diagNames[k]; ok {
		return name
	}
	return "Unknown"
}

func (k DiagnosticKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *DiagnosticKind) UnmarshalText(b []byte) error {
	for kind, name := range diagNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown diagnostic %q", string(b))
}

type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	Sentence string         `json:"sentence,omitempty"`
	Message  string         `json:"message"`
}

// Event is one item of a session's event stream. Only the field matching
// Kind is set, besides the common header.
type Event struct {
	Kind    EventKind `json:"kind"`
	Session string    `json:"session"`
	At      time.Time `json:"at"`
	Phase   Phase     `json:"phase"`

	Record     gps.Record         `json:"record,omitempty"`
	RecordKind gps.Kind           `json:"record_kind,omitempty"`
	Score      *gps.AccuracyScore `json:"score,omitempty"`
	State      *State             `json:"state,omitempty"`
	Diagnostic *Diagnostic        `json:"diagnostic,omitempty"`
}
