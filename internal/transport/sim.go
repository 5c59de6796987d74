// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/relabs-tech/gnss_tracker/internal/geo"
	"github.com/relabs-tech/gnss_tracker/internal/nmea"
)

// SimConfig describes the simulated track.
type SimConfig struct {
	Start    geo.Point
	SpeedMS  float64
	Heading  float64 // degrees
	Altitude float64

	// Interval is the wall time between bursts. Each burst advances the
	// simulated receiver clock by one second, so a short Interval replays
	// a track faster than real time.
	Interval time.Duration

	// Epoch is the receiver time of the first burst. Zero means now.
	Epoch time.Time
}

// Sim is a synthetic receiver that emits one GGA, RMC and GSA per step
// along a straight great-circle track. Writes are accepted and discarded.
type Sim struct {
	cfg SimConfig

	mu      sync.Mutex
	opened  bool
	step    int
	ticker  *time.Ticker
	done    chan struct{}
	once    sync.Once
	pending []byte
	written int
}

func NewSim(cfg SimConfig) *Sim {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.Epoch.IsZero() {
		cfg.Epoch = time.Now().UTC()
	}
	return &Sim{cfg: cfg, done: make(chan struct{})}
}

func (s *Sim) Name() string { return "sim" }

func (s *Sim) Open(ctx context.Context, _ Filter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	s.opened = true
	s.ticker = time.NewTicker(s.cfg.Interval)
	return nil
}

func (s *Sim) Read(p []byte) (int, error) {
	s.mu.Lock()
	opened, ticker := s.opened, s.ticker
	s.mu.Unlock()
	if !opened {
		return 0, ErrNotOpen
	}

	if len(s.pending) == 0 {
		// The first burst goes out immediately.
		if s.step > 0 {
			select {
			case <-ticker.C:
			case <-s.done:
				return 0, ErrClosed
			}
		}
		select {
		case <-s.done:
			return 0, ErrClosed
		default:
		}
		s.pending = []byte(Burst(s.cfg, s.step))
		s.step++
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *Sim) Write(p []byte) (int, error) {
	select {
	case <-s.done:
		return 0, ErrClosed
	default:
	}
	s.mu.Lock()
	s.written += len(p)
	s.mu.Unlock()
	return len(p), nil
}

func (s *Sim) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		if s.ticker != nil {
			s.ticker.Stop()
		}
		s.mu.Unlock()
	})
	return nil
}

var simSatellites = []string{"04", "05", "09", "12", "24", "25", "29", "31"}

// Burst renders the three sentences of a given step, CRLF terminated.
func Burst(cfg SimConfig, step int) string {
	at := cfg.Epoch.Add(time.Duration(step) * time.Second).UTC()
	pos := geo.Destination(cfg.Start, cfg.Heading, cfg.SpeedMS*float64(step))
	lat, ns := dm(pos.Lat, 2, "N", "S")
	lon, ew := dm(pos.Lon, 3, "E", "W")
	hhmmss := at.Format("150405") + ".00"

	gga := nmea.Command{Type: "GPGGA", Data: []string{
		hhmmss, lat, ns, lon, ew, "1", fmt.Sprintf("%02d", len(simSatellites)),
		"0.9", fmt.Sprintf("%.1f", cfg.Altitude), "M", "0.0", "M", "", "",
	}}
	rmc := nmea.Command{Type: "GPRMC", Data: []string{
		hhmmss, "A", lat, ns, lon, ew,
		fmt.Sprintf("%.2f", cfg.SpeedMS/geo.KnotsToMS),
		fmt.Sprintf("%.1f", cfg.Heading),
		at.Format("020106"), "", "",
	}}
	gsaData := []string{"A", "3"}
	for i := 0; i < 12; i++ {
		if i < len(simSatellites) {
			gsaData = append(gsaData, simSatellites[i])
		} else {
			gsaData = append(gsaData, "")
		}
	}
	gsa := nmea.Command{Type: "GPGSA", Data: append(gsaData, "1.6", "0.9", "1.3")}

	return gga.String() + "\r\n" + rmc.String() + "\r\n" + gsa.String() + "\r\n"
}

// dm formats decimal degrees as NMEA degrees-minutes with width-digit
// degrees.
func dm(v float64, width int, pos, neg string) (string, string) {
	hemi := pos
	if v < 0 {
		hemi = neg
		v = -v
	}
	deg := math.Floor(v)
	mins := math.Round((v-deg)*60*1e5) / 1e5
	if mins >= 60 {
		deg++
		mins -= 60
	}
	return fmt.Sprintf("%0*d%08.5f", width, int(deg), mins), hemi
}
