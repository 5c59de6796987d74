// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package store persists position fixes and returns them as a chronological
// history.
package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Position is one persisted fix.
type Position struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   *float64  `json:"accuracy,omitempty"` // HDOP or meters, as reported by the source
	Speed      *float64  `json:"speed,omitempty"`    // m/s, derived from fix deltas
	Satellites *int      `json:"satellites,omitempty"`
	FixQuality string    `json:"fixQuality,omitempty"`
	Source     string    `json:"source,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Store is a persistence backend.
type Store interface {
	Write(ctx context.Context, p Position) error
	// History returns stored fixes oldest first.
	History(ctx context.Context) ([]Position, error)
}

// Memory keeps the most recent fixes in a ring.
type Memory struct {
	mu    sync.Mutex
	buf   []Position
	next  int
	count int
}

// NewMemory returns a ring holding up to capacity fixes (minimum 1).
func NewMemory(capacity int) *Memory {
	if capacity < 1 {
		capacity = 1
	}
	return &Memory{buf: make([]Position, capacity)}
}

func (m *Memory) Write(ctx context.Context, p Position) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buf[m.next] = p
	m.next = (m.next + 1) % len(m.buf)
	if m.count < len(m.buf) {
		m.count++
	}
	return nil
}

func (m *Memory) History(ctx context.Context) ([]Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	out := make([]Position, 0, m.count)
	start := (m.next - m.count + len(m.buf)) % len(m.buf)
	for i := 0; i < m.count; i++ {
		out = append(out, m.buf[(start+i)%len(m.buf)])
	}
	m.mu.Unlock()
	sortByTime(out)
	return out, nil
}

func sortByTime(ps []Position) {
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Timestamp.Before(ps[j].Timestamp) })
}
