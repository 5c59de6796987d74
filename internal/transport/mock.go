// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"context"
	"io"
	"sync"
)

type mockItem struct {
	data []byte
	err  error
}

// Mock is a scripted transport. Feed queues bytes for Read, Fail queues a
// read error and End queues io.EOF.
type Mock struct {
	OpenErr  error
	WriteErr error

	items   chan mockItem
	pending []byte
	done    chan struct{}
	once    sync.Once

	mu      sync.Mutex
	opened  bool
	closes  int
	written []string
}

func NewMock() *Mock {
	return &Mock{items: make(chan mockItem, 256), done: make(chan struct{})}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Open(ctx context.Context, _ Filter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.OpenErr != nil {
		return m.OpenErr
	}
	m.mu.Lock()
	m.opened = true
	m.mu.Unlock()
	return nil
}

func (m *Mock) Feed(chunks ...string) {
	for _, c := range chunks {
		m.items <- mockItem{data: []byte(c)}
	}
}

func (m *Mock) Fail(err error) { m.items <- mockItem{err: err} }

func (m *Mock) End() { m.Fail(io.EOF) }

func (m *Mock) Read(p []byte) (int, error) {
	m.mu.Lock()
	opened := m.opened
	m.mu.Unlock()
	if !opened {
		return 0, ErrNotOpen
	}
	if len(m.pending) == 0 {
		select {
		case <-m.done:
			return 0, ErrClosed
		case it := <-m.items:
			if it.err != nil {
				return 0, it.err
			}
			m.pending = it.data
		}
	}
	n := copy(p, m.pending)
	m.pending = m.pending[n:]
	return n, nil
}

func (m *Mock) Write(p []byte) (int, error) {
	select {
	case <-m.done:
		return 0, ErrClosed
	default:
	}
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	m.mu.Lock()
	m.written = append(m.written, string(p))
	m.mu.Unlock()
	return len(p), nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	m.closes++
	m.mu.Unlock()
	m.once.Do(func() { close(m.done) })
	return nil
}

// Written returns everything written so far, one entry per Write.
func (m *Mock) Written() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.written...)
}

// Closes reports how many times Close was called.
func (m *Mock) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}
