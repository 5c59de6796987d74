// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

// TCP reads NMEA from a raw TCP feed, such as a receiver's network port or
// ser2net.
type TCP struct {
	Addr string

	// OnOpen, if set, runs right after dialing, e.g. to send a watch
	// request.
	OnOpen func(conn net.Conn) error

	mu   sync.Mutex
	conn net.Conn
}

func NewTCP(addr string) *TCP { return &TCP{Addr: addr} }

func (t *TCP) Name() string { return "tcp:" + t.Addr }

func (t *TCP) Open(ctx context.Context, _ Filter) error {
	d := &net.Dialer{Timeout: 2 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", t.Addr)
	if err != nil {
		return fmt.Errorf("transport: dial %s: %w", t.Addr, err)
	}
	if t.OnOpen != nil {
		if err := t.OnOpen(conn); err != nil {
			conn.Close()
			return fmt.Errorf("transport: %s handshake: %w", t.Addr, err)
		}
	}
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	return nil
}

func (t *TCP) handle() (net.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil, ErrNotOpen
	}
	return t.conn, nil
}

func (t *TCP) Read(p []byte) (int, error) {
	conn, err := t.handle()
	if err != nil {
		return 0, err
	}
	return conn.Read(p)
}

func (t *TCP) Write(p []byte) (int, error) {
	conn, err := t.handle()
	if err != nil {
		return 0, err
	}
	return conn.Write(p)
}

func (t *TCP) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}
