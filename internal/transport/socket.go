// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Socket reads NMEA from a websocket bridge that forwards the receiver's
// serial output, one or more sentences per message.
type Socket struct {
	URL    string
	Dialer *websocket.Dialer

	mu      sync.Mutex
	conn    *websocket.Conn
	wmu     sync.Mutex
	pending []byte // rest of the last message, owned by the reader
}

func NewSocket(url string) *Socket {
	return &Socket{URL: url, Dialer: websocket.DefaultDialer}
}

func (s *Socket) Name() string { return "websocket:" + s.URL }

// Open dials the bridge. The USB filter is the bridge's concern and is
// ignored here.
func (s *Socket) Open(ctx context.Context, _ Filter) error {
	dialer := s.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, s.URL, nil)
	if err != nil {
		return fmt.Errorf("transport: dial %s: %w", s.URL, err)
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	return nil
}

func (s *Socket) handle() (*websocket.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, ErrNotOpen
	}
	return s.conn, nil
}

func (s *Socket) Read(p []byte) (int, error) {
	if len(s.pending) == 0 {
		conn, err := s.handle()
		if err != nil {
			return 0, err
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return 0, io.EOF
			}
			return 0, err
		}
		s.pending = msg
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *Socket) Write(p []byte) (int, error) {
	conn, err := s.handle()
	if err != nil {
		return 0, err
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *Socket) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn == nil {
		return nil
	}
	s.wmu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.wmu.Unlock()
	return conn.Close()
}
