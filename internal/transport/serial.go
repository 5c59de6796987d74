// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"go.bug.st/serial"
)

// SerialConfig describes the receiver's serial line.
type SerialConfig struct {
	// Port is the device path, e.g. /dev/ttyACM0. Empty means discover it
	// from the USB filter passed to Open.
	Port     string
	BaudRate uint
}

// openPort is replaced in tests. The returned port must unblock a pending
// Read when closed, which go.bug.st/serial does on every platform.
var openPort = func(path string, mode *serial.Mode) (io.ReadWriteCloser, error) {
	return serial.Open(path, mode)
}

// Serial reads NMEA from a local serial port, 8N1.
type Serial struct {
	cfg SerialConfig

	mu   sync.Mutex
	port io.ReadWriteCloser
	path string
}

func NewSerial(cfg SerialConfig) *Serial {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 9600
	}
	return &Serial{cfg: cfg}
}

func (s *Serial) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path != "" {
		return "serial:" + s.path
	}
	return "serial:" + s.cfg.Port
}

func (s *Serial) Open(ctx context.Context, filter Filter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.cfg.Port
	if path == "" {
		var err error
		if path, err = Discover(filter); err != nil {
			return err
		}
	}

	mode := &serial.Mode{
		BaudRate: int(s.cfg.BaudRate),
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := openPort(path, mode)
	if err != nil {
		return fmt.Errorf("transport: open %s: %w", path, err)
	}

	s.mu.Lock()
	s.port, s.path = port, path
	s.mu.Unlock()
	log.Printf("gps: serial port opened on %s at %d baud", path, s.cfg.BaudRate)
	return nil
}

func (s *Serial) handle() (io.ReadWriteCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil, ErrNotOpen
	}
	return s.port, nil
}

func (s *Serial) Read(p []byte) (int, error) {
	port, err := s.handle()
	if err != nil {
		return 0, err
	}
	return port.Read(p)
}

func (s *Serial) Write(p []byte) (int, error) {
	port, err := s.handle()
	if err != nil {
		return 0, err
	}
	return port.Write(p)
}

func (s *Serial) Close() error {
	s.mu.Lock()
	port := s.port
	s.port = nil
	s.mu.Unlock()
	if port == nil {
		return nil
	}
	return port.Close()
}
