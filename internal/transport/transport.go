// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package transport provides the byte streams a session reads NMEA from:
// serial ports, websocket bridges, raw TCP feeds and a simulated receiver.
package transport

import (
	"context"
	"errors"
	"io"
	"strings"
)

var (
	// ErrClosed is returned by Read and Write after Close.
	ErrClosed = errors.New("transport: closed")

	// ErrNotOpen is returned by Read and Write before a successful Open.
	ErrNotOpen = errors.New("transport: not open")
)

// Transport is a bidirectional byte stream with an explicit open step.
//
// Read returns io.EOF when the peer ends the stream. Close must unblock a
// Read in flight; it may be called more than once.
type Transport interface {
	io.ReadWriteCloser
	Open(ctx context.Context, filter Filter) error
	Name() string
}

// Filter selects a USB device by vendor and product ID, given as hex strings
// with or without a 0x prefix. Empty fields match anything.
type Filter struct {
	VendorID  string `json:"vendor_id,omitempty"`
	ProductID string `json:"product_id,omitempty"`
}

// UBlox matches u-blox receivers (XPLR, C099, ...).
var UBlox = Filter{VendorID: "1546", ProductID: "01a9"}

func normalizeID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	return strings.TrimPrefix(id, "0x")
}

// Match reports whether a device with the given IDs passes the filter.
func (f Filter) Match(vid, pid string) bool {
	if v := normalizeID(f.VendorID); v != "" && v != normalizeID(vid) {
		return false
	}
	if p := normalizeID(f.ProductID); p != "" && p != normalizeID(pid) {
		return false
	}
	return true
}

func (f Filter) String() string {
	if f.VendorID == "" && f.ProductID == "" {
		return "any"
	}
	return normalizeID(f.VendorID) + ":" + normalizeID(f.ProductID)
}
