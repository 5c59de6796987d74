// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"errors"
	"fmt"

	"go.bug.st/serial/enumerator"
)

// ErrNoDevice means no USB serial port matched the filter.
var ErrNoDevice = errors.New("transport: no matching device")

// listPorts is replaced in tests.
var listPorts = enumerator.GetDetailedPortsList

// Discover returns the path of the first USB serial port matching f.
func Discover(f Filter) (string, error) {
	ports, err := listPorts()
	if err != nil {
		return "", fmt.Errorf("transport: list ports: %w", err)
	}
	for _, p := range ports {
		if p == nil || !p.IsUSB {
			continue
		}
		if f.Match(p.VID, p.PID) {
			return p.Name, nil
		}
	}
	return "", fmt.Errorf("%w (filter %s, %d ports)", ErrNoDevice, f, len(ports))
}
