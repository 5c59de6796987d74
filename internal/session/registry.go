// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import (
	"errors"
	"fmt"
	"sort"

	cmap "github.com/orcaman/concurrent-map/v2"
)

var (
	ErrUnknownSession   = errors.New("session: unknown session")
	ErrDuplicateSession = errors.New("session: duplicate session name")
)

// Registry tracks the live sessions of a process by name, so commands and
// status requests can reach them from other goroutines.
type Registry struct {
	m cmap.ConcurrentMap[string, *Session]
}

func NewRegistry() *Registry {
	return &Registry{m: cmap.New[*Session]()}
}

func (r *Registry) Add(s *Session) error {
	if !r.m.SetIfAbsent(s.Name(), s) {
		return fmt.Errorf("%w: %s", ErrDuplicateSession, s.Name())
	}
	return nil
}

func (r *Registry) Get(name string) (*Session, bool) { return r.m.Get(name) }

func (r *Registry) Remove(name string) { r.m.Remove(name) }

func (r *Registry) Len() int { return r.m.Count() }

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := r.m.Keys()
	sort.Strings(names)
	return names
}

// Send forwards a command to the named session.
func (r *Registry) Send(name, command string) error {
	s, ok := r.m.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, name)
	}
	return s.Send(command)
}

// Snapshots returns the state of every session, sorted by name.
func (r *Registry) Snapshots() []State {
	out := make([]State, 0, r.m.Count())
	for _, name := range r.Names() {
		if s, ok := r.m.Get(name); ok {
			out = append(out, s.Snapshot())
		}
	}
	return out
}

// DisconnectAll disconnects every session and empties the registry.
func (r *Registry) DisconnectAll() {
	for name, s := range r.m.Items() {
		s.Disconnect()
		r.m.Remove(name)
	}
}
