// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package publish forwards session events to MQTT and routes commands
// received over MQTT back to sessions.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gnss_tracker/internal/gps"
	"github.com/relabs-tech/gnss_tracker/internal/session"
)

// Topics names the MQTT topic for each kind of event.
type Topics struct {
	Snapshot   string // session.State
	Position   string // GGA and host location fixes
	Velocity   string // RMC
	Satellites string // GSA
	Quality    string // AccuracyScore
	Status     string // phase changes and diagnostics
	Command    string // inbound commands
}

// Client is the publishing half of mqtt.Client.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Envelope wraps every published payload with its origin. Kind is the
// record kind (GGA, RMC, GSA, LOCATION) or the event kind for everything
// else.
type Envelope[T any] struct {
	Session string    `json:"session"`
	Kind    string    `json:"kind"`
	At      time.Time `json:"at"`
	Data    T         `json:"data"`
}

// Status is the payload of the status topic.
type Status struct {
	Phase      session.Phase       `json:"phase"`
	Diagnostic *session.Diagnostic `json:"diagnostic,omitempty"`
}

type Publisher struct {
	client  Client
	topics  Topics
	timeout time.Duration
}

func New(client Client, topics Topics) *Publisher {
	return &Publisher{client: client, topics: topics, timeout: 5 * time.Second}
}

func wrap[T any](ev session.Event, data T) Envelope[T] {
	kind := ev.Kind.String()
	if ev.Kind == session.EventRecord {
		kind = ev.RecordKind.String()
	}
	return Envelope[T]{Session: ev.Session, Kind: kind, At: ev.At, Data: data}
}

// DecodeRecord turns a record envelope received from the broker back into a
// typed record.
func DecodeRecord(env Envelope[json.RawMessage]) (gps.Record, error) {
	var kind gps.Kind
	if err := kind.UnmarshalText([]byte(env.Kind)); err != nil {
		return nil, err
	}
	var rec gps.Record
	var err error
	switch kind {
	case gps.KindGGA:
		var r gps.GGA
		err = json.Unmarshal(env.Data, &r)
		rec = r
	case gps.KindRMC:
		var r gps.RMC
		err = json.Unmarshal(env.Data, &r)
		rec = r
	case gps.KindGSA:
		var r gps.GSA
		err = json.Unmarshal(env.Data, &r)
		rec = r
	case gps.KindLocation:
		var r gps.LocationFix
		err = json.Unmarshal(env.Data, &r)
		rec = r
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Kind, err)
	}
	return rec, nil
}

// route picks topic, retain flag and payload for an event. Empty topic
// means the event is not published.
func (p *Publisher) route(ev session.Event) (string, bool, any) {
	switch ev.Kind {
	case session.EventRecord:
		switch ev.RecordKind {
		case gps.KindGGA, gps.KindLocation:
			return p.topics.Position, true, wrap(ev, ev.Record)
		case gps.KindRMC:
			return p.topics.Velocity, true, wrap(ev, ev.Record)
		case gps.KindGSA:
			return p.topics.Satellites, true, wrap(ev, ev.Record)
		}
	case session.EventScore:
		return p.topics.Quality, true, wrap(ev, ev.Score)
	case session.EventSnapshot:
		return p.topics.Snapshot, true, wrap(ev, ev.State)
	case session.EventPhase:
		return p.topics.Status, true, wrap(ev, Status{Phase: ev.Phase})
	case session.EventDiagnostic:
		return p.topics.Status, false, wrap(ev, Status{Phase: ev.Phase, Diagnostic: ev.Diagnostic})
	}
	return "", false, nil
}

// Handle publishes one event and waits for the broker to accept it.
func (p *Publisher) Handle(ev session.Event) error {
	topic, retained, v := p.route(ev)
	if topic == "" {
		return nil
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("publish: marshal %s: %w", ev.Kind, err)
	}
	token := p.client.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish: %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %s: %w", topic, err)
	}
	return nil
}

// Run publishes events until the channel closes or ctx is done. Publish
// failures are logged and do not stop the loop.
func (p *Publisher) Run(ctx context.Context, events <-chan session.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := p.Handle(ev); err != nil {
				log.Printf("%v", err)
			}
		}
	}
}
