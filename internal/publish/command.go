// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package publish

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gnss_tracker/internal/nmea"
)

// DefaultSession receives commands that do not name a session.
const DefaultSession = "device"

// Command is the payload of the command topic. Name selects a catalog entry
// (see nmea.Commands); Raw is sent verbatim. Exactly one must be set.
type Command struct {
	Session string `json:"session,omitempty"`
	Name    string `json:"name,omitempty"`
	Raw     string `json:"raw,omitempty"`
}

// Sender delivers a command to a named session. *session.Registry
// implements it.
type Sender interface {
	Send(name, command string) error
}

// Subscriber is the subscribing half of mqtt.Client.
type Subscriber interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// Resolve returns the text to send for c.
func (c Command) Resolve() (string, error) {
	switch {
	case c.Name != "" && c.Raw != "":
		return "", fmt.Errorf("command: set either name or raw, not both")
	case c.Name != "":
		return nmea.Lookup(c.Name)
	case strings.TrimSpace(c.Raw) != "":
		return c.Raw, nil
	}
	return "", fmt.Errorf("command: empty")
}

// Route decodes a command payload and sends it.
func Route(s Sender, payload []byte) error {
	var c Command
	if err := json.Unmarshal(payload, &c); err != nil {
		return fmt.Errorf("command: %w", err)
	}
	text, err := c.Resolve()
	if err != nil {
		return err
	}
	target := c.Session
	if target == "" {
		target = DefaultSession
	}
	return s.Send(target, text)
}

// SubscribeCommands routes every message on topic to s.
func SubscribeCommands(client Subscriber, topic string, s Sender) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := Route(s, msg.Payload()); err != nil {
			log.Printf("publish: command on %s rejected: %v", msg.Topic(), err)
			return
		}
		log.Printf("publish: command on %s delivered", msg.Topic())
	})
	token.Wait()
	return token.Error()
}
