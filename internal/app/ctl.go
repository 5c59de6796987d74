// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gnss_tracker/internal/config"
	"github.com/relabs-tech/gnss_tracker/internal/publish"
)

// RunCtl publishes one command for the producer to route to a session.
// name selects a catalog entry, raw is sent verbatim.
func RunCtl(sessionName, name, raw string) error {
	cfg := config.Get()

	payload, err := commandPayload(sessionName, name, raw)
	if err != nil {
		return err
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDCtl)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)

	token := client.Publish(cfg.TopicGPSCommand, 1, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("gpsctl: publish to %s timed out", cfg.TopicGPSCommand)
	}
	if err := token.Error(); err != nil {
		return err
	}
	log.Printf("gpsctl: sent %s", payload)
	return nil
}

// commandPayload validates the command locally before it goes on the wire.
func commandPayload(sessionName, name, raw string) ([]byte, error) {
	c := publish.Command{Session: sessionName, Name: name, Raw: raw}
	if _, err := c.Resolve(); err != nil {
		return nil, err
	}
	return json.Marshal(c)
}
