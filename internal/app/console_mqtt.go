// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gnss_tracker/internal/config"
	"github.com/relabs-tech/gnss_tracker/internal/gps"
	"github.com/relabs-tech/gnss_tracker/internal/publish"
	"github.com/relabs-tech/gnss_tracker/internal/session"
)

func RunConsoleMQTT() error {
	cfg := config.Get()
	t := topics(cfg)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	for _, topic := range []string{t.Snapshot, t.Position, t.Velocity, t.Satellites, t.Quality, t.Status} {
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			line, err := consoleLine(t, msg.Topic(), msg.Payload())
			if err != nil {
				log.Printf("console: %s unmarshal error: %v", msg.Topic(), err)
				return
			}
			fmt.Println(line)
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("console: subscribed to %s", topic)
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}

// consoleLine renders a message from one of the gnss topics.
func consoleLine(t publish.Topics, topic string, payload []byte) (string, error) {
	switch topic {
	case t.Snapshot:
		var env publish.Envelope[session.State]
		if err := json.Unmarshal(payload, &env); err != nil {
			return "", err
		}
		return Summary(env.Data), nil
	case t.Quality:
		var env publish.Envelope[gps.AccuracyScore]
		if err := json.Unmarshal(payload, &env); err != nil {
			return "", err
		}
		return FormatScore(env.Data), nil
	case t.Status:
		var env publish.Envelope[publish.Status]
		if err := json.Unmarshal(payload, &env); err != nil {
			return "", err
		}
		if env.Data.Diagnostic != nil {
			return FormatDiagnostic(*env.Data.Diagnostic), nil
		}
		return fmt.Sprintf("[STAT]  %s %s", env.Session, env.Data.Phase), nil
	}
	var env publish.Envelope[json.RawMessage]
	if err := json.Unmarshal(payload, &env); err != nil {
		return "", err
	}
	rec, err := publish.DecodeRecord(env)
	if err != nil {
		return "", err
	}
	return FormatRecord(rec), nil
}
