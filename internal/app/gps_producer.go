// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gnss_tracker/internal/config"
	"github.com/relabs-tech/gnss_tracker/internal/publish"
	"github.com/relabs-tech/gnss_tracker/internal/session"
)

// RunGPSProducer connects the configured receiver (and the host location
// service when enabled), publishes their events to MQTT and routes commands
// from the command topic back to them.
func RunGPSProducer() error {
	cfg := config.Get()

	// ---- 1) Connect to MQTT broker ----
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDGPS)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("gps: connected to MQTT broker at %s", cfg.MQTTBroker)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- 2) Build sessions ----
	sources, err := newSources(cfg, newStore(cfg))
	if err != nil {
		return err
	}
	reg := session.NewRegistry()
	pub := publish.New(client, topics(cfg))

	var wg sync.WaitGroup
	defer func() {
		reg.DisconnectAll()
		wg.Wait()
	}()

	// ---- 3) Connect and publish ----
	// The device session is required; the location session is best effort.
	// A session's events close once it ends, failed or not, which ends its
	// publisher.
	for i, src := range sources {
		if err := reg.Add(src.s); err != nil {
			return err
		}
		err := src.s.Connect(ctx, src.filter)
		wg.Add(1)
		go func(s *session.Session) {
			defer wg.Done()
			pub.Run(context.Background(), s.Events())
		}(src.s)
		if err != nil {
			if i == 0 {
				return fmt.Errorf("gps: connect %s: %w", src.s.Name(), err)
			}
			log.Printf("gps: %s unavailable: %v", src.s.Name(), err)
		}
	}

	// ---- 4) Commands ----
	if err := publish.SubscribeCommands(client, cfg.TopicGPSCommand, reg); err != nil {
		return err
	}
	log.Printf("gps: listening for commands on %s", cfg.TopicGPSCommand)

	// ---- 5) Periodic summary until shutdown or device loss ----
	device, _ := reg.Get(DeviceSession)
	ticker := time.NewTicker(time.Duration(cfg.ConsoleLogInterval) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("gps: shutting down")
			return nil
		case <-device.Done():
			st := device.Snapshot()
			return fmt.Errorf("gps: device session ended: %s", st.Error)
		case <-ticker.C:
			for _, st := range reg.Snapshots() {
				log.Print(Summary(st))
			}
		}
	}
}
