// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/gnss_tracker/internal/config"
	"github.com/relabs-tech/gnss_tracker/internal/nmea"
	"github.com/relabs-tech/gnss_tracker/internal/session"
	"github.com/relabs-tech/gnss_tracker/internal/store"
)

// RunConsole runs the receiver session in-process and prints its events,
// without MQTT. With simulate set the configured transport is replaced by
// the synthetic receiver.
func RunConsole(simulate bool) error {
	cfg := *config.Get()
	if simulate {
		cfg.GPSTransport = config.TransportSim
	}
	tr, err := newDeviceTransport(&cfg)
	if err != nil {
		return err
	}
	history := store.NewMemory(cfg.StoreCapacity)
	s := session.New(session.Options{
		Name:        DeviceSession,
		Transport:   tr,
		Decoder:     nmea.Decoder{Lenient: cfg.GPSLenientChecksum},
		Store:       history,
		SpeedWindow: cfg.GPSSpeedWindow,
		ReadSize:    cfg.GPSReadSize,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.Connect(ctx, deviceFilter(&cfg)); err != nil {
		return err
	}
	interval := time.Duration(cfg.ConsoleLogInterval) * time.Millisecond
	printEvents(os.Stdout, s.Events(), s.Snapshot, interval)

	fixes, err := history.History(context.Background())
	if err == nil {
		fmt.Printf("[GPS ]  %d fixes recorded\n", len(fixes))
	}
	if st := s.Snapshot(); st.Error != "" && ctx.Err() == nil {
		return fmt.Errorf("console: %s", st.Error)
	}
	return nil
}

// printEvents writes every event except snapshots, which are summarized
// once per interval instead. It returns when events is closed.
func printEvents(w io.Writer, events <-chan session.Event, snapshot func() session.State, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				fmt.Fprintln(w, Summary(snapshot()))
				return
			}
			if ev.Kind == session.EventSnapshot {
				continue
			}
			fmt.Fprintln(w, FormatEvent(ev))
		case <-ticker.C:
			fmt.Fprintln(w, Summary(snapshot()))
		}
	}
}
