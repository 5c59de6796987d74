// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"time"

	"github.com/relabs-tech/gnss_tracker/internal/config"
	"github.com/relabs-tech/gnss_tracker/internal/geo"
	"github.com/relabs-tech/gnss_tracker/internal/location"
	"github.com/relabs-tech/gnss_tracker/internal/nmea"
	"github.com/relabs-tech/gnss_tracker/internal/publish"
	"github.com/relabs-tech/gnss_tracker/internal/session"
	"github.com/relabs-tech/gnss_tracker/internal/store"
	"github.com/relabs-tech/gnss_tracker/internal/transport"
)

// Session names used on the command topic and in snapshots.
const (
	DeviceSession   = publish.DefaultSession
	LocationSession = "location"
)

// newDeviceTransport builds the receiver transport selected by gps_transport.
func newDeviceTransport(cfg *config.Config) (transport.Transport, error) {
	switch cfg.GPSTransport {
	case config.TransportSerial:
		return transport.NewSerial(transport.SerialConfig{
			Port:     cfg.GPSSerialPort,
			BaudRate: uint(cfg.GPSBaudRate),
		}), nil
	case config.TransportWebsocket:
		return transport.NewSocket(cfg.GPSSocketURL), nil
	case config.TransportTCP:
		return transport.NewTCP(cfg.GPSTCPAddr), nil
	case config.TransportSim:
		return transport.NewSim(simConfig(cfg)), nil
	}
	return nil, fmt.Errorf("unknown gps_transport %q", cfg.GPSTransport)
}

func simConfig(cfg *config.Config) transport.SimConfig {
	return transport.SimConfig{
		Start:    geo.Point{Lat: cfg.SimStartLat, Lon: cfg.SimStartLon},
		SpeedMS:  cfg.SimSpeedMPS,
		Heading:  cfg.SimHeadingDeg,
		Interval: time.Duration(cfg.SimIntervalMS) * time.Millisecond,
	}
}

func deviceFilter(cfg *config.Config) transport.Filter {
	return transport.Filter{VendorID: cfg.GPSUSBVendorID, ProductID: cfg.GPSUSBProductID}
}

func newStore(cfg *config.Config) store.Store {
	if cfg.StoreBackend == config.StoreHTTP {
		return store.NewHTTP(cfg.StoreURL)
	}
	return store.NewMemory(cfg.StoreCapacity)
}

func topics(cfg *config.Config) publish.Topics {
	return publish.Topics{
		Snapshot:   cfg.TopicGPS,
		Position:   cfg.TopicGPSPosition,
		Velocity:   cfg.TopicGPSVelocity,
		Satellites: cfg.TopicGPSSatellites,
		Quality:    cfg.TopicGPSQuality,
		Status:     cfg.TopicGPSStatus,
		Command:    cfg.TopicGPSCommand,
	}
}

// source is a session waiting to be connected with its filter.
type source struct {
	s      *session.Session
	filter transport.Filter
}

// newSources builds the device session and, when enabled, the host location
// session. Both persist to st.
func newSources(cfg *config.Config, st store.Store) ([]source, error) {
	tr, err := newDeviceTransport(cfg)
	if err != nil {
		return nil, err
	}
	device := session.New(session.Options{
		Name:        DeviceSession,
		Transport:   tr,
		Decoder:     nmea.Decoder{Lenient: cfg.GPSLenientChecksum},
		Store:       st,
		SpeedWindow: cfg.GPSSpeedWindow,
		ReadSize:    cfg.GPSReadSize,
	})
	out := []source{{s: device, filter: deviceFilter(cfg)}}

	if cfg.LocationEnabled {
		loc := session.New(session.Options{
			Name:        LocationSession,
			Transport:   location.NewTransport(cfg.LocationGPSDAddr),
			Decoder:     location.Decoder{},
			Store:       st,
			SpeedWindow: cfg.GPSSpeedWindow,
			ReadSize:    cfg.GPSReadSize,
		})
		out = append(out, source{s: loc})
	}
	return out, nil
}
