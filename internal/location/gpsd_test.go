// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package location

import (
	"bufio"
	"context"
	"errors"
	"math"
	"net"
	"testing"
	"time"

	"github.com/relabs-tech/gnss_tracker/internal/gps"
	"github.com/relabs-tech/gnss_tracker/internal/nmea"
	"github.com/relabs-tech/gnss_tracker/internal/session"
	"github.com/relabs-tech/gnss_tracker/internal/transport"
)

func TestDecodeTPV(t *testing.T) {
	line := `{"class":"TPV","mode":3,"time":"2025-12-22T12:00:00.000Z","lat":45.5,"lon":-122.9,"altMSL":100.0,"speed":50.0,"track":270.0,"eph":4.2}`
	rec, err := Decoder{}.Decode(line)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	fix, ok := rec.(gps.LocationFix)
	if !ok {
		t.Fatalf("got %T", rec)
	}
	if fix.Mode != gps.Fix3D || math.Abs(fix.Latitude-45.5) > 1e-9 || math.Abs(fix.Longitude+122.9) > 1e-9 {
		t.Fatalf("fix=%+v", fix)
	}
	if fix.SpeedMS == nil || *fix.SpeedMS != 50 || fix.AccuracyM == nil || *fix.AccuracyM != 4.2 {
		t.Fatalf("fix=%+v", fix)
	}
	if fix.Altitude == nil || *fix.Altitude != 100 {
		t.Fatalf("altitude=%v", fix.Altitude)
	}
	if !fix.Time.Equal(time.Date(2025, 12, 22, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("time=%v", fix.Time)
	}
	if _, ok := fix.Locate(); !ok {
		t.Fatalf("3D fix should locate")
	}
}

func TestDecodeTPV_NoFix(t *testing.T) {
	rec, err := Decoder{}.Decode(`{"class":"TPV","mode":1}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := rec.(gps.LocationFix).Locate(); ok {
		t.Fatalf("mode 1 should not locate")
	}
}

func TestDecodeErrors(t *testing.T) {
	tables := []struct {
		in   string
		want error
	}{
		{`{"class":"VERSION","release":"3.25"}`, nmea.ErrUnsupported},
		{`{"class":"SKY","hdop":0.9}`, nmea.ErrUnsupported},
		{`not json`, nmea.ErrMalformedField},
		{`{"class":"TPV","mode":3}`, nmea.ErrMalformedField},
		{`{"class":"TPV","mode":2,"lat":95,"lon":0}`, nmea.ErrMalformedField},
		{`{"class":"TPV","mode":2,"time":"yesterday","lat":1,"lon":2}`, nmea.ErrMalformedField},
	}
	for _, table := range tables {
		if _, err := (Decoder{}).Decode(table.in); !errors.Is(err, table.want) {
			t.Errorf("%s: err=%v want %v", table.in, err, table.want)
		}
	}
}

// A session over a fake gpsd sends the watch request and tracks TPV fixes.
func TestSessionOverGPSD(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	watch := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		req, _ := bufio.NewReader(conn).ReadString('\n')
		watch <- req
		conn.Write([]byte(`{"class":"VERSION","release":"3.25"}` + "\n" +
			`{"class":"TPV","mode":3,"time":"2025-12-22T12:00:00Z","lat":45.5,"lon":-122.9}` + "\n" +
			`{"class":"TPV","mode":3,"time":"2025-12-22T12:00:02Z","lat":45.5001,"lon":-122.9}` + "\n"))
		time.Sleep(2 * time.Second)
	}()

	s := session.New(session.Options{
		Name:      "location",
		Transport: NewTransport(ln.Addr().String()),
		Decoder:   Decoder{},
	})
	if err := s.Connect(context.Background(), transport.Filter{}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Disconnect()

	if got := <-watch; got != watchRequest {
		t.Fatalf("watch=%q", got)
	}

	snaps := 0
	timeout := time.After(2 * time.Second)
	for snaps < 2 {
		select {
		case ev := <-s.Events():
			if ev.Kind == session.EventSnapshot {
				snaps++
			}
		case <-timeout:
			t.Fatalf("timed out after %d snapshots", snaps)
		}
	}
	st := s.Snapshot()
	if st.Stats.Unsupported != 1 || st.Stats.Decoded != 2 {
		t.Fatalf("stats=%+v", st.Stats)
	}
	// 11.1 m in 2 s
	if math.Abs(st.Speed-5.56) > 0.1 {
		t.Fatalf("speed=%v", st.Speed)
	}
	go func() {
		for range s.Events() {
		}
	}()
}
