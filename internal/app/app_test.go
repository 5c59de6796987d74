// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	gonmea "github.com/adrianmo/go-nmea"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gnss_tracker/internal/config"
	"github.com/relabs-tech/gnss_tracker/internal/gps"
	"github.com/relabs-tech/gnss_tracker/internal/publish"
	"github.com/relabs-tech/gnss_tracker/internal/session"
	"github.com/relabs-tech/gnss_tracker/internal/transport"
)

func nmeaLine(payload string) string {
	return "$" + payload + "*" + gonmea.Checksum(payload) + "\r\n"
}

const ggaPayload = "GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"

func sampleState() session.State {
	score := gps.Score(gps.QualityGPS, 8, 0.9)
	gga := gps.GGA{Time: "123519", Latitude: 48.1173, Longitude: -11.516667, FixQuality: gps.QualityGPS, Satellites: 8, HDOP: 0.9, Altitude: 545.4}
	return session.State{
		Name:     DeviceSession,
		Phase:    session.PhaseConnected,
		Latest:   &session.Fix{Position: gps.Position{Latitude: 48.1173, Longitude: -11.516667}, ReceivedAt: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), Source: gps.KindGGA},
		Previous: &session.Fix{Position: gps.Position{Latitude: 48.1172, Longitude: -11.516667}},
		Distance: 1234,
		Speed:    5,
		Bearing:  45,
		Score:    &score,
		LastGGA:  &gga,
	}
}

func TestFormatRecord(t *testing.T) {
	course := 84.4
	acc := 3.5
	tables := []struct {
		rec  gps.Record
		want string
	}{
		{gps.GGA{Time: "123519", Latitude: 48.1173, Longitude: 11.516667, FixQuality: gps.QualityGPS, Satellites: 8, HDOP: 0.9, Altitude: 545.4},
			"[GGA ]  time=123519 lat=48.117300 lon=11.516667 fix=GPS Fix sats=8 hdop=0.9 alt=545.4m"},
		{gps.RMC{Time: "123519", Date: "230394", Status: gps.StatusActive, Latitude: 48.1173, Longitude: 11.516667, SpeedKnots: 22.4, Course: &course},
			"[RMC ]  time=123519 date=230394 status=Active lat=48.117300 lon=11.516667 speed=22.4kn course=84.4°"},
		{gps.RMC{Status: gps.StatusVoid},
			"[RMC ]  time= date= status=Void lat=0.000000 lon=0.000000 speed=0.0kn course=n/a"},
		{gps.GSA{Mode: "A", FixType: gps.Fix3D, Satellites: []int{4, 5, 9}, PDOP: 2.5, HDOP: 1.3, VDOP: 2.1},
			"[GSA ]  mode=A fix=3D Fix sats=[4 5 9] pdop=2.5 hdop=1.3 vdop=2.1"},
		{gps.LocationFix{Mode: gps.Fix2D, Latitude: 1, Longitude: 2, AccuracyM: &acc},
			"[LOC ]  mode=2D Fix lat=1.000000 lon=2.000000 acc=3.5m"},
	}
	for _, table := range tables {
		if got := FormatRecord(table.rec); got != table.want {
			t.Errorf("got  %q\nwant %q", got, table.want)
		}
	}
}

func TestSummary(t *testing.T) {
	got := Summary(sampleState())
	want := "[GPS ]  device Connected lat=48.117300 lon=-11.516667 dist=1234.0m speed=5.00m/s (18.0km/h) bearing=45.0° score=77(Good) sats=8"
	if got != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
	waiting := Summary(session.State{Name: "location", Phase: session.PhaseConnecting})
	if waiting != "[GPS ]  location Connecting waiting for fix (0 sentences)" {
		t.Fatalf("got %q", waiting)
	}
}

type recordingClient struct{ payloads map[string][]byte }

type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (doneToken) Error() error { return nil }

func (c *recordingClient) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	c.payloads[topic] = payload.([]byte)
	return doneToken{}
}

func TestConsoleLine(t *testing.T) {
	cfg := config.Default()
	tp := topics(cfg)
	c := &recordingClient{payloads: map[string][]byte{}}
	p := publish.New(c, tp)

	st := sampleState()
	score := *st.Score
	diag := session.Diagnostic{Kind: session.DiagChecksumMismatch, Message: "checksum mismatch"}
	events := []session.Event{
		{Kind: session.EventRecord, Record: *st.LastGGA, RecordKind: gps.KindGGA},
		{Kind: session.EventScore, Score: &score},
		{Kind: session.EventSnapshot, State: &st},
		{Kind: session.EventDiagnostic, Diagnostic: &diag},
	}
	for _, ev := range events {
		ev.Session = DeviceSession
		if err := p.Handle(ev); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}

	tables := []struct {
		topic string
		want  string
	}{
		{tp.Position, FormatRecord(*st.LastGGA)},
		{tp.Quality, "[QUAL]  score=77 band=Good"},
		{tp.Snapshot, Summary(st)},
		{tp.Status, "[DIAG]  ChecksumMismatch: checksum mismatch"},
	}
	for _, table := range tables {
		got, err := consoleLine(tp, table.topic, c.payloads[table.topic])
		if err != nil {
			t.Fatalf("%s: %v", table.topic, err)
		}
		if got != table.want {
			t.Errorf("%s: got %q want %q", table.topic, got, table.want)
		}
	}

	if err := p.Handle(session.Event{Kind: session.EventPhase, Session: "location", Phase: session.PhaseError}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	got, err := consoleLine(tp, tp.Status, c.payloads[tp.Status])
	if err != nil || got != "[STAT]  location Error" {
		t.Fatalf("got %q, %v", got, err)
	}

	if _, err := consoleLine(tp, tp.Position, []byte("{")); err == nil {
		t.Fatalf("expected unmarshal error")
	}
}

func TestPrintEvents(t *testing.T) {
	m := transport.NewMock()
	s := session.New(session.Options{Name: DeviceSession, Transport: m})
	if err := s.Connect(context.Background(), transport.Filter{}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	m.Feed(nmeaLine(ggaPayload), "$GPGGA,bad*00\r\n")
	m.End()

	var out bytes.Buffer
	done := make(chan struct{})
	go func() {
		printEvents(&out, s.Events(), s.Snapshot, time.Hour)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("printEvents did not return")
	}

	text := out.String()
	for _, want := range []string{
		"[STAT]  device Connected",
		"[GGA ]  time=123519 lat=48.117300 lon=11.516667",
		"[QUAL]  score=77 band=Good",
		"[DIAG]  ChecksumMismatch",
		"[STAT]  device Disconnected",
		"[GPS ]  device Disconnected lat=48.117300",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestNewSources(t *testing.T) {
	cfg := config.Default()
	cfg.GPSTransport = config.TransportSim
	cfg.LocationEnabled = true
	sources, err := newSources(cfg, nil)
	if err != nil {
		t.Fatalf("newSources: %v", err)
	}
	if len(sources) != 2 || sources[0].s.Name() != DeviceSession || sources[1].s.Name() != LocationSession {
		t.Fatalf("sources=%+v", sources)
	}
	if sources[0].filter != (transport.Filter{VendorID: "1546", ProductID: "01a9"}) {
		t.Fatalf("filter=%+v", sources[0].filter)
	}

	kinds := map[string]string{
		config.TransportSerial:    "*transport.Serial",
		config.TransportWebsocket: "*transport.Socket",
		config.TransportTCP:       "*transport.TCP",
		config.TransportSim:       "*transport.Sim",
	}
	for kind, want := range kinds {
		cfg.GPSTransport = kind
		tr, err := newDeviceTransport(cfg)
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		if got := typeName(tr); got != want {
			t.Errorf("%s: got %s want %s", kind, got, want)
		}
	}
	cfg.GPSTransport = "pigeon"
	if _, err := newDeviceTransport(cfg); err == nil {
		t.Fatalf("expected error for unknown transport")
	}
}

func typeName(tr transport.Transport) string {
	switch tr.(type) {
	case *transport.Serial:
		return "*transport.Serial"
	case *transport.Socket:
		return "*transport.Socket"
	case *transport.TCP:
		return "*transport.TCP"
	case *transport.Sim:
		return "*transport.Sim"
	}
	return "?"
}

func TestCommandPayload(t *testing.T) {
	b, err := commandPayload("", "restart", "")
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	var c publish.Command
	if err := json.Unmarshal(b, &c); err != nil || c.Name != "restart" {
		t.Fatalf("payload=%s err=%v", b, err)
	}
	if _, err := commandPayload("device", "warp", ""); err == nil {
		t.Fatalf("expected unknown command error")
	}
	if _, err := commandPayload("device", "", ""); err == nil {
		t.Fatalf("expected empty command error")
	}
}

func TestDisplayLines(t *testing.T) {
	st := sampleState()
	tables := []struct {
		page int
		want []string
	}{
		{pagePosition, []string{"48.11730N", "11.51667W", "Alt: 545m"}},
		{pageMotion, []string{"Motion", "Spd: 18.0km/h", "Brg: 45", "Dst: 1.23km"}},
		{pageQuality, []string{"Quality", "77 Good", "Sats: 8", "HDOP: 0.9"}},
	}
	for _, table := range tables {
		got := displayLines(st, true, table.page)
		if strings.Join(got, "|") != strings.Join(table.want, "|") {
			t.Errorf("page %d: got %q want %q", table.page, got, table.want)
		}
	}

	if got := displayLines(session.State{}, false, 0); got[2] != "Waiting..." {
		t.Errorf("no data: %q", got)
	}
	lost := session.State{Phase: session.PhaseDisconnected, Error: "session: transport failure: read serial:/dev/ttyACM0: EOF"}
	if got := displayLines(lost, true, 0); got[0] != "GPS Disconnected" || len(got[1]) != 18 {
		t.Errorf("lost: %q", got)
	}
}

func TestRender(t *testing.T) {
	blank := render(nil)
	for _, b := range blank.Pix {
		if b != 0 {
			t.Fatalf("blank page has pixels set")
		}
	}
	img := render([]string{"GNSS", "a", "b", "c", "never drawn"})
	lit := 0
	for _, b := range img.Pix {
		if b != 0 {
			lit++
		}
	}
	if lit == 0 {
		t.Fatalf("text not drawn")
	}
	if img.Bounds().Dx() != displayWidth || img.Bounds().Dy() != displayHeight {
		t.Fatalf("bounds=%v", img.Bounds())
	}
}
