// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/gnss_tracker/internal/publish"
	"github.com/relabs-tech/gnss_tracker/internal/session"
	"github.com/relabs-tech/gnss_tracker/internal/store"
)

func snapshotPayload(t *testing.T, st session.State) []byte {
	t.Helper()
	b, err := json.Marshal(publish.Envelope[session.State]{Session: st.Name, Kind: "snapshot", Data: st})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestWebServerAPI(t *testing.T) {
	srv := NewWebServer(store.NewMemory(10), true)
	ts := httptest.NewServer(srv.Handler(""))
	defer ts.Close()

	if code, _ := get(t, ts.URL+"/api/gps"); code != http.StatusServiceUnavailable {
		t.Fatalf("before data: status %d", code)
	}

	st := sampleState()
	// The same fix twice is recorded once.
	for i := 0; i < 2; i++ {
		if err := srv.HandleSnapshot(snapshotPayload(t, st)); err != nil {
			t.Fatalf("snapshot: %v", err)
		}
	}
	loc := session.State{Name: LocationSession, Phase: session.PhaseConnecting}
	if err := srv.HandleSnapshot(snapshotPayload(t, loc)); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if err := srv.HandleSnapshot([]byte("nope")); err == nil {
		t.Fatalf("expected unmarshal error")
	}

	code, body := get(t, ts.URL+"/api/gps")
	if code != http.StatusOK {
		t.Fatalf("status %d: %s", code, body)
	}
	var got session.State
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Name != DeviceSession || got.Distance != 1234 || got.Score.Score != 77 {
		t.Fatalf("state=%+v", got)
	}

	_, body = get(t, ts.URL+"/api/gps?session=location")
	if !strings.Contains(body, `"phase":"Connecting"`) {
		t.Fatalf("location body=%s", body)
	}
	if code, _ := get(t, ts.URL+"/api/gps?session=nope"); code != http.StatusServiceUnavailable {
		t.Fatalf("unknown session: status %d", code)
	}

	_, body = get(t, ts.URL+"/api/sessions")
	var all []session.State
	if err := json.Unmarshal([]byte(body), &all); err != nil || len(all) != 2 || all[0].Name != DeviceSession {
		t.Fatalf("sessions=%s err=%v", body, err)
	}

	_, body = get(t, ts.URL+"/api/history")
	var history []store.Position
	if err := json.Unmarshal([]byte(body), &history); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if len(history) != 1 || history[0].Latitude != 48.1173 || *history[0].Satellites != 8 {
		t.Fatalf("history=%s", body)
	}

	code, body = get(t, ts.URL+"/api/history.csv")
	if code != http.StatusOK || !strings.HasPrefix(body, "Timestamp,Latitude,Longitude,Speed,Satellites,Fix Quality\n") {
		t.Fatalf("csv status %d: %s", code, body)
	}
	if !strings.Contains(body, "48.117300,-11.516667,5.00,8,GPS Fix") {
		t.Fatalf("csv=%s", body)
	}
}

func TestWebServerNoRecord(t *testing.T) {
	mem := store.NewMemory(10)
	srv := NewWebServer(mem, false)
	if err := srv.HandleSnapshot(snapshotPayload(t, sampleState())); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	history, _ := mem.History(t.Context())
	if len(history) != 0 {
		t.Fatalf("recorded %d fixes", len(history))
	}
}

func TestWebServerLiveFeed(t *testing.T) {
	srv := NewWebServer(store.NewMemory(1), false)
	ts := httptest.NewServer(srv.Handler(""))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		srv.cmu.Lock()
		n := len(srv.clients)
		srv.cmu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	srv.Broadcast([]byte(`{"kind":"phase"}`))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	typ, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if typ != websocket.TextMessage || string(msg) != `{"kind":"phase"}` {
		t.Fatalf("got %d %s", typ, msg)
	}

	conn.Close()
	deadline = time.Now().Add(2 * time.Second)
	for {
		srv.cmu.Lock()
		n := len(srv.clients)
		srv.cmu.Unlock()
		if n == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("client not removed after close")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
