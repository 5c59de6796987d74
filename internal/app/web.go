// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/gnss_tracker/internal/config"
	"github.com/relabs-tech/gnss_tracker/internal/publish"
	"github.com/relabs-tech/gnss_tracker/internal/session"
	"github.com/relabs-tech/gnss_tracker/internal/store"
)

// WebServer serves the latest session snapshots, the stored history and a
// live websocket feed of everything published on the gnss topics.
type WebServer struct {
	history store.Store
	record  bool // write incoming fixes to history

	mu       sync.RWMutex
	states   map[string]session.State
	recorded map[string]time.Time

	upgrader websocket.Upgrader
	cmu      sync.Mutex
	clients  map[chan []byte]struct{}
}

// NewWebServer serves history from st. With record set the server also
// fills st from received snapshots, for when no producer shares the store.
func NewWebServer(st store.Store, record bool) *WebServer {
	return &WebServer{
		history:  st,
		record:   record,
		states:   make(map[string]session.State),
		recorded: make(map[string]time.Time),
		clients:  make(map[chan []byte]struct{}),
	}
}

func RunWeb() error {
	cfg := config.Get()
	t := topics(cfg)

	// Without a shared backend the web server keeps its own history.
	srv := NewWebServer(newStore(cfg), cfg.StoreBackend == config.StoreMemory)

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe: snapshots update the API, everything goes to the live feed
	for _, topic := range []string{t.Snapshot, t.Position, t.Velocity, t.Satellites, t.Quality, t.Status} {
		isSnapshot := topic == t.Snapshot
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			if isSnapshot {
				if err := srv.HandleSnapshot(msg.Payload()); err != nil {
					log.Printf("web: snapshot unmarshal error: %v", err)
					return
				}
			}
			srv.Broadcast(msg.Payload())
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("web: subscribed to %s", topic)
	}

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, srv.Handler("web"))
}

// Handler returns the API routes plus static files from staticDir.
func (s *WebServer) Handler(staticDir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/gps", s.handleGPS)
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/history.csv", s.handleHistoryCSV)
	mux.HandleFunc("/ws", s.handleWS)
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}

// HandleSnapshot records a snapshot envelope from the snapshot topic.
func (s *WebServer) HandleSnapshot(payload []byte) error {
	var env publish.Envelope[session.State]
	if err := json.Unmarshal(payload, &env); err != nil {
		return err
	}
	st := env.Data
	if st.Name == "" {
		st.Name = env.Session
	}

	s.mu.Lock()
	s.states[st.Name] = st
	write := false
	if s.record && st.Latest != nil && !st.Latest.ReceivedAt.Equal(s.recorded[st.Name]) {
		s.recorded[st.Name] = st.Latest.ReceivedAt
		write = true
	}
	s.mu.Unlock()

	if write {
		if p, ok := st.StoreRecord(); ok {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.history.Write(ctx, p); err != nil {
				log.Printf("web: history write: %v", err)
			}
		}
	}
	return nil
}

// Broadcast sends payload to every websocket client. Clients that fall
// behind miss messages.
func (s *WebServer) Broadcast(payload []byte) {
	s.cmu.Lock()
	defer s.cmu.Unlock()
	for ch := range s.clients {
		select {
		case ch <- payload:
		default:
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

// handleGPS returns one session: ?session=name, else the device session,
// else the first by name.
func (s *WebServer) handleGPS(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name := r.URL.Query().Get("session")
	if name == "" {
		name = DeviceSession
		if _, ok := s.states[name]; !ok {
			if names := s.sortedNames(); len(names) > 0 {
				name = names[0]
			}
		}
	}
	st, ok := s.states[name]
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, st)
}

func (s *WebServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]session.State, 0, len(s.states))
	for _, name := range s.sortedNames() {
		out = append(out, s.states[name])
	}
	writeJSON(w, out)
}

func (s *WebServer) sortedNames() []string {
	names := make([]string, 0, len(s.states))
	for name := range s.states {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *WebServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.history.History(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, history)
}

func (s *WebServer) handleHistoryCSV(w http.ResponseWriter, r *http.Request) {
	history, err := s.history.History(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="gps_history.csv"`)
	if err := store.WriteCSV(w, history); err != nil {
		log.Printf("web: csv write error: %v", err)
	}
}

func (s *WebServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade: %v", err)
		return
	}
	ch := make(chan []byte, 32)
	s.cmu.Lock()
	s.clients[ch] = struct{}{}
	s.cmu.Unlock()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		s.cmu.Lock()
		delete(s.clients, ch)
		s.cmu.Unlock()
		conn.Close()
	}()
	for {
		select {
		case <-closed:
			return
		case msg := <-ch:
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}
