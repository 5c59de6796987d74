// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package session runs one receiver connection: it reads the transport,
// frames and decodes sentences, tracks the latest fix with distance, speed
// and bearing, and publishes everything as an event stream.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/relabs-tech/gnss_tracker/internal/geo"
	"github.com/relabs-tech/gnss_tracker/internal/gps"
	"github.com/relabs-tech/gnss_tracker/internal/nmea"
	"github.com/relabs-tech/gnss_tracker/internal/store"
	"github.com/relabs-tech/gnss_tracker/internal/transport"
)

var (
	// ErrNotWritable means a command could not be sent because the session
	// is not connected or the transport refused the write.
	ErrNotWritable = errors.New("session: not writable")

	// ErrTransport wraps the I/O failure that ended a session.
	ErrTransport = errors.New("session: transport failure")

	// ErrAlreadyStarted is returned by a second Connect. Sessions are single
	// use.
	ErrAlreadyStarted = errors.New("session: already started")
)

// Decoder turns one framed line into a record. A non-nil record with a
// non-nil error is a record decoded despite a reportable problem.
type Decoder interface {
	Decode(line string) (gps.Record, error)
}

type Options struct {
	Name      string
	Transport transport.Transport
	Decoder   Decoder     // default strict NMEA
	Store     store.Store // optional

	SpeedWindow  int           // speed history length, default 10
	ReadSize     int           // bytes per read, default 512
	EventBuffer  int           // default 64
	StoreTimeout time.Duration // default 2s
	Now          func() time.Time
}

// Session is a single-use connection to one position source.
//
// Events must be drained by the caller; the decoding loop waits for room in
// the event channel.
type Session struct {
	opts Options
	tr   transport.Transport
	dec  Decoder

	mu       sync.Mutex
	started  bool
	stopping bool
	opened   bool

	stop      chan struct{}
	stopOnce  sync.Once
	closeOnce  sync.Once
	finishOnce sync.Once
	done       chan struct{}

	events  chan Event
	emitMu  sync.RWMutex
	evClose bool

	wmu   sync.Mutex
	phase atomic.Int32
	snap  atomic.Pointer[State]

	st State // owned by whoever is driving the session: Connect, then the loop
}

func New(opts Options) *Session {
	if opts.Name == "" {
		opts.Name = opts.Transport.Name()
	}
	if opts.Decoder == nil {
		opts.Decoder = nmea.Decoder{}
	}
	if opts.SpeedWindow <= 0 {
		opts.SpeedWindow = 10
	}
	if opts.ReadSize <= 0 {
		opts.ReadSize = 512
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 64
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 2 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Session{
		opts:   opts,
		tr:     opts.Transport,
		dec:    opts.Decoder,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		events: make(chan Event, opts.EventBuffer),
		st:     State{Name: opts.Name, SpeedHistory: []float64{}},
	}
	s.snap.Store(s.st.clone())
	return s
}

func (s *Session) Name() string { return s.opts.Name }

// Events is closed after the session reaches its final Disconnected phase.
func (s *Session) Events() <-chan Event { return s.events }

// Done is closed when a started session has fully stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Phase() Phase { return Phase(s.phase.Load()) }

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State { return *s.snap.Load().clone() }

// Connect opens the transport and starts the decoding loop. It returns once
// the session is Connected or has failed through Error back to
// Disconnected. Cancelling ctx later disconnects the session.
func (s *Session) Connect(ctx context.Context, filter transport.Filter) error {
	s.mu.Lock()
	if s.started || s.stopping {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	s.setPhase(PhaseConnecting)

	openCtx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-s.stop:
			cancel()
		case <-openCtx.Done():
		}
	}()
	err := s.tr.Open(openCtx, filter)
	cancel()

	if err == nil {
		s.mu.Lock()
		stopping := s.stopping
		s.opened = !stopping
		s.mu.Unlock()
		if stopping {
			s.tr.Close()
			s.setPhase(PhaseDisconnected)
			s.finish()
			return context.Canceled
		}
	}
	if err != nil {
		if s.isStopping() {
			s.setPhase(PhaseDisconnected)
		} else {
			err = fmt.Errorf("%w: open %s: %w", ErrTransport, s.tr.Name(), err)
			s.fail(err)
		}
		s.finish()
		return err
	}

	s.setPhase(PhaseConnected)
	go s.run()
	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				s.Disconnect()
			case <-s.done:
			}
		}()
	}
	return nil
}

// Disconnect stops the loop, releases the transport and waits for the
// session to reach Disconnected. On a session that was never connected it
// closes Events and Done. Calling it again does nothing.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.stopping = true
	started, opened := s.started, s.opened
	s.mu.Unlock()

	s.stopOnce.Do(func() { close(s.stop) })
	if !started {
		s.finish()
		return
	}
	if opened {
		s.closeTransport()
	}
	<-s.done
}

// Send writes a command to the receiver. Each line of command is sent
// CRLF-terminated. It fails with ErrNotWritable unless the session is
// Connected.
func (s *Session) Send(command string) error {
	var lines []string
	for _, line := range strings.Split(command, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return fmt.Errorf("%w: empty command", ErrNotWritable)
	}

	if p := s.Phase(); p != PhaseConnected {
		err := fmt.Errorf("%w: session %s is %s", ErrNotWritable, s.opts.Name, p)
		s.tryEmit(s.diagEvent(DiagCommandRejected, command, err.Error()))
		return err
	}

	payload := strings.Join(lines, "\r\n") + "\r\n"
	s.wmu.Lock()
	_, err := s.tr.Write([]byte(payload))
	s.wmu.Unlock()
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrNotWritable, err)
		s.tryEmit(s.diagEvent(DiagCommandRejected, command, err.Error()))
		return err
	}
	log.Printf("session[%s]: sent %d command line(s)", s.opts.Name, len(lines))
	return nil
}

func (s *Session) isStopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}

func (s *Session) closeTransport() {
	s.closeOnce.Do(func() {
		if err := s.tr.Close(); err != nil {
			log.Printf("session[%s]: close %s: %v", s.opts.Name, s.tr.Name(), err)
		}
	})
}

// finish closes the event stream and marks the session done.
func (s *Session) finish() {
	s.finishOnce.Do(func() {
		s.emitMu.Lock()
		s.evClose = true
		close(s.events)
		s.emitMu.Unlock()
		close(s.done)
	})
}

func (s *Session) run() {
	defer s.finish()

	var buf nmea.Buffer
	chunk := make([]byte, s.opts.ReadSize)
	for {
		n, err := s.tr.Read(chunk)
		if n > 0 {
			var lines []string
			buf, lines = nmea.Frame(buf, chunk[:n])
			for _, line := range lines {
				s.handleLine(line)
			}
			if buf.Len() > nmea.MaxPendingLine {
				s.st.Stats.Overflows++
				s.emit(s.diagEvent(DiagFramingOverflow, "",
					fmt.Sprintf("dropped %d bytes without a line terminator", buf.Len())))
				buf = nmea.Buffer{}
				s.publish()
			}
		}
		if err != nil {
			if s.isStopping() {
				s.closeTransport()
				s.setPhase(PhaseDisconnected)
				return
			}
			s.fail(fmt.Errorf("%w: read %s: %w", ErrTransport, s.tr.Name(), err))
			s.closeTransport()
			return
		}
	}
}

// fail reports err and walks Error -> Disconnected.
func (s *Session) fail(err error) {
	log.Printf("session[%s]: %v", s.opts.Name, err)
	s.st.Error = err.Error()
	s.emit(s.diagEvent(DiagTransportIO, "", err.Error()))
	s.setPhase(PhaseError)
	s.setPhase(PhaseDisconnected)
}

func (s *Session) handleLine(line string) {
	now := s.opts.Now()
	s.st.Stats.Sentences++

	rec, err := s.dec.Decode(line)
	if err != nil {
		switch {
		case errors.Is(err, nmea.ErrUnsupported):
			s.st.Stats.Unsupported++
		case errors.Is(err, nmea.ErrChecksumMismatch):
			s.st.Stats.ChecksumFailures++
			s.emit(s.diagEvent(DiagChecksumMismatch, line, err.Error()))
		default:
			s.st.Stats.Malformed++
			s.emit(s.diagEvent(DiagMalformedField, line, err.Error()))
		}
		if rec == nil {
			s.publish()
			return
		}
	}

	s.st.Stats.Decoded++
	s.emit(Event{Kind: EventRecord, Record: rec, RecordKind: rec.Kind()})

	// The state keeps its own copies; the record and score in the events
	// belong to the consumer.
	switch r := rec.(type) {
	case gps.GGA:
		score := gps.Score(r.FixQuality, r.Satellites, r.HDOP)
		kept := score
		s.st.LastGGA = &r
		s.st.Score = &kept
		s.emit(Event{Kind: EventScore, Score: &score})
	case gps.RMC:
		r = copyRMC(r)
		s.st.LastRMC = &r
	case gps.GSA:
		r = copyGSA(r)
		s.st.LastGSA = &r
	case gps.LocationFix:
		r = copyLocation(r)
		s.st.LastLocation = &r
	}

	if loc, ok := rec.(gps.Locator); ok {
		if pos, ok := loc.Locate(); ok {
			s.advance(Fix{Position: pos, ReceivedAt: now, Source: rec.Kind()})
			return
		}
	}
	s.publish()
}

// advance moves the session to a new fix and derives distance, speed and
// bearing from the previous one.
func (s *Session) advance(fix Fix) {
	if prev := s.st.Latest; prev != nil {
		a := geo.Point{Lat: prev.Latitude, Lon: prev.Longitude}
		b := geo.Point{Lat: fix.Latitude, Lon: fix.Longitude}
		d := geo.Distance(a, b)
		elapsed := elapsedBetween(*prev, fix)

		s.st.Distance += d
		s.st.Speed = geo.DeriveSpeed(s.st.Speed, d, elapsed)
		if elapsed > 0 {
			s.st.SpeedHistory = append(s.st.SpeedHistory, s.st.Speed)
			if over := len(s.st.SpeedHistory) - s.opts.SpeedWindow; over > 0 {
				s.st.SpeedHistory = append([]float64{}, s.st.SpeedHistory[over:]...)
			}
		}
		if d > 0 {
			s.st.Bearing = geo.Bearing(a, b)
		}
		s.st.Previous = prev
	}
	s.st.Latest = &fix

	s.persist()
	s.publish()
	s.emit(Event{Kind: EventSnapshot, State: s.snap.Load().clone()})
}

// elapsedBetween prefers receiver time-of-day, which does not suffer from
// transport buffering, and falls back to arrival time.
func elapsedBetween(a, b Fix) time.Duration {
	if a.HasTime && b.HasTime {
		d := b.TimeOfDay - a.TimeOfDay
		if d < -12*time.Hour {
			d += 24 * time.Hour
		}
		return d
	}
	return b.ReceivedAt.Sub(a.ReceivedAt)
}

func (s *Session) persist() {
	if s.opts.Store == nil {
		return
	}
	p, ok := s.st.StoreRecord()
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.StoreTimeout)
	defer cancel()
	if err := s.opts.Store.Write(ctx, p); err != nil {
		log.Printf("session[%s]: store write: %v", s.opts.Name, err)
		s.emit(s.diagEvent(DiagStorageFailed, "", err.Error()))
	}
}

func (s *Session) setPhase(p Phase) {
	s.phase.Store(int32(p))
	s.st.Phase = p
	log.Printf("session[%s]: %s", s.opts.Name, p)
	s.publish()
	s.emit(Event{Kind: EventPhase})
}

// publish makes the working state visible to readers.
func (s *Session) publish() {
	s.st.UpdatedAt = s.opts.Now()
	s.snap.Store(s.st.clone())
}

func (s *Session) diagEvent(kind DiagnosticKind, sentence, msg string) Event {
	return Event{Kind: EventDiagnostic, Diagnostic: &Diagnostic{Kind: kind, Sentence: sentence, Message: msg}}
}

func (s *Session) stamp(ev Event) Event {
	ev.Session = s.opts.Name
	ev.At = s.opts.Now()
	ev.Phase = s.Phase()
	return ev
}

// emit delivers ev, waiting for room unless the session is stopping.
func (s *Session) emit(ev Event) {
	ev = s.stamp(ev)
	s.emitMu.RLock()
	defer s.emitMu.RUnlock()
	if s.evClose {
		return
	}
	select {
	case s.events <- ev:
		return
	default:
	}
	select {
	case s.events <- ev:
	case <-s.stop:
	}
}

// tryEmit delivers ev only if there is room. Used outside the loop.
func (s *Session) tryEmit(ev Event) {
	ev = s.stamp(ev)
	s.emitMu.RLock()
	defer s.emitMu.RUnlock()
	if s.evClose {
		return
	}
	select {
	case s.events <- ev:
	default:
	}
}
