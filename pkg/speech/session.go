// Package speech wraps a recognition engine in a session that merges options,
// relays engine signals as typed events, suppresses redundant interim
// transcripts and can restart itself when the engine ends.
package speech

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrRestartFailed wraps the engine error of a failed automatic restart. The
// session stays inactive afterwards.
var ErrRestartFailed = errors.New("auto-restart failed")

// Session is a stateful facade over one engine for the session's lifetime.
type Session struct {
	id     string
	opts   Options
	engine Engine
	log    logrus.FieldLogger
	events *emitter
	now    func() time.Time

	mu            sync.Mutex
	active        bool
	manualStopped bool
	history       []string
	lastIndex     int
	lastResult    string
}

// SessionOption customizes NewSession.
type SessionOption func(*Session)

// WithLogger sets the logger used for debug traces.
func WithLogger(l logrus.FieldLogger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithID overrides the generated session id.
func WithID(id string) SessionOption {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// Snapshot is a copy of the session state.
type Snapshot struct {
	ID            string         `json:"id"`
	Active        bool           `json:"active"`
	ManualStopped bool           `json:"manual_stopped"`
	History       []string       `json:"history"`
	LastIndex     int            `json:"last_index"`
	LastResult    string         `json:"last_result"`
	Options       map[string]any `json:"options"`
}

// NewSession configures engine with opts and takes it over. The engine's
// handler is replaced by the session.
func NewSession(engine Engine, opts Options, options ...SessionOption) *Session {
	s := &Session{
		id:        uuid.NewString(),
		opts:      opts,
		engine:    engine,
		log:       logrus.StandardLogger(),
		events:    newEmitter(),
		now:       time.Now,
		lastIndex: -1,
	}
	for _, o := range options {
		o(s)
	}
	s.log = s.log.WithField("session", s.id)
	engine.Configure(opts.Settings())
	engine.SetHandler(signals{s})
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Options returns the resolved options.
func (s *Session) Options() Options { return s.opts }

// Start asks the engine to begin recognizing. It is a no-op while active.
// The session only becomes active once the engine signals start, so two
// calls before that signal both reach the engine.
func (s *Session) Start() error {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if active {
		return nil
	}
	if err := s.engine.Start(); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	return nil
}

// Stop asks the engine to stop and disables auto-restart until the next
// start signal. It is a no-op while inactive.
func (s *Session) Stop() error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return nil
	}
	s.manualStopped = true
	s.mu.Unlock()
	if err := s.engine.Stop(); err != nil {
		return fmt.Errorf("stop engine: %w", err)
	}
	return nil
}

// On subscribes fn to events of type t and returns its unsubscribe func.
func (s *Session) On(t EventType, fn Listener) func() {
	return s.events.on(t, fn)
}

// OnStart subscribes to start events.
func (s *Session) OnStart(fn func()) func() {
	return s.On(EventStart, func(Event) { fn() })
}

// OnFinalResult subscribes to finalized transcripts.
func (s *Session) OnFinalResult(fn func(string)) func() {
	return s.On(EventFinalResult, func(e Event) { fn(e.Transcript) })
}

// OnInterimResult subscribes to provisional transcripts.
func (s *Session) OnInterimResult(fn func(string)) func() {
	return s.On(EventInterimResult, func(e Event) { fn(e.Transcript) })
}

// OnError subscribes to engine errors.
func (s *Session) OnError(fn func(error)) func() {
	return s.On(EventError, func(e Event) { fn(e.Err) })
}

// OnEnd subscribes to end events.
func (s *Session) OnEnd(fn func()) func() {
	return s.On(EventEnd, func(Event) { fn() })
}

// Active reports whether the engine has signalled start and not yet ended.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// ManualStopped reports whether Stop was called since the last start signal.
func (s *Session) ManualStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manualStopped
}

// History returns the finalized transcripts since the last start.
func (s *Session) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.history...)
}

// LastIndex is the slot index of the last engine result, or -1 before any.
func (s *Session) LastIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastIndex
}

// LastResult is the longest transcript seen for the slot at LastIndex.
func (s *Session) LastResult() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

// Snapshot returns all state under one lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:            s.id,
		Active:        s.active,
		ManualStopped: s.manualStopped,
		History:       append([]string{}, s.history...),
		LastIndex:     s.lastIndex,
		LastResult:    s.lastResult,
		Options:       s.opts.Map(),
	}
}

func (s *Session) emit(t EventType, transcript string, err error) {
	s.events.emit(Event{
		Type:       t,
		Transcript: transcript,
		Err:        err,
		SessionID:  s.id,
		Time:       s.now(),
	})
}

func (s *Session) handleStart() {
	s.mu.Lock()
	s.active = true
	s.manualStopped = false
	s.mu.Unlock()
	s.emit(EventStart, "", nil)
}

func (s *Session) handleResult(e ResultEvent) {
	if len(e.Results) == 0 {
		return
	}
	if e.ResultIndex < 0 || e.ResultIndex >= len(e.Results) {
		return
	}
	slot := e.Results[e.ResultIndex]
	if len(slot.Alternatives) == 0 {
		return
	}
	transcript := strings.TrimLeftFunc(slot.Alternatives[0].Transcript, unicode.IsSpace)

	s.mu.Lock()
	if e.ResultIndex != s.lastIndex {
		s.lastIndex = e.ResultIndex
		s.lastResult = ""
	}
	// Order matters: an equal final transcript must still pass.
	if transcript == s.lastResult && !slot.Final {
		s.mu.Unlock()
		return
	}
	if utf8.RuneCountInString(transcript) < utf8.RuneCountInString(s.lastResult) {
		s.mu.Unlock()
		return
	}
	s.lastResult = transcript
	if slot.Final {
		s.history = append(s.history, transcript)
	}
	s.mu.Unlock()

	if slot.Final {
		s.emit(EventFinalResult, transcript, nil)
	} else {
		s.emit(EventInterimResult, transcript, nil)
	}
	if s.opts.Debugging {
		if slot.Final {
			s.log.Info(transcript + " (final)")
		} else {
			s.log.Info(transcript)
		}
	}
}

func (s *Session) handleError(err error) {
	s.emit(EventError, "", err)
}

func (s *Session) handleEnd() {
	s.mu.Lock()
	s.active = false
	s.history = nil
	s.lastIndex = -1
	s.lastResult = ""
	restart := s.opts.AutoRestart && !s.manualStopped
	s.mu.Unlock()

	s.emit(EventEnd, "", nil)
	if !restart {
		return
	}
	// No backoff: an engine that ends immediately restarts immediately.
	if err := s.Start(); err != nil {
		s.log.WithError(err).Warn("auto-restart failed")
		s.emit(EventError, "", fmt.Errorf("%w: %w", ErrRestartFailed, err))
	}
}

// signals adapts engine callbacks onto the session.
type signals struct{ s *Session }

func (h signals) OnStart() { h.s.handleStart() }
func (h signals) OnResult(e ResultEvent) { h.s.handleResult(e) }
func (h signals) OnError(err error) { h.s.handleError(err) }
func (h signals) OnEnd() { h.s.handleEnd() }
