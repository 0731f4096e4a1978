// Package speechtest provides an in-memory speech.Engine for tests.
package speechtest

import (
	"sync"

	"earshot/pkg/speech"
)

// Engine records requests and lets tests deliver signals by hand.
type Engine struct {
	mu         sync.Mutex
	handler    speech.Handler
	settings   speech.Settings
	configured int
	starts     int
	stops      int

	// StartErr and StopErr are returned from Start and Stop when set.
	StartErr error
	StopErr  error
	// EchoStart delivers the start signal from within Start.
	EchoStart bool
	// EchoEnd delivers the end signal from within Stop.
	EchoEnd bool
}

func New() *Engine { return &Engine{} }

// SetStartErr changes StartErr while other goroutines may call Start.
func (e *Engine) SetStartErr(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.StartErr = err
}

func (e *Engine) Configure(s speech.Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = s
	e.configured++
}

func (e *Engine) SetHandler(h speech.Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = h
}

func (e *Engine) Start() error {
	e.mu.Lock()
	e.starts++
	err, echo := e.StartErr, e.EchoStart
	e.mu.Unlock()
	if err != nil {
		return err
	}
	if echo {
		e.SignalStart()
	}
	return nil
}

func (e *Engine) Stop() error {
	e.mu.Lock()
	e.stops++
	err, echo := e.StopErr, e.EchoEnd
	e.mu.Unlock()
	if err != nil {
		return err
	}
	if echo {
		e.SignalEnd()
	}
	return nil
}

// Settings returns the last configured settings.
func (e *Engine) Settings() speech.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// Configured counts Configure calls.
func (e *Engine) Configured() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.configured
}

// Starts counts Start calls that reached the engine.
func (e *Engine) Starts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.starts
}

// Stops counts Stop calls that reached the engine.
func (e *Engine) Stops() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stops
}

func (e *Engine) h() speech.Handler {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handler
}

func (e *Engine) SignalStart() { e.h().OnStart() }
func (e *Engine) SignalResult(r speech.ResultEvent) { e.h().OnResult(r) }
func (e *Engine) SignalError(err error) { e.h().OnError(err) }
func (e *Engine) SignalEnd() { e.h().OnEnd() }

// Slot is a shorthand for one result slot with a single alternative.
type Slot struct {
	Text  string
	Final bool
}

// Results builds a result event updating index, with one alternative per slot.
func Results(index int, slots ...Slot) speech.ResultEvent {
	out := make([]speech.Result, len(slots))
	for i, s := range slots {
		out[i] = speech.Result{
			Alternatives: []speech.Alternative{{Transcript: s.Text, Confidence: 1}},
			Final:        s.Final,
		}
	}
	return speech.ResultEvent{ResultIndex: index, Results: out}
}
