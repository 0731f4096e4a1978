// Package replay is a speech engine that plays back a scripted sequence of
// signals. It stands in for a live recognizer in demos and tests.
package replay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"earshot/pkg/speech"

	"github.com/sirupsen/logrus"
)

// ErrAlreadyStarted is returned by Start while a playback is running.
var ErrAlreadyStarted = errors.New("replay: already started")

// Error is the payload delivered for scripted error steps.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return "replay: " + e.Code
	}
	return fmt.Sprintf("replay: %s: %s", e.Code, e.Message)
}

// Engine replays a Script each time it is started.
type Engine struct {
	script Script
	speed  float64
	logger logrus.FieldLogger

	mu       sync.Mutex
	settings speech.Settings
	handler  speech.Handler
	cancel   context.CancelFunc
	done     chan struct{}
}

// New returns an engine for script. speed scales delays; <=0 means 1.
func New(script Script, speed float64, logger logrus.FieldLogger) *Engine {
	if speed <= 0 {
		speed = 1
	}
	return &Engine{script: script, speed: speed, logger: logger}
}

// Configure stores the settings used by the next Start.
func (e *Engine) Configure(s speech.Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = s
}

// SetHandler sets where playback events go.
func (e *Engine) SetHandler(h speech.Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = h
}

// Start begins playing the script from its first step.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		return ErrAlreadyStarted
	}
	if e.handler == nil {
		return errors.New("replay: no handler")
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	go e.play(ctx, e.handler, e.settings, e.done)
	return nil
}

// Stop cancels playback. The handler still gets OnEnd.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
	return nil
}

// Wait blocks until the current playback, if any, has delivered its end.
func (e *Engine) Wait() {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (e *Engine) play(ctx context.Context, h speech.Handler, settings speech.Settings, done chan struct{}) {
	defer func() {
		e.mu.Lock()
		e.cancel()
		e.cancel = nil
		e.mu.Unlock()
		h.OnEnd()
		close(done)
	}()

	h.OnStart()
	var (
		slots []speech.Result
		cur   int
	)
	for i, st := range e.script.Steps {
		if !e.wait(ctx, st.delay) {
			return
		}
		switch {
		case st.End:
			return
		case st.Error != "":
			h.OnError(&Error{Code: st.Error, Message: st.Message})
			continue
		}
		idx := cur
		if st.Index != nil {
			idx = *st.Index
		}
		if !st.Final && !settings.InterimResults {
			continue
		}
		for len(slots) <= idx {
			slots = append(slots, speech.Result{})
		}
		slots[idx] = speech.Result{Alternatives: alternatives(st), Final: st.Final}
		if e.logger != nil {
			e.logger.WithFields(logrus.Fields{"step": i, "index": idx, "final": st.Final}).Debug("replay result")
		}
		h.OnResult(speech.ResultEvent{
			ResultIndex: idx,
			Results:     append([]speech.Result(nil), slots...),
		})
		if st.Final {
			cur = idx + 1
			if !settings.Continuous {
				return
			}
		}
	}
}

func (e *Engine) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	}
	t := time.NewTimer(time.Duration(float64(d) / e.speed))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func alternatives(st Step) []speech.Alternative {
	out := make([]speech.Alternative, 0, 1+len(st.Alternatives))
	if st.Text != "" {
		out = append(out, speech.Alternative{Transcript: st.Text, Confidence: 1})
	}
	for _, a := range st.Alternatives {
		out = append(out, speech.Alternative{Transcript: a})
	}
	return out
}
