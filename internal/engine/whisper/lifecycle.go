package whisper

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrAlreadyStarted is returned by Start while capture is running.
	ErrAlreadyStarted = errors.New("whisper: already started")
	// ErrClosed is returned by Start once the engine is closed.
	ErrClosed = errors.New("whisper: engine closed")
)

// lifecycle tracks the one capture run an engine may have in flight, so the
// model is only released once that run has returned.
type lifecycle struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// begin claims the run slot. The caller must call finish exactly once after
// a successful begin.
func (l *lifecycle) begin() (context.Context, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrClosed
	}
	if l.cancel != nil {
		return nil, ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})
	return ctx, nil
}

// finish releases the run slot and wakes shutdown.
func (l *lifecycle) finish() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel == nil {
		return
	}
	l.cancel()
	l.cancel = nil
	close(l.done)
	l.done = nil
}

// stop asks the current run to end without waiting for it.
func (l *lifecycle) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
}

// shutdown refuses further runs, cancels the current one and waits for its
// finish.
func (l *lifecycle) shutdown() {
	l.mu.Lock()
	l.closed = true
	done := l.done
	if l.cancel != nil {
		l.cancel()
	}
	l.mu.Unlock()
	if done != nil {
		<-done
	}
}
