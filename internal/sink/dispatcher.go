package sink

import (
	"context"
	"errors"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/sirupsen/logrus"
)

// Delivery outcomes reported to the dispatcher's observer.
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
	// OutcomeDropped marks a transcript that arrived after Close.
	OutcomeDropped = "dropped"
)

// Observer is told how each delivery went.
type Observer func(sink, outcome string)

// Dispatcher fans transcripts out to sinks on a bounded worker pool.
// Deliveries to different sinks run concurrently. Order within one sink is
// not guaranteed once workers > 1.
type Dispatcher struct {
	sinks    []Sink
	pool     *workerpool.WorkerPool
	logger   logrus.FieldLogger
	observe  Observer
	ctx      context.Context
	cancel   context.CancelFunc
	closeOne sync.Once

	// mu orders Submit against pool shutdown; Submit panics on a stopped pool.
	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(workers int, sinks []Sink, logger logrus.FieldLogger, observe Observer) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if observe == nil {
		observe = func(string, string) {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		sinks:   sinks,
		pool:    workerpool.New(workers),
		logger:  logger,
		observe: observe,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Sinks returns the configured sink names.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		names = append(names, s.Name())
	}
	return names
}

// Dispatch queues t for every sink that wants it. It never blocks on
// delivery. After Close, transcripts are dropped and reported as such.
func (d *Dispatcher) Dispatch(t Transcript) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, s := range d.sinks {
		if !s.Wants(t) {
			continue
		}
		if d.closed {
			d.logger.WithFields(logrus.Fields{"sink": s.Name(), "transcript": t.ID}).Debug("dispatcher closed, dropping")
			d.observe(s.Name(), OutcomeDropped)
			continue
		}
		s := s
		d.pool.Submit(func() { d.deliver(s, t) })
	}
}

func (d *Dispatcher) deliver(s Sink, t Transcript) {
	err := s.Deliver(d.ctx, t)
	log := d.logger.WithFields(logrus.Fields{"sink": s.Name(), "transcript": t.ID})
	switch {
	case err == nil:
		d.observe(s.Name(), OutcomeOK)
	case errors.Is(err, ErrSkipped):
		log.Debugf("delivery skipped: %v", err)
		d.observe(s.Name(), OutcomeSkipped)
	default:
		log.Warnf("delivery failed: %v", err)
		d.observe(s.Name(), OutcomeError)
	}
}

// Pending reports queued deliveries.
func (d *Dispatcher) Pending() int {
	return d.pool.WaitingQueueSize()
}

// Close waits for queued deliveries, then releases the workers.
func (d *Dispatcher) Close() {
	d.closeOne.Do(func() {
		d.markClosed()
		d.pool.StopWait()
		d.cancel()
	})
}

// Abort cancels in-flight deliveries and drops the queue.
func (d *Dispatcher) Abort() {
	d.closeOne.Do(func() {
		d.markClosed()
		d.cancel()
		d.pool.Stop()
	})
}

func (d *Dispatcher) markClosed() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}
