package speech

import (
	"sync"
	"time"
)

// EventType names one of the events a Session emits.
type EventType string

const (
	EventStart         EventType = "start"
	EventFinalResult   EventType = "finalResult"
	EventInterimResult EventType = "interimResult"
	EventError         EventType = "error"
	EventEnd           EventType = "end"
)

// EventTypes lists every event a Session can emit.
var EventTypes = []EventType{EventStart, EventFinalResult, EventInterimResult, EventError, EventEnd}

// Event is delivered to listeners. Transcript is set for finalResult and
// interimResult, Err for error.
type Event struct {
	Type       EventType
	Transcript string
	Err        error
	SessionID  string
	Time       time.Time
}

// Listener handles one event.
type Listener func(Event)

type subscription struct {
	id uint64
	fn Listener
}

type emitter struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[EventType][]subscription
}

func newEmitter() *emitter {
	return &emitter{listeners: make(map[EventType][]subscription)}
}

func (e *emitter) on(t EventType, fn Listener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.listeners[t] = append(e.listeners[t], subscription{id: id, fn: fn})
	var once sync.Once
	return func() {
		once.Do(func() { e.off(t, id) })
	}
}

func (e *emitter) off(t EventType, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	subs := e.listeners[t]
	for i, s := range subs {
		if s.id == id {
			e.listeners[t] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

func (e *emitter) emit(ev Event) {
	e.mu.RLock()
	subs := append([]subscription(nil), e.listeners[ev.Type]...)
	e.mu.RUnlock()
	for _, s := range subs {
		s.fn(ev)
	}
}
