// Package slots accumulates utterance slots for engines whose backends only
// report "partial text" and "final text" for the current utterance.
package slots

import (
	"sync"

	"earshot/pkg/speech"
)

// Tracker is safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	slots []speech.Result
}

// Update rewrites the open slot, or opens a new one when the last slot is
// final, and returns the event to deliver.
func (t *Tracker) Update(text string, final bool) speech.ResultEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := len(t.slots)
	if idx > 0 && !t.slots[idx-1].Final {
		idx--
	} else {
		t.slots = append(t.slots, speech.Result{})
	}
	t.slots[idx] = speech.Result{
		Alternatives: []speech.Alternative{{Transcript: text}},
		Final:        final,
	}
	return speech.ResultEvent{
		ResultIndex: idx,
		Results:     append([]speech.Result(nil), t.slots...),
	}
}

// Open returns the transcript of the slot still being revised.
func (t *Tracker) Open() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.slots)
	if n == 0 || t.slots[n-1].Final {
		return "", false
	}
	return t.slots[n-1].Alternatives[0].Transcript, true
}

// Reset forgets every slot.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.slots = nil
}
