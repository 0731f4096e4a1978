package sink

import (
	"context"

	"github.com/gen2brain/beeep"
)

// NotifySink shows a desktop notification per final transcript.
type NotifySink struct {
	title    string
	maxChars int
	notify   func(title, message, icon string) error
}

func NewNotifySink(title string, maxChars int) *NotifySink {
	return &NotifySink{title: title, maxChars: maxChars, notify: beeep.Notify}
}

func (n *NotifySink) Name() string { return "notify" }

func (n *NotifySink) Wants(t Transcript) bool { return t.Final }

func (n *NotifySink) Deliver(_ context.Context, t Transcript) error {
	text := t.Text
	if n.maxChars > 0 && len([]rune(text)) > n.maxChars {
		text = string([]rune(text)[:n.maxChars]) + "..."
	}
	return n.notify(n.title, text, "")
}
