package slots

import "testing"

func TestUpdateRevisesOpenSlot(t *testing.T) {
	var tr Tracker
	ev := tr.Update("he", false)
	if ev.ResultIndex != 0 || len(ev.Results) != 1 {
		t.Fatalf("first update = %+v", ev)
	}
	ev = tr.Update("hello", true)
	if ev.ResultIndex != 0 || !ev.Results[0].Final || ev.Results[0].Alternatives[0].Transcript != "hello" {
		t.Fatalf("final update = %+v", ev)
	}
	ev = tr.Update("next", false)
	if ev.ResultIndex != 1 || len(ev.Results) != 2 {
		t.Fatalf("new slot not opened: %+v", ev)
	}
	if ev.Results[0].Alternatives[0].Transcript != "hello" {
		t.Fatalf("earlier slot changed: %+v", ev.Results[0])
	}
}

func TestOpenAndReset(t *testing.T) {
	var tr Tracker
	if _, ok := tr.Open(); ok {
		t.Fatalf("empty tracker has open slot")
	}
	tr.Update("draft", false)
	if text, ok := tr.Open(); !ok || text != "draft" {
		t.Fatalf("open = %q %v", text, ok)
	}
	tr.Update("draft done", true)
	if _, ok := tr.Open(); ok {
		t.Fatalf("final slot reported open")
	}
	tr.Reset()
	if ev := tr.Update("again", true); ev.ResultIndex != 0 {
		t.Fatalf("reset did not clear slots: %+v", ev)
	}
}

func TestEventsDoNotAlias(t *testing.T) {
	var tr Tracker
	first := tr.Update("a", false)
	tr.Update("ab", false)
	if first.Results[0].Alternatives[0].Transcript != "a" {
		t.Fatalf("earlier event mutated")
	}
}
