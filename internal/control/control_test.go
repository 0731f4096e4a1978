package control

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"earshot/internal/config"
	"earshot/internal/engine/replay"
	"earshot/internal/logging"
	"earshot/pkg/speech"
	"earshot/pkg/speech/speechtest"

	"github.com/goccy/go-json"
)

func replaySession(t *testing.T, script string, opts speech.Options) *speech.Session {
	t.Helper()
	sc, err := replay.Parse([]byte(script))
	if err != nil {
		t.Fatalf("parse script: %v", err)
	}
	eng := replay.New(sc, 0, logging.NewTestLogger())
	return speech.NewSession(eng, opts, speech.WithLogger(logging.NewTestLogger()))
}

const twoUtterances = `
steps:
  - text: hel
  - text: hello
    final: true
  - text: world
    final: true
`

func TestListenPrintsEventsUntilEnd(t *testing.T) {
	opts := speech.ResolveOptions(map[string]any{"continuous": true, "interimResults": true})
	session := replaySession(t, twoUtterances, opts)
	var out bytes.Buffer
	p := &printer{w: &out, interim: true}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := listen(ctx, session, false, p); err != nil {
		t.Fatalf("listen: %v", err)
	}
	got := out.String()
	for _, want := range []string{"-- listening", "... hel", "  hello\n", "  world\n", "-- ended"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
}

func TestListenJSONLines(t *testing.T) {
	opts := speech.ResolveOptions(map[string]any{"continuous": true})
	session := replaySession(t, twoUtterances, opts)
	var out bytes.Buffer
	p := &printer{w: &out, json: true}
	if err := listen(context.Background(), session, false, p); err != nil {
		t.Fatalf("listen: %v", err)
	}
	var types []speech.EventType
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var ev eventLine
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		types = append(types, ev.Type)
	}
	want := []speech.EventType{speech.EventStart, speech.EventFinalResult, speech.EventFinalResult, speech.EventEnd}
	if len(types) != len(want) {
		t.Fatalf("types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("types = %v, want %v", types, want)
		}
	}
}

func TestListenStopsOnCancel(t *testing.T) {
	opts := speech.ResolveOptions(map[string]any{"continuous": true, "autoRestart": true})
	session := replaySession(t, "steps:\n  - after: 10s\n    text: never\n    final: true\n", opts)
	var out bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	if err := listen(ctx, session, true, &printer{w: &out}); err != nil {
		t.Fatalf("listen: %v", err)
	}
	if session.Active() {
		t.Fatalf("session still active after cancel")
	}
	if !session.ManualStopped() {
		t.Fatalf("cancel should count as a manual stop")
	}
}

func TestListenReturnsFailedRestart(t *testing.T) {
	eng := speechtest.New()
	eng.EchoStart = true
	session := speech.NewSession(eng, speech.Options{AutoRestart: true}, speech.WithLogger(logging.NewTestLogger()))
	var out bytes.Buffer

	errc := make(chan error, 1)
	go func() { errc <- listen(context.Background(), session, true, &printer{w: &out}) }()

	deadline := time.Now().Add(2 * time.Second)
	for !session.Active() {
		if time.Now().After(deadline) {
			t.Fatalf("session never started")
		}
		time.Sleep(5 * time.Millisecond)
	}
	busy := errors.New("device busy")
	eng.SetStartErr(busy)
	eng.SignalEnd()

	select {
	case err := <-errc:
		if !errors.Is(err, speech.ErrRestartFailed) || !errors.Is(err, busy) {
			t.Fatalf("listen = %v, want failed restart wrapping %v", err, busy)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("listen hung after a failed restart")
	}
}

func TestPlainPrinterOnlyFinals(t *testing.T) {
	var out bytes.Buffer
	p := &printer{w: &out, plain: true}
	p.print(speech.Event{Type: speech.EventInterimResult, Transcript: "draft"})
	p.print(speech.Event{Type: speech.EventFinalResult, Transcript: "done"})
	if out.String() != "done\n" {
		t.Fatalf("plain output = %q", out.String())
	}
}

func TestMergeOpts(t *testing.T) {
	base := map[string]any{"continuous": true, "lang": "en-US"}
	got, err := mergeOpts(base, []string{"lang=de-DE", "autoRestart = false", "vendorKey=x"})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	opts := speech.ResolveOptions(got)
	if opts.Lang != "de-DE" || opts.AutoRestart || !opts.Continuous {
		t.Fatalf("resolved = %+v", opts)
	}
	if opts.Extra["vendorKey"] != "x" {
		t.Fatalf("unknown key dropped: %+v", opts.Extra)
	}
	if base["lang"] != "en-US" {
		t.Fatalf("base mutated")
	}
	if _, err := mergeOpts(nil, []string{"novalue"}); err == nil {
		t.Fatalf("expected error for missing '='")
	}
}

func TestTailFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	var content strings.Builder
	for i := 0; i < 10; i++ {
		content.WriteString("line ")
		content.WriteString(string(rune('0' + i)))
		content.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(content.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := tailFile(&out, path, 3); err != nil {
		t.Fatalf("tail: %v", err)
	}
	if out.String() != "line 7\nline 8\nline 9\n" {
		t.Fatalf("tail = %q", out.String())
	}
}

func TestShowConfigIncludesResolvedSession(t *testing.T) {
	cfg, _ := config.Default()
	cfg.Session["lang"] = "fr-FR"
	var out bytes.Buffer
	if err := showConfig(&out, cfg); err != nil {
		t.Fatalf("show: %v", err)
	}
	s := out.String()
	if !strings.Contains(s, "[resolved_session]") || !strings.Contains(s, "fr-FR") {
		t.Fatalf("config show output:\n%s", s)
	}
}

func TestModelsListAndResolve(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "custom.bin"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	listModels(&out, dir, filepath.Join(dir, "custom.bin"))
	if !strings.Contains(out.String(), "- custom.bin (downloaded, selected)") {
		t.Fatalf("list output:\n%s", out.String())
	}
	if got := resolveModel(dir, "ggml-base.en.bin"); got != filepath.Join(dir, "ggml-base.en.bin") {
		t.Fatalf("resolve bare = %s", got)
	}
	if got := resolveModel(dir, "/abs/model.bin"); got != "/abs/model.bin" {
		t.Fatalf("resolve path = %s", got)
	}
}
