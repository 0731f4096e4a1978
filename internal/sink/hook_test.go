package sink

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"earshot/internal/config"
	"earshot/internal/logging"
)

func final(text string) Transcript {
	return NewTranscript("s1", text, true, time.Now())
}

func TestHookCooldown(t *testing.T) {
	r := NewHookRunner([]config.HookConfig{{
		Command:     "/bin/echo",
		CooldownSec: 0.5,
	}}, logging.NewTestLogger())

	if err := r.Deliver(context.Background(), final("test")); err != nil {
		t.Fatalf("first deliver: %v", err)
	}
	if err := r.Deliver(context.Background(), final("test")); !errors.Is(err, ErrSkipped) {
		t.Fatalf("cooldown should skip immediate rerun, got %v", err)
	}
	time.Sleep(520 * time.Millisecond)
	if err := r.Deliver(context.Background(), final("test")); err != nil {
		t.Fatalf("deliver after cooldown: %v", err)
	}
}

func TestHookPrefixAndEnv(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.txt")
	r := NewHookRunner([]config.HookConfig{{
		Command: "/bin/sh",
		Args:    []string{"-c", `printf '%s|%s|%s' "$EARSHOT_TEXT" "$EARSHOT_PREFIX" "$1" > "$OUT"`, "hook"},
		Prefix:  "pref: ",
		Env:     map[string]string{"OUT": out},
	}}, logging.NewTestLogger())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Deliver(ctx, final("hello")); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := string(data); got != "hello|pref: |pref: hello" {
		t.Fatalf("hook saw %q", got)
	}
}

func TestHookMinChars(t *testing.T) {
	r := NewHookRunner([]config.HookConfig{{Command: "/bin/echo", MinChars: 10}}, logging.NewTestLogger())
	if err := r.Deliver(context.Background(), final("short")); !errors.Is(err, ErrSkipped) {
		t.Fatalf("expected skip, got %v", err)
	}
}

func TestHookRedactsPII(t *testing.T) {
	got := redactPII("mail me at a.b@example.com or +1 555 123 4567")
	if strings.Contains(got, "example.com") || strings.Contains(got, "4567") {
		t.Fatalf("not redacted: %q", got)
	}
}

func TestHookWantsOnlyFinals(t *testing.T) {
	r := NewHookRunner([]config.HookConfig{{Command: "/bin/echo"}}, logging.NewTestLogger())
	if r.Wants(NewTranscript("s", "x", false, time.Now())) {
		t.Fatalf("interim accepted")
	}
	empty := NewHookRunner(nil, logging.NewTestLogger())
	if empty.Wants(final("x")) {
		t.Fatalf("runner without hooks accepted transcript")
	}
}

func TestParseArgs(t *testing.T) {
	args, err := ParseArgs(`--flag "two words" plain`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(args) != 3 || args[1] != "two words" {
		t.Fatalf("args = %q", args)
	}
	if args, _ := ParseArgs("   "); len(args) != 0 {
		t.Fatalf("blank line gave %q", args)
	}
}
