package sink

import (
	"testing"

	"earshot/internal/config"
)

func TestSelectHookByWake(t *testing.T) {
	hooks := []config.HookConfig{
		{Wake: []string{"computer"}, Command: "a"},
		{Wake: []string{"Jarvis", "butler"}, Command: "b"},
	}
	if got := SelectHook(hooks, "hey jarvis lights on"); got != 1 {
		t.Fatalf("select = %d, want 1", got)
	}
	if got := SelectHook(hooks, "nothing matches"); got != 0 {
		t.Fatalf("fallback = %d, want 0", got)
	}
	if got := SelectHook(nil, "x"); got != -1 {
		t.Fatalf("empty = %d, want -1", got)
	}
}

func TestStripWake(t *testing.T) {
	hk := &config.HookConfig{Wake: []string{"jarvis"}}
	if got := StripWake("Jarvis, lights on", hk); got != "lights on" {
		t.Fatalf("strip = %q", got)
	}
	if got := StripWake("lights on", &config.HookConfig{}); got != "lights on" {
		t.Fatalf("no wake = %q", got)
	}
}
