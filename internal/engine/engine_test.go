package engine

import (
	"os"
	"path/filepath"
	"testing"

	"earshot/internal/config"
	"earshot/internal/engine/replay"
	"earshot/internal/logging"
)

func TestNewReplay(t *testing.T) {
	cfg, _ := config.Default()
	cfg.Engine.Kind = "replay"
	cfg.Engine.Replay.ScriptPath = filepath.Join(t.TempDir(), "script.yaml")
	if err := os.WriteFile(cfg.Engine.Replay.ScriptPath, []byte("steps:\n  - text: hi\n    final: true\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	eng, closer, err := New(cfg, logging.NewTestLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := eng.(*replay.Engine); !ok {
		t.Fatalf("engine = %T", eng)
	}
	if err := closer(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestNewReplayMissingScript(t *testing.T) {
	cfg, _ := config.Default()
	cfg.Engine.Replay.ScriptPath = filepath.Join(t.TempDir(), "missing.yaml")
	if _, _, err := New(cfg, logging.NewTestLogger()); err == nil {
		t.Fatalf("expected error for missing script")
	}
}

func TestNewUnknownKind(t *testing.T) {
	cfg, _ := config.Default()
	cfg.Engine.Kind = "webkit"
	if _, _, err := New(cfg, logging.NewTestLogger()); err == nil {
		t.Fatalf("expected unknown engine error")
	}
}

func TestAzureRequiresTagOrCredentials(t *testing.T) {
	cfg, _ := config.Default()
	cfg.Engine.Kind = "azure"
	cfg.Engine.Azure.Key = ""
	if _, _, err := New(cfg, logging.NewTestLogger()); err == nil {
		t.Fatalf("expected error without credentials or build tag")
	}
}
