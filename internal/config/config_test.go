package config

import (
	"os"
	"path/filepath"
	"testing"

	"earshot/internal/engine/replay"
)

func TestEnvOverrides(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}

	t.Setenv("EARSHOT_ENGINE", "whisper")
	t.Setenv("EARSHOT_LANG", "nl-NL")
	t.Setenv("EARSHOT_AUTO_RESTART", "0")
	t.Setenv("EARSHOT_METRICS_ADDR", "1.2.3.4:9999")
	t.Setenv("EARSHOT_LOG_LEVEL", "debug")
	t.Setenv("EARSHOT_LOG_FORMAT", "json")
	t.Setenv("EARSHOT_NATS_URL", "nats://a:4222,nats://b:4222")

	applyEnvOverrides(cfg)

	if cfg.Engine.Kind != "whisper" {
		t.Fatalf("engine override failed: %q", cfg.Engine.Kind)
	}
	opts := cfg.SessionOptions()
	if opts.Lang != "nl-NL" || opts.AutoRestart {
		t.Fatalf("session overrides failed: %+v", opts)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Addr != "1.2.3.4:9999" {
		t.Fatalf("metrics override failed: %+v", cfg.Metrics)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("logging overrides failed: %+v", cfg.Logging)
	}
	if !cfg.NATS.Enabled || len(cfg.NATS.URLs) != 2 {
		t.Fatalf("nats override failed: %+v", cfg.NATS)
	}
}

func TestLoadWritesTemplateWhenMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("template not written: %v", err)
	}
	if cfg.Paths.ConfigPath != path {
		t.Fatalf("config path = %q", cfg.Paths.ConfigPath)
	}
	opts := cfg.SessionOptions()
	if !opts.Continuous || !opts.InterimResults || !opts.AutoRestart {
		t.Fatalf("daemon session defaults missing: %+v", opts)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	cfg.Hooks = []HookConfig{{Wake: []string{"computer"}, Command: "/bin/echo"}}
	cfg.Session["lang"] = "en-US"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Hooks) != 1 || loaded.Hooks[0].Command != "/bin/echo" {
		t.Fatalf("expected hook to persist: %+v", loaded.Hooks)
	}
	if loaded.SessionOptions().Lang != "en-US" {
		t.Fatalf("session lang lost")
	}
}

func TestSessionTableKeepsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := []byte("[session]\ncontinuous = true\nmaxAlternatives = 3\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	opts := cfg.SessionOptions()
	if !opts.Continuous {
		t.Fatalf("continuous not read")
	}
	if opts.InterimResults || opts.AutoRestart {
		t.Fatalf("keys absent from the file must fall back to library defaults: %+v", opts)
	}
	if _, ok := opts.Extra["maxAlternatives"]; !ok {
		t.Fatalf("unknown session key dropped: %v", opts.Extra)
	}
}

func TestFreshInstallGetsPlayableReplayScript(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	script, err := replay.Load(cfg.Engine.Replay.ScriptPath)
	if err != nil {
		t.Fatalf("sample script unusable: %v", err)
	}
	if len(script.Steps) == 0 {
		t.Fatalf("sample script has no steps")
	}
}

func TestSampleReplayKeepsExistingScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.yaml")
	if err := os.WriteFile(path, []byte("steps: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := writeSampleReplay(path); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "steps: []\n" {
		t.Fatalf("existing script overwritten: %q", data)
	}
}

func TestLoadClampsNegativeValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := []byte("[ui]\nstatus_tail = -5\n\n[dispatch]\nworkers = 0\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UI.StatusTail != 0 || cfg.Dispatch.Workers != 1 {
		t.Fatalf("not clamped: status_tail=%d workers=%d", cfg.UI.StatusTail, cfg.Dispatch.Workers)
	}
}
