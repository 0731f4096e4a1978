package config

import (
	"errors"
	"os"
	"path/filepath"
)

// sampleReplayScript is written on first run so the default replay engine
// has something to play.
const sampleReplayScript = `# Replay script for engine.kind = "replay".
# Each step waits "after", then delivers text (interim unless final), an
# error, or ends the session.
steps:
  - after: 500ms
    text: hello
  - after: 300ms
    text: hello earshot
    final: true
  - after: 1s
    text: this is a replayed
  - after: 300ms
    text: this is a replayed session
    final: true
  - after: 2s
    end: true
`

// writeSampleReplay creates path with the sample script unless it exists.
func writeSampleReplay(path string) error {
	if _, err := os.Stat(path); err == nil || !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(sampleReplayScript), 0o644)
}

// normalize clamps values that would break consumers.
func normalize(cfg *Config) {
	if cfg.UI.StatusTail < 0 {
		cfg.UI.StatusTail = 0
	}
	if cfg.Dispatch.Workers < 1 {
		cfg.Dispatch.Workers = 1
	}
}
