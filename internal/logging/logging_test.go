package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"earshot/internal/config"

	"github.com/sirupsen/logrus"
)

func TestConfigureWritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Default()
	cfg.Paths.StateDir = dir
	cfg.Paths.LogPath = filepath.Join(dir, "logs", "earshot.log")
	cfg.Paths.TranscriptPath = filepath.Join(dir, "transcripts.log")
	cfg.Paths.SocketPath = filepath.Join(dir, "earshot.sock")
	cfg.Logging.Format = "json"
	cfg.Logging.Level = "debug"

	logger, err := Configure(cfg)
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	if logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %s", logger.GetLevel())
	}
	logger.WithField("session", "abc").Info("listening")

	data, err := os.ReadFile(cfg.Paths.LogPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"session":"abc"`) {
		t.Fatalf("expected json entry, got %s", data)
	}
}

func TestUnknownLevelKeepsDefault(t *testing.T) {
	cfg, _ := config.Default()
	cfg.Logging.Level = "chatty"
	if lvl := Console(cfg).GetLevel(); lvl != logrus.InfoLevel {
		t.Fatalf("level = %s", lvl)
	}
}
