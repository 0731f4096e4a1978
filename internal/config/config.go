package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"earshot/pkg/speech"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultStateDirLinux = ".local/state/earshot"
	defaultConfigDir     = ".config/earshot"
	defaultStatusTail    = 10
	defaultMetricsAddr   = "127.0.0.1:9318"
)

// Config holds user configuration loaded from TOML.
type Config struct {
	// Session is merged over the library defaults by speech.ResolveOptions,
	// so keys the library does not know are carried through untouched.
	Session map[string]any `toml:"session"`

	Engine struct {
		Kind    string        `toml:"kind"` // replay, whisper, azure
		Whisper WhisperConfig `toml:"whisper"`
		Azure   AzureConfig   `toml:"azure"`
		Replay  ReplayConfig  `toml:"replay"`
	} `toml:"engine"`

	Hooks []HookConfig `toml:"hooks"`

	Dispatch struct {
		Workers int `toml:"workers"`
	} `toml:"dispatch"`

	NATS struct {
		Enabled        bool     `toml:"enabled"`
		URLs           []string `toml:"urls"`
		Subject        string   `toml:"subject"`
		User           string   `toml:"user"`
		Password       string   `toml:"password"`
		PublishInterim bool     `toml:"publish_interim"`
	} `toml:"nats"`

	Notify struct {
		Enabled  bool   `toml:"enabled"`
		Title    string `toml:"title"`
		MaxChars int    `toml:"max_chars"`
	} `toml:"notify"`

	Logging struct {
		Level  string `toml:"level"`  // debug, info, warn, error
		Format string `toml:"format"` // text, json
		Stdout bool   `toml:"stdout"`
	} `toml:"logging"`

	Paths struct {
		StateDir       string `toml:"state_dir"`
		LogPath        string `toml:"log_path"`
		TranscriptPath string `toml:"transcript_path"`
		SocketPath     string `toml:"socket_path"`
		PidPath        string `toml:"pid_path"`
		ModelDir       string `toml:"model_dir"`
		ConfigPath     string `toml:"-"`
	} `toml:"paths"`

	UI struct {
		StatusTail int `toml:"status_tail"`
	} `toml:"ui"`

	Metrics struct {
		Enabled bool   `toml:"enabled"`
		Addr    string `toml:"addr"`
	} `toml:"metrics"`

	Transcripts struct {
		Enabled bool `toml:"enabled"`
	} `toml:"transcripts"`
}

// Default returns Config populated with defaults.
func Default() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	stateDir := filepath.Join(home, defaultStateDirLinux)
	if isMac() {
		stateDir = filepath.Join(home, "Library", "Application Support", "earshot")
	}

	cfg := &Config{}

	// A daemon wants to keep listening; the library defaults are all off.
	cfg.Session = map[string]any{
		speech.KeyDebugging:      false,
		speech.KeyContinuous:     true,
		speech.KeyInterimResults: true,
		speech.KeyAutoRestart:    true,
	}

	cfg.Engine.Kind = "replay"
	cfg.Engine.Whisper = defaultWhisper(stateDir)
	cfg.Engine.Azure.Region = "westeurope"
	cfg.Engine.Replay.ScriptPath = filepath.Join(stateDir, "replay.yaml")
	cfg.Engine.Replay.Speed = 1

	cfg.Hooks = []HookConfig{}
	cfg.Dispatch.Workers = 2

	cfg.NATS.URLs = []string{"nats://127.0.0.1:4222"}
	cfg.NATS.Subject = "earshot.transcripts"

	cfg.Notify.Title = "earshot"
	cfg.Notify.MaxChars = 100

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"

	cfg.Paths.StateDir = stateDir
	cfg.Paths.LogPath = filepath.Join(stateDir, "earshot.log")
	cfg.Paths.TranscriptPath = filepath.Join(stateDir, "transcripts.log")
	cfg.Paths.SocketPath = filepath.Join(stateDir, "earshot.sock")
	cfg.Paths.PidPath = filepath.Join(stateDir, "earshot.pid")
	cfg.Paths.ModelDir = filepath.Join(stateDir, "models")

	cfg.UI.StatusTail = defaultStatusTail

	cfg.Metrics.Addr = defaultMetricsAddr

	cfg.Transcripts.Enabled = true

	return cfg, nil
}

// Load loads config from file, applying defaults. A missing file is created
// from the defaults, together with a sample replay script.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path == "" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, defaultConfigDir, "config.toml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err := Save(cfg, path); err != nil {
			return nil, err
		}
		if err := writeSampleReplay(cfg.Engine.Replay.ScriptPath); err != nil {
			return nil, fmt.Errorf("write sample replay script: %w", err)
		}
		cfg.Paths.ConfigPath = path
		applyEnvOverrides(cfg)
		normalize(cfg)
		return cfg, nil
	}

	// The session table replaces the default one wholesale so a user file
	// can drop a key back to the library default.
	cfg.Session = nil
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Session == nil {
		cfg.Session = map[string]any{}
	}
	cfg.Paths.ConfigPath = path
	applyEnvOverrides(cfg)
	normalize(cfg)
	return cfg, nil
}

// Save writes cfg to path.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}

// SessionOptions resolves the [session] table.
func (c *Config) SessionOptions() speech.Options {
	return speech.ResolveOptions(c.Session)
}

// MustStatePaths ensures state dirs exist.
func MustStatePaths(cfg *Config) error {
	for _, p := range []string{
		cfg.Paths.StateDir,
		filepath.Dir(cfg.Paths.LogPath),
		filepath.Dir(cfg.Paths.TranscriptPath),
		filepath.Dir(cfg.Paths.SocketPath),
	} {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(p, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func isMac() bool {
	return runtime.GOOS == "darwin"
}

func envBool(v string) bool {
	return v != "0" && strings.ToLower(v) != "false"
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("EARSHOT_ENGINE"); v != "" {
		cfg.Engine.Kind = v
	}
	if v := os.Getenv("EARSHOT_LANG"); v != "" {
		cfg.Session[speech.KeyLang] = v
	}
	if v := os.Getenv("EARSHOT_AUTO_RESTART"); v != "" {
		cfg.Session[speech.KeyAutoRestart] = envBool(v)
	}
	if v := os.Getenv("EARSHOT_DEBUG"); v != "" {
		cfg.Session[speech.KeyDebugging] = envBool(v)
	}
	if v := os.Getenv("EARSHOT_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
		cfg.Metrics.Enabled = true
	}
	if v := os.Getenv("EARSHOT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("EARSHOT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("EARSHOT_TRANSCRIPTS_ENABLED"); v != "" {
		cfg.Transcripts.Enabled = envBool(v)
	}
	if v := os.Getenv("EARSHOT_NATS_URL"); v != "" {
		cfg.NATS.URLs = strings.Split(v, ",")
		cfg.NATS.Enabled = true
	}
	if v := os.Getenv("AZURE_SPEECH_KEY"); v != "" {
		cfg.Engine.Azure.Key = v
	}
	if v := os.Getenv("AZURE_SPEECH_REGION"); v != "" {
		cfg.Engine.Azure.Region = v
	}
}
