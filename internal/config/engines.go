package config

import "path/filepath"

// WhisperConfig drives the local whisper.cpp engine.
type WhisperConfig struct {
	ModelPath      string `toml:"model_path"`
	DeviceName     string `toml:"device_name"`
	InputFile      string `toml:"input_file"` // WAV file instead of the microphone
	SampleRate     int    `toml:"sample_rate"`
	FrameMS        int    `toml:"frame_ms"`
	Aggressiveness int    `toml:"aggressiveness"`
	SilenceMS      int    `toml:"silence_ms"`
	MaxSegmentMS   int    `toml:"max_segment_ms"`
	PartialFlushMS int    `toml:"partial_flush_ms"`
	Threads        int    `toml:"threads"`
}

// AzureConfig holds Azure speech service credentials.
type AzureConfig struct {
	Key    string `toml:"key"`
	Region string `toml:"region"`
}

// ReplayConfig points the replay engine at a YAML script.
type ReplayConfig struct {
	ScriptPath string  `toml:"script_path"`
	Speed      float64 `toml:"speed"` // >1 plays faster
}

func defaultWhisper(stateDir string) WhisperConfig {
	return WhisperConfig{
		ModelPath:      filepath.Join(stateDir, "models", "ggml-base.en-q5_1.bin"),
		SampleRate:     16000,
		FrameMS:        20,
		Aggressiveness: 2,
		SilenceMS:      800,
		MaxSegmentMS:   15000,
		PartialFlushMS: 1500,
	}
}
