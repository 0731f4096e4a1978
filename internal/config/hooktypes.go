package config

// HookConfig is a command run for final transcripts that mention one of its
// wake tokens.
type HookConfig struct {
	Wake        []string          `toml:"wake"` // tokens to match (case-insensitive)
	Command     string            `toml:"command"`
	Args        []string          `toml:"args"`
	ArgsLine    string            `toml:"args_line"` // shell-style alternative to args
	Prefix      string            `toml:"prefix"`
	CooldownSec float64           `toml:"cooldown_sec"`
	MinChars    int               `toml:"min_chars"`
	TimeoutSec  float64           `toml:"timeout_sec"`
	Env         map[string]string `toml:"env"`
	RedactPII   bool              `toml:"redact_pii"`
}
