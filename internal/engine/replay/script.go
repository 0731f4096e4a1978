package replay

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Script is a recorded sequence of engine signals.
//
//	steps:
//	  - after: 300ms
//	    text: turn on
//	  - after: 300ms
//	    text: turn on the lights
//	    final: true
//	  - error: no-speech
//	    message: no speech detected
//	  - end: true
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Step is one signal. Exactly one of Text, Error or End is meaningful.
type Step struct {
	After        string   `yaml:"after,omitempty"`
	Index        *int     `yaml:"index,omitempty"` // defaults to the current slot
	Text         string   `yaml:"text,omitempty"`
	Alternatives []string `yaml:"alternatives,omitempty"`
	Final        bool     `yaml:"final,omitempty"`
	Error        string   `yaml:"error,omitempty"`
	Message      string   `yaml:"message,omitempty"`
	End          bool     `yaml:"end,omitempty"`

	delay time.Duration
}

// Load reads a script from path.
func Load(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read replay script: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML script.
func Parse(data []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("parse replay script: %w", err)
	}
	for i := range s.Steps {
		st := &s.Steps[i]
		if st.After != "" {
			d, err := time.ParseDuration(st.After)
			if err != nil {
				return Script{}, fmt.Errorf("step %d: after: %w", i, err)
			}
			st.delay = d
		}
		if st.Index != nil && *st.Index < 0 {
			return Script{}, fmt.Errorf("step %d: negative index", i)
		}
		kinds := 0
		if st.Text != "" || len(st.Alternatives) > 0 {
			kinds++
		}
		if st.Error != "" {
			kinds++
		}
		if st.End {
			kinds++
		}
		if kinds != 1 {
			return Script{}, fmt.Errorf("step %d: want exactly one of text, error, end", i)
		}
	}
	return s, nil
}

// Marshal encodes a script back to YAML.
func Marshal(s Script) ([]byte, error) {
	return yaml.Marshal(s)
}
