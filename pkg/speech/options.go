package speech

import (
	"strconv"
)

// Option keys understood by ResolveOptions.
const (
	KeyDebugging      = "debugging"
	KeyContinuous     = "continuous"
	KeyInterimResults = "interimResults"
	KeyAutoRestart    = "autoRestart"
	KeyLang           = "lang"
)

// Options is the resolved session configuration.
type Options struct {
	// Debugging traces every accepted transcript to the session logger.
	Debugging bool
	// Continuous keeps the engine listening across utterances.
	Continuous bool
	// InterimResults asks the engine for partial transcripts.
	InterimResults bool
	// AutoRestart starts the engine again whenever it ends without Stop.
	AutoRestart bool
	// Lang is a BCP-47 tag; empty leaves the engine default.
	Lang string
	// Extra holds keys ResolveOptions did not recognize, untouched.
	Extra map[string]any
}

// DefaultOptions returns the defaults applied before any user value.
func DefaultOptions() Options {
	return Options{}
}

// ResolveOptions merges raw over the defaults with a shallow key copy.
//
// raw may be nil, a map[string]any, map[string]string or map[string]bool.
// Anything else is not a mapping and every default applies unchanged.
// Unknown keys, and known keys whose value has an unusable type, are kept
// in Extra.
func ResolveOptions(raw any) Options {
	opts := DefaultOptions()
	m, ok := asMapping(raw)
	if !ok {
		return opts
	}
	for k, v := range m {
		if !opts.set(k, v) {
			if opts.Extra == nil {
				opts.Extra = make(map[string]any)
			}
			opts.Extra[k] = v
		}
	}
	return opts
}

// Settings returns the subset pushed to the engine.
func (o Options) Settings() Settings {
	return Settings{
		Continuous:     o.Continuous,
		InterimResults: o.InterimResults,
		Lang:           o.Lang,
	}
}

// Map renders the options back into a mapping, extras included.
func (o Options) Map() map[string]any {
	out := make(map[string]any, 5+len(o.Extra))
	for k, v := range o.Extra {
		out[k] = v
	}
	out[KeyDebugging] = o.Debugging
	out[KeyContinuous] = o.Continuous
	out[KeyInterimResults] = o.InterimResults
	out[KeyAutoRestart] = o.AutoRestart
	if o.Lang != "" {
		out[KeyLang] = o.Lang
	}
	return out
}

func (o *Options) set(key string, v any) bool {
	switch key {
	case KeyDebugging:
		return setBool(&o.Debugging, v)
	case KeyContinuous:
		return setBool(&o.Continuous, v)
	case KeyInterimResults:
		return setBool(&o.InterimResults, v)
	case KeyAutoRestart:
		return setBool(&o.AutoRestart, v)
	case KeyLang:
		s, ok := v.(string)
		if ok {
			o.Lang = s
		}
		return ok
	}
	return false
}

func setBool(dst *bool, v any) bool {
	switch b := v.(type) {
	case bool:
		*dst = b
		return true
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false
		}
		*dst = parsed
		return true
	}
	return false
}

func asMapping(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	case map[string]bool:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	}
	return nil, false
}
