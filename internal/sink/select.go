package sink

import (
	"strings"

	"earshot/internal/config"
)

func wakeTokens(hk *config.HookConfig) []string {
	tokens := make([]string, 0, len(hk.Wake))
	for _, w := range hk.Wake {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// SelectHook returns the first hook with a wake token in text, falling back
// to the first hook. It returns -1 when no hooks are configured.
func SelectHook(hooks []config.HookConfig, text string) int {
	if len(hooks) == 0 {
		return -1
	}
	lower := strings.ToLower(text)
	for i := range hooks {
		for _, tok := range wakeTokens(&hooks[i]) {
			if strings.Contains(lower, tok) {
				return i
			}
		}
	}
	return 0
}

// StripWake removes the first word matching one of the hook's wake tokens.
func StripWake(text string, hk *config.HookConfig) string {
	tokens := wakeTokens(hk)
	if len(tokens) == 0 {
		return text
	}
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	skipped := false
	for _, f := range fields {
		if !skipped && matchesAny(strings.Trim(f, " ,.!?;:\"'"), tokens) {
			skipped = true
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

func matchesAny(token string, variants []string) bool {
	for _, v := range variants {
		if strings.EqualFold(token, v) {
			return true
		}
	}
	return false
}
