package sink

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"earshot/internal/config"

	"github.com/google/shlex"
	"github.com/sirupsen/logrus"
)

// HookRunner executes the hook matching each final transcript.
type HookRunner struct {
	hooks    []config.HookConfig
	logger   logrus.FieldLogger
	hostname string

	mu      sync.Mutex
	lastRun map[int]time.Time
}

func NewHookRunner(hooks []config.HookConfig, logger logrus.FieldLogger) *HookRunner {
	host, _ := os.Hostname()
	return &HookRunner{
		hooks:    hooks,
		logger:   logger.WithField("sink", "hook"),
		hostname: host,
		lastRun:  make(map[int]time.Time),
	}
}

func (r *HookRunner) Name() string { return "hook" }

func (r *HookRunner) Wants(t Transcript) bool { return t.Final && len(r.hooks) > 0 }

// Deliver picks a hook by wake token, applies min_chars and cooldown, then
// runs it.
func (r *HookRunner) Deliver(ctx context.Context, t Transcript) error {
	idx := SelectHook(r.hooks, t.Text)
	if idx < 0 {
		return fmt.Errorf("no hook: %w", ErrSkipped)
	}
	hk := &r.hooks[idx]
	text := StripWake(t.Text, hk)
	if hk.MinChars > 0 && len(text) < hk.MinChars {
		return fmt.Errorf("len(text)=%d < min_chars=%d: %w", len(text), hk.MinChars, ErrSkipped)
	}
	if !r.claim(idx, hk.CooldownSec) {
		return fmt.Errorf("cooldown: %w", ErrSkipped)
	}
	return r.run(ctx, hk, text)
}

// claim reserves a run slot for hook idx if its cooldown has elapsed.
func (r *HookRunner) claim(idx int, cooldownSec float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	last, ok := r.lastRun[idx]
	if ok && cooldownSec > 0 && time.Since(last).Seconds() < cooldownSec {
		return false
	}
	r.lastRun[idx] = time.Now()
	return true
}

func (r *HookRunner) run(ctx context.Context, hk *config.HookConfig, text string) error {
	if hk.Command == "" {
		return fmt.Errorf("hook has no command")
	}
	args := append([]string{}, hk.Args...)
	if hk.ArgsLine != "" {
		extra, err := ParseArgs(hk.ArgsLine)
		if err != nil {
			return fmt.Errorf("parse args_line: %w", err)
		}
		args = append(args, extra...)
	}

	prefix := strings.ReplaceAll(hk.Prefix, "${hostname}", r.hostname)
	if hk.RedactPII {
		text = redactPII(text)
	}
	args = append(args, strings.TrimSpace(prefix+text))

	runCtx := ctx
	if hk.TimeoutSec > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(float64(time.Second)*hk.TimeoutSec))
		defer cancel()
	}
	cmd := exec.CommandContext(runCtx, hk.Command, args...)
	cmd.Env = os.Environ()
	for k, v := range hk.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Env = append(cmd.Env,
		fmt.Sprintf("EARSHOT_TEXT=%s", text),
		fmt.Sprintf("EARSHOT_PREFIX=%s", prefix),
	)

	out, err := cmd.CombinedOutput()
	if len(out) > 0 {
		r.logger.Infof("hook output: %s", strings.TrimSpace(string(out)))
	}
	if err != nil {
		return fmt.Errorf("hook %s failed: %w", hk.Command, err)
	}
	return nil
}

// ParseArgs splits a shell-style argument line.
func ParseArgs(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}
	return shlex.Split(raw)
}

var (
	emailRE = regexp.MustCompile(`[\w.+-]+@[\w.-]+\.[A-Za-z]{2,}`)
	phoneRE = regexp.MustCompile(`\+?\d[\d\s\-\(\)]{6,}\d`)
)

func redactPII(s string) string {
	s = emailRE.ReplaceAllString(s, "[redacted-email]")
	s = phoneRE.ReplaceAllString(s, "[redacted-phone]")
	return s
}
