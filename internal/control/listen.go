package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"earshot/internal/config"
	"earshot/internal/engine"
	"earshot/internal/logging"
	"earshot/internal/sink"
	"earshot/pkg/speech"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// NewListenCmd runs a session in the foreground and prints its events.
func NewListenCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Run a recognition session in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if kind, _ := cmd.Flags().GetString("engine"); kind != "" {
				cfg.Engine.Kind = kind
			}
			pairs, _ := cmd.Flags().GetStringArray("opt")
			raw, err := mergeOpts(cfg.Session, pairs)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			p := &printer{w: cmd.OutOrStdout(), json: jsonOut, interim: true}
			return runSession(cmd.Context(), cfg, speech.ResolveOptions(raw), p, nil)
		},
	}
	cmd.Flags().String("engine", "", "engine to use instead of engine.kind")
	cmd.Flags().StringArray("opt", nil, "session option override (key=value), repeatable")
	cmd.Flags().Bool("json", false, "print events as JSON lines")
	return cmd
}

// NewTranscribeCmd runs the whisper engine over a WAV file and prints the
// final transcripts.
func NewTranscribeCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcribe <wavfile>",
		Short: "Transcribe a WAV file (whisper build)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			file, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			cfg.Engine.Kind = "whisper"
			cfg.Engine.Whisper.InputFile = file
			opts := cfg.SessionOptions()
			opts.Continuous = true
			opts.InterimResults = false
			opts.AutoRestart = false

			var hooks *sink.HookRunner
			if want, _ := cmd.Flags().GetBool("hook"); want {
				if len(cfg.Hooks) == 0 {
					return fmt.Errorf("no hook configured; add [[hooks]] entries")
				}
				hooks = sink.NewHookRunner(cfg.Hooks, logging.Console(cfg))
			}
			p := &printer{w: cmd.OutOrStdout(), plain: true}
			return runSession(cmd.Context(), cfg, opts, p, hooks)
		},
	}
	cmd.Flags().Bool("hook", false, "also send final transcripts through the configured hooks")
	return cmd
}

// mergeOpts layers key=value pairs over the configured session table.
func mergeOpts(base map[string]any, pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(base)+len(pairs))
	for k, v := range base {
		out[k] = v
	}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("bad option %q, want key=value", p)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

func runSession(parent context.Context, cfg *config.Config, opts speech.Options, p *printer, hooks *sink.HookRunner) error {
	logger := logging.Console(cfg)
	eng, closeEngine, err := engine.New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeEngine() }()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := speech.NewSession(eng, opts, speech.WithLogger(logger))
	if hooks != nil {
		session.On(speech.EventFinalResult, func(e speech.Event) {
			t := sink.NewTranscript(e.SessionID, e.Transcript, true, e.Time)
			if err := hooks.Deliver(ctx, t); err != nil {
				logger.Warnf("hook: %v", err)
			}
		})
	}
	return listen(ctx, session, opts.AutoRestart, p)
}

// listen starts session and blocks until it ends for good: an end that will
// not be followed by an automatic restart, a failed restart, or ctx being
// cancelled. A failed restart is returned as the error.
func listen(ctx context.Context, session *speech.Session, autoRestart bool, p *printer) error {
	done := make(chan struct{})
	var (
		once       sync.Once
		restartErr error
	)
	offs := []func(){
		session.On(speech.EventStart, p.print),
		session.On(speech.EventInterimResult, p.print),
		session.On(speech.EventFinalResult, p.print),
		session.On(speech.EventError, func(e speech.Event) {
			p.print(e)
			if errors.Is(e.Err, speech.ErrRestartFailed) {
				once.Do(func() {
					restartErr = e.Err
					close(done)
				})
			}
		}),
		session.On(speech.EventEnd, func(e speech.Event) {
			p.print(e)
			if !autoRestart || session.ManualStopped() {
				once.Do(func() { close(done) })
			}
		}),
	}
	defer func() {
		for _, off := range offs {
			off()
		}
	}()

	if err := session.Start(); err != nil {
		return err
	}
	select {
	case <-done:
		return restartErr
	case <-ctx.Done():
	}
	if err := session.Stop(); err != nil {
		return err
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
	return nil
}

type printer struct {
	mu      sync.Mutex
	w       io.Writer
	json    bool
	interim bool
	// plain prints final transcripts only, one per line.
	plain bool
}

type eventLine struct {
	Type       speech.EventType `json:"type"`
	Transcript string           `json:"transcript,omitempty"`
	Error      string           `json:"error,omitempty"`
	SessionID  string           `json:"session_id"`
	Time       time.Time        `json:"time"`
}

func (p *printer) print(e speech.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.plain {
		if e.Type == speech.EventFinalResult {
			fmt.Fprintln(p.w, e.Transcript)
		}
		return
	}
	if p.json {
		line := eventLine{Type: e.Type, Transcript: e.Transcript, SessionID: e.SessionID, Time: e.Time}
		if e.Err != nil {
			line.Error = e.Err.Error()
		}
		_ = json.NewEncoder(p.w).Encode(line)
		return
	}
	ts := e.Time.Format("15:04:05")
	switch e.Type {
	case speech.EventStart:
		fmt.Fprintf(p.w, "%s  -- listening\n", ts)
	case speech.EventInterimResult:
		if p.interim {
			fmt.Fprintf(p.w, "%s  ... %s\n", ts, e.Transcript)
		}
	case speech.EventFinalResult:
		fmt.Fprintf(p.w, "%s  %s\n", ts, e.Transcript)
	case speech.EventError:
		fmt.Fprintf(p.w, "%s  !! %v\n", ts, e.Err)
	case speech.EventEnd:
		fmt.Fprintf(p.w, "%s  -- ended\n", ts)
	}
}
