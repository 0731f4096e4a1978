//go:build whisper

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"earshot/internal/audio"
	"earshot/internal/config"
	"earshot/internal/engine/slots"
	"earshot/pkg/speech"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	vad "github.com/maxhawkins/go-webrtcvad"
	"github.com/sirupsen/logrus"
)

// Engine captures audio, segments it with webrtc VAD and transcribes each
// slot with whisper.cpp.
type Engine struct {
	cfg    config.WhisperConfig
	logger logrus.FieldLogger
	model  whisper.Model

	// whisper contexts are not safe for concurrent use
	modelMu sync.Mutex

	mu       sync.Mutex
	settings speech.Settings
	handler  speech.Handler

	lc lifecycle
}

// New loads the model and validates the audio settings.
func New(cfg config.WhisperConfig, logger logrus.FieldLogger) (*Engine, error) {
	if cfg.FrameMS != 10 && cfg.FrameMS != 20 && cfg.FrameMS != 30 {
		return nil, fmt.Errorf("engine.whisper.frame_ms must be 10, 20, or 30 (got %d)", cfg.FrameMS)
	}
	switch cfg.SampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return nil, fmt.Errorf("engine.whisper.sample_rate must be 8k/16k/32k/48k for webrtc VAD (got %d)", cfg.SampleRate)
	}
	if cfg.InputFile != "" && cfg.SampleRate != audio.TargetRate {
		return nil, fmt.Errorf("engine.whisper.input_file requires sample_rate %d", audio.TargetRate)
	}
	model, err := whisper.New(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", cfg.ModelPath, err)
	}
	return &Engine{cfg: cfg, logger: logger, model: model}, nil
}

// Close stops capture, waits for the transcriber to return and releases the
// model. Start fails with ErrClosed afterwards.
func (e *Engine) Close() error {
	e.lc.shutdown()
	e.modelMu.Lock()
	defer e.modelMu.Unlock()
	return e.model.Close()
}

// Configure stores the settings used by the next Start.
func (e *Engine) Configure(s speech.Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = s
}

// SetHandler sets where events go.
func (e *Engine) SetHandler(h speech.Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = h
}

// Start opens the audio source and begins capture. Events arrive on the
// handler from a background goroutine.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	ctx, err := e.lc.begin()
	if err != nil {
		return err
	}
	src, err := e.openSource()
	if err != nil {
		e.lc.finish()
		return err
	}
	go e.run(ctx, src, e.handler, e.settings)
	return nil
}

// Stop asks capture to end. Cuts already queued are transcribed before
// OnEnd.
func (e *Engine) Stop() error {
	e.lc.stop()
	return nil
}

func (e *Engine) openSource() (source, error) {
	frameSamples := e.cfg.SampleRate * e.cfg.FrameMS / 1000
	if !vad.ValidRateAndFrameLength(e.cfg.SampleRate, frameSamples) {
		return nil, fmt.Errorf("invalid frame_ms %d for sample_rate %d", e.cfg.FrameMS, e.cfg.SampleRate)
	}
	if e.cfg.InputFile != "" {
		return openFile(e.cfg.InputFile, frameSamples)
	}
	return openMic(e.cfg.DeviceName, e.cfg.SampleRate, frameSamples, e.logger)
}

func (e *Engine) run(ctx context.Context, src source, h speech.Handler, settings speech.Settings) {
	cuts := make(chan cut, 4)
	worker := &transcriber{engine: e, handler: h, lang: whisperLang(settings.Lang)}
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.loop(cuts)
	}()

	defer func() {
		close(cuts)
		<-workerDone
		_ = src.Close()
		e.lc.finish()
		h.OnEnd()
	}()

	v, err := vad.New()
	if err != nil {
		h.OnError(fmt.Errorf("vad init: %w", err))
		return
	}
	if err := v.SetMode(e.cfg.Aggressiveness); err != nil {
		h.OnError(fmt.Errorf("vad mode: %w", err))
		return
	}

	seg := &segmenter{
		frameMS:        e.cfg.FrameMS,
		silenceMS:      e.cfg.SilenceMS,
		maxSegmentMS:   e.cfg.MaxSegmentMS,
		partialFlushMS: e.cfg.PartialFlushMS,
		interim:        settings.InterimResults,
	}

	h.OnStart()
	var raw []byte
	for {
		if ctx.Err() != nil {
			return
		}
		frame, err := src.Read()
		if errors.Is(err, io.EOF) {
			if c, ok := seg.flush(); ok {
				cuts <- c
			}
			return
		}
		if err != nil {
			h.OnError(err)
			return
		}
		raw = pcmBytes(raw, frame)
		voice, err := v.Process(e.cfg.SampleRate, raw)
		if err != nil {
			h.OnError(fmt.Errorf("vad: %w", err))
			return
		}
		c, ok := seg.push(frame, voice)
		if !ok {
			continue
		}
		if !c.final {
			// Interim cuts are disposable when the transcriber lags.
			select {
			case cuts <- c:
			default:
				e.logger.Debug("transcriber busy, skipping interim")
			}
			continue
		}
		select {
		case cuts <- c:
		case <-ctx.Done():
			return
		}
		if !settings.Continuous {
			return
		}
	}
}

// transcriber turns cuts into result events.
type transcriber struct {
	engine  *Engine
	handler speech.Handler
	lang    string
	slots   slots.Tracker
}

func (t *transcriber) loop(cuts <-chan cut) {
	for c := range cuts {
		text, err := t.engine.transcribe(audio.ToFloat32(c.pcm), t.lang)
		if err != nil {
			t.handler.OnError(fmt.Errorf("transcribe: %w", err))
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			// Silence-only final: close the open slot with what it already has.
			open, ok := t.slots.Open()
			if !c.final || !ok {
				continue
			}
			text = open
		}
		t.handler.OnResult(t.slots.Update(text, c.final))
	}
}

func (e *Engine) transcribe(samples []float32, lang string) (string, error) {
	e.modelMu.Lock()
	defer e.modelMu.Unlock()

	wctx, err := e.model.NewContext()
	if err != nil {
		return "", err
	}
	threads := e.cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	wctx.SetThreads(uint(threads))
	if err := wctx.SetLanguage(lang); err != nil {
		e.logger.Warnf("set language %q: %v", lang, err)
	}
	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", err
	}
	var b strings.Builder
	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		b.WriteString(seg.Text)
		if !strings.HasSuffix(seg.Text, " ") {
			b.WriteByte(' ')
		}
	}
	return b.String(), nil
}
