//go:build azure

// Package azure drives the Azure Speech service continuous recognizer.
package azure

import (
	"errors"
	"fmt"
	"sync"

	"earshot/internal/config"
	"earshot/internal/engine/slots"
	"earshot/pkg/speech"

	"github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/common"
	sdk "github.com/Microsoft/cognitive-services-speech-sdk-go/speech"
	"github.com/sirupsen/logrus"
)

var ErrAlreadyStarted = errors.New("azure: already started")

// CancelError is the payload forwarded when the service cancels recognition.
type CancelError struct {
	Reason  common.CancellationReason
	Code    common.CancellationErrorCode
	Details string
}

func (e *CancelError) Error() string {
	return fmt.Sprintf("azure: recognition canceled (reason %d, code %d): %s", e.Reason, e.Code, e.Details)
}

// Engine wraps one SpeechRecognizer, created on each Start.
type Engine struct {
	cfg    config.AzureConfig
	logger logrus.FieldLogger

	mu         sync.Mutex
	settings   speech.Settings
	handler    speech.Handler
	recognizer *sdk.SpeechRecognizer
	audioCfg   *audio.AudioConfig
	slots      slots.Tracker
}

// New validates credentials. The recognizer is created lazily by Start.
func New(cfg config.AzureConfig, logger logrus.FieldLogger) (*Engine, error) {
	if cfg.Key == "" || cfg.Region == "" {
		return nil, fmt.Errorf("azure engine requires engine.azure.key and engine.azure.region")
	}
	return &Engine{cfg: cfg, logger: logger}, nil
}

// Configure stores the settings used by the next Start.
func (e *Engine) Configure(s speech.Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = s
}

// SetHandler sets where recognizer events go.
func (e *Engine) SetHandler(h speech.Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = h
}

// Start opens the default microphone and starts continuous recognition.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.recognizer != nil {
		return ErrAlreadyStarted
	}
	sc, err := sdk.NewSpeechConfigFromSubscription(e.cfg.Key, e.cfg.Region)
	if err != nil {
		return fmt.Errorf("speech config: %w", err)
	}
	defer sc.Close()
	if e.settings.Lang != "" {
		if err := sc.SetSpeechRecognitionLanguage(e.settings.Lang); err != nil {
			return fmt.Errorf("set language: %w", err)
		}
	}
	ac, err := audio.NewAudioConfigFromDefaultMicrophoneInput()
	if err != nil {
		return fmt.Errorf("microphone: %w", err)
	}
	rec, err := sdk.NewSpeechRecognizerFromConfig(sc, ac)
	if err != nil {
		ac.Close()
		return fmt.Errorf("recognizer: %w", err)
	}
	e.recognizer = rec
	e.audioCfg = ac
	e.slots.Reset()
	h := e.handler
	e.wire(rec, h, e.settings)

	go func() {
		if err := <-rec.StartContinuousRecognitionAsync(); err != nil {
			e.logger.WithError(err).Error("azure start failed")
			h.OnError(err)
			e.finish(rec, h)
		}
	}()
	return nil
}

// Stop asks the recognizer to stop. OnEnd follows once its session stops.
func (e *Engine) Stop() error {
	e.mu.Lock()
	rec := e.recognizer
	e.mu.Unlock()
	if rec == nil {
		return nil
	}
	go func() {
		if err := <-rec.StopContinuousRecognitionAsync(); err != nil {
			e.logger.WithError(err).Warn("azure stop failed")
		}
	}()
	return nil
}

func (e *Engine) wire(rec *sdk.SpeechRecognizer, h speech.Handler, settings speech.Settings) {
	rec.SessionStarted(func(ev sdk.SessionEventArgs) {
		defer ev.Close()
		e.logger.WithField("azure_session", ev.SessionID).Info("azure recognition started")
		h.OnStart()
	})
	rec.SessionStopped(func(ev sdk.SessionEventArgs) {
		defer ev.Close()
		e.logger.WithField("azure_session", ev.SessionID).Info("azure recognition stopped")
		e.finish(rec, h)
	})
	rec.Recognizing(func(ev sdk.SpeechRecognitionEventArgs) {
		defer ev.Close()
		if !settings.InterimResults {
			return
		}
		h.OnResult(e.slots.Update(ev.Result.Text, false))
	})
	rec.Recognized(func(ev sdk.SpeechRecognitionEventArgs) {
		defer ev.Close()
		if ev.Result.Reason != common.RecognizedSpeech || ev.Result.Text == "" {
			return
		}
		h.OnResult(e.slots.Update(ev.Result.Text, true))
		if !settings.Continuous {
			go func() { <-rec.StopContinuousRecognitionAsync() }()
		}
	})
	rec.Canceled(func(ev sdk.SpeechRecognitionCanceledEventArgs) {
		defer ev.Close()
		h.OnError(&CancelError{Reason: ev.Reason, Code: ev.ErrorCode, Details: ev.ErrorDetails})
	})
}

// finish releases the recognizer once and delivers end.
func (e *Engine) finish(rec *sdk.SpeechRecognizer, h speech.Handler) {
	e.mu.Lock()
	if e.recognizer != rec {
		e.mu.Unlock()
		return
	}
	e.recognizer = nil
	ac := e.audioCfg
	e.audioCfg = nil
	e.mu.Unlock()

	// Release outside the SDK callback goroutine.
	go func() {
		rec.Close()
		if ac != nil {
			ac.Close()
		}
	}()
	h.OnEnd()
}
