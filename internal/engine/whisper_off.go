//go:build !whisper

package engine

import (
	"fmt"

	"earshot/internal/config"
	"earshot/pkg/speech"

	"github.com/sirupsen/logrus"
)

func newWhisper(config.WhisperConfig, logrus.FieldLogger) (speech.Engine, func() error, error) {
	return nil, nil, fmt.Errorf("whisper: %w; build with '-tags whisper'", ErrUnavailable)
}
