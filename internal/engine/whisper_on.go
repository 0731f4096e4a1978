//go:build whisper

package engine

import (
	"earshot/internal/config"
	"earshot/internal/engine/whisper"
	"earshot/pkg/speech"

	"github.com/sirupsen/logrus"
)

func newWhisper(cfg config.WhisperConfig, logger logrus.FieldLogger) (speech.Engine, func() error, error) {
	eng, err := whisper.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return eng, eng.Close, nil
}
