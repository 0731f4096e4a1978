// Package engine builds the speech engine named in the config.
package engine

import (
	"errors"
	"fmt"
	"strings"

	"earshot/internal/config"
	"earshot/internal/engine/replay"
	"earshot/pkg/speech"

	"github.com/sirupsen/logrus"
)

// ErrUnavailable is returned for engines left out of this build.
var ErrUnavailable = errors.New("engine not compiled in")

// Kinds lists the engine names New understands.
var Kinds = []string{"replay", "whisper", "azure"}

// New returns the configured engine. The returned closer releases engine
// resources (models, recognizers) and is never nil.
func New(cfg *config.Config, logger logrus.FieldLogger) (speech.Engine, func() error, error) {
	log := logger.WithField("engine", cfg.Engine.Kind)
	switch strings.ToLower(cfg.Engine.Kind) {
	case "", "replay":
		script, err := replay.Load(cfg.Engine.Replay.ScriptPath)
		if err != nil {
			return nil, nil, err
		}
		return replay.New(script, cfg.Engine.Replay.Speed, log), noClose, nil
	case "whisper":
		return newWhisper(cfg.Engine.Whisper, log)
	case "azure":
		return newAzure(cfg.Engine.Azure, log)
	}
	return nil, nil, fmt.Errorf("unknown engine %q (want one of %s)", cfg.Engine.Kind, strings.Join(Kinds, ", "))
}

func noClose() error { return nil }
