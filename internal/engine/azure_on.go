//go:build azure

package engine

import (
	"earshot/internal/config"
	"earshot/internal/engine/azure"
	"earshot/pkg/speech"

	"github.com/sirupsen/logrus"
)

func newAzure(cfg config.AzureConfig, logger logrus.FieldLogger) (speech.Engine, func() error, error) {
	eng, err := azure.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return eng, noClose, nil
}
