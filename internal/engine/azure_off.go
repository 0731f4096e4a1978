//go:build !azure

package engine

import (
	"fmt"

	"earshot/internal/config"
	"earshot/pkg/speech"

	"github.com/sirupsen/logrus"
)

func newAzure(config.AzureConfig, logrus.FieldLogger) (speech.Engine, func() error, error) {
	return nil, nil, fmt.Errorf("azure: %w; build with '-tags azure'", ErrUnavailable)
}
