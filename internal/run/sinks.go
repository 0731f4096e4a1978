package run

import (
	"earshot/internal/config"
	"earshot/internal/sink"

	"github.com/sirupsen/logrus"
)

// BuildSinks creates the sinks enabled in cfg. A NATS server that cannot be
// reached disables that sink only.
func BuildSinks(cfg *config.Config, logger logrus.FieldLogger) ([]sink.Sink, func()) {
	var (
		sinks   []sink.Sink
		closers []func()
	)
	if len(cfg.Hooks) > 0 {
		sinks = append(sinks, sink.NewHookRunner(cfg.Hooks, logger))
	}
	if cfg.NATS.Enabled {
		nc, err := sink.DialNATS(cfg.NATS.URLs, cfg.NATS.User, cfg.NATS.Password, logger)
		if err != nil {
			logger.Warnf("nats sink disabled: %v", err)
		} else {
			sinks = append(sinks, sink.NewNATSSink(nc, cfg.NATS.Subject, cfg.NATS.PublishInterim))
			closers = append(closers, func() {
				if err := nc.Drain(); err != nil {
					logger.Warnf("nats drain: %v", err)
				}
			})
		}
	}
	if cfg.Notify.Enabled {
		sinks = append(sinks, sink.NewNotifySink(cfg.Notify.Title, cfg.Notify.MaxChars))
	}
	return sinks, func() {
		for _, c := range closers {
			c()
		}
	}
}
