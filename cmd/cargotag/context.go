package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"cargotag/internal/config"
	"cargotag/internal/journal"
	"cargotag/internal/logging"
	"cargotag/internal/notifications"
	"cargotag/internal/sink"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
				cfg.Logging.Level = strings.ToLower(level)
				if err := cfg.Validate(); err != nil {
					c.configErr = fmt.Errorf("--log-level: %w", err)
					return
				}
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// setup returns the loaded config and logger together.
func (c *commandContext) setup() (*config.Config, *slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// deliverySink builds the directory sink for dir, journaled when the journal
// is enabled and announced when ntfy is configured. The returned close
// function releases the journal.
func (c *commandContext) deliverySink(dir string) (sink.Sink, *journal.Store, func(), error) {
	cfg, logger, err := c.setup()
	if err != nil {
		return nil, nil, nil, err
	}
	d, err := sink.NewDir(dir, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	var (
		out     sink.Sink = d
		store   *journal.Store
		closeFn = func() {}
	)
	if cfg.Journal.Enabled {
		store, err = journal.Open(cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		out = &sink.Journaled{Sink: out, Store: store, Logger: logger}
		closeFn = func() { _ = store.Close() }
	}
	if notifier := c.notifier(); notifications.Enabled(notifier) {
		out = &sink.Notified{Sink: out, Notifier: notifier, Logger: logger}
	}
	return out, store, closeFn, nil
}

// notifier returns the configured notification service, a no-op when the
// config cannot be loaded or no topic is set.
func (c *commandContext) notifier() notifications.Service {
	cfg, err := c.ensureConfig()
	if err != nil {
		return notifications.NewService(nil)
	}
	return notifications.NewService(cfg)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
