package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRender()
	c.normalizePipeline()
	c.normalizeLocation()
	c.normalizeServer()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(outputDirEnv); ok && strings.TrimSpace(value) != "" {
		c.Paths.OutputDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	var err error
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRender() {
	c.Render.ErrorCorrection = strings.ToLower(strings.TrimSpace(c.Render.ErrorCorrection))
	if c.Render.ErrorCorrection == "" {
		c.Render.ErrorCorrection = defaultErrorCorrection
	}
	if c.Render.CodeSize == 0 {
		c.Render.CodeSize = defaultCodeSize
	}
}

func (c *Config) normalizePipeline() {
	c.Pipeline.Recompute = strings.ToLower(strings.TrimSpace(c.Pipeline.Recompute))
	c.Pipeline.Recompute = strings.ReplaceAll(c.Pipeline.Recompute, "-", "_")
	if c.Pipeline.Recompute == "" {
		c.Pipeline.Recompute = defaultRecompute
	}
}

func (c *Config) normalizeLocation() {
	c.Location.Source = strings.ToLower(strings.TrimSpace(c.Location.Source))
	if c.Location.Source == "" {
		c.Location.Source = defaultLocationSource
	}
	c.Location.GPSDAddress = strings.TrimSpace(c.Location.GPSDAddress)
	if c.Location.GPSDAddress == "" {
		c.Location.GPSDAddress = defaultGPSDAddress
	}
	if c.Location.TimeoutSeconds == 0 {
		c.Location.TimeoutSeconds = defaultLocationTimeout
	}
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = defaultMaxUploadMB
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds == 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
