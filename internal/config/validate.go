package config

import (
	"errors"
	"fmt"
	"math"
	"net"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateLocation(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateRender() error {
	if c.Render.CodeSize < 21 {
		return errors.New("render.code_size must be at least 21 (smallest code symbol)")
	}
	switch c.Render.ErrorCorrection {
	case "low", "medium", "high", "highest":
	default:
		return fmt.Errorf("render.error_correction: unsupported value %q (low|medium|high|highest)", c.Render.ErrorCorrection)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	switch c.Pipeline.Recompute {
	case RecomputeOnChange, RecomputeOnDemand:
	default:
		return fmt.Errorf("pipeline.recompute: unsupported value %q (on_change|on_demand)", c.Pipeline.Recompute)
	}
	if c.Pipeline.DebounceMS < 0 {
		return errors.New("pipeline.debounce_ms must be >= 0")
	}
	return nil
}

func (c *Config) validateLocation() error {
	if c.Location.TimeoutSeconds <= 0 {
		return errors.New("location.timeout_seconds must be positive")
	}
	switch c.Location.Source {
	case LocationNone:
	case LocationStatic:
		lat, lng := c.Location.StaticLatitude, c.Location.StaticLongitude
		if math.IsNaN(lat) || lat < -90 || lat > 90 {
			return errors.New("location.static_latitude must be between -90 and 90")
		}
		if math.IsNaN(lng) || lng < -180 || lng > 180 {
			return errors.New("location.static_longitude must be between -180 and 180")
		}
	case LocationGPSD:
		if _, _, err := net.SplitHostPort(c.Location.GPSDAddress); err != nil {
			return fmt.Errorf("location.gpsd_address: %w", err)
		}
	default:
		return fmt.Errorf("location.source: unsupported value %q (none|static|gpsd)", c.Location.Source)
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind: %w", err)
	}
	if c.Server.MaxUploadMB <= 0 {
		return errors.New("server.max_upload_mb must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		return errors.New("notifications.request_timeout_seconds must be positive")
	}
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	u, err := url.Parse(topic)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic: %q is not an http(s) URL", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q (debug|info|warn|error)", c.Logging.Level)
	}
}
