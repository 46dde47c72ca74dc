package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateSupervisor(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind %q is not a host:port address: %w", c.Server.Bind, err)
	}
	if c.Server.Workers < 0 {
		return errors.New("server.workers must be zero (one per CPU) or positive")
	}
	if c.Metrics.Bind != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Bind); err != nil {
			return fmt.Errorf("metrics.bind %q is not a host:port address: %w", c.Metrics.Bind, err)
		}
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case StoreDriverJSON, StoreDriverSQLite:
		return nil
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", StoreDriverJSON, StoreDriverSQLite, c.Store.Driver)
	}
}

func (c *Config) validateMedia() error {
	if c.Media.ThumbnailOffsetSeconds < 0 {
		return errors.New("media.thumbnail_offset_seconds must be non-negative")
	}
	if c.Media.ResizeThreads < 0 {
		return errors.New("media.resize_threads must be positive")
	}
	return nil
}

func (c *Config) validateSupervisor() error {
	if c.Supervisor.SpawnRetrySeconds < 0 {
		return errors.New("supervisor.spawn_retry_seconds must be non-negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
