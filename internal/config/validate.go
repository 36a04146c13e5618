package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDecoder(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDecoder() error {
	switch c.Decoder.Mode {
	case DecoderModeNative, DecoderModeExternal:
	default:
		return fmt.Errorf("decoder.mode must be %q or %q, got %q", DecoderModeNative, DecoderModeExternal, c.Decoder.Mode)
	}
	if c.Decoder.Mode == DecoderModeExternal && c.Decoder.Binary == "" {
		return errors.New("decoder.binary must be set when decoder.mode is external")
	}
	if c.Decoder.TimeoutSeconds <= 0 {
		return errors.New("decoder.timeout_seconds must be positive")
	}
	if c.Decoder.Workers <= 0 {
		return errors.New("decoder.workers must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}
