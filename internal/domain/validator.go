package domain

import (
	"errors"
	"fmt"
)

type ConfigValidator struct{}

func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

func (v *ConfigValidator) Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}

	if cfg.Host == "" {
		return errors.New("stack host cannot be empty")
	}

	if cfg.StackFile == "" {
		return errors.New("stack definition file cannot be empty")
	}

	if cfg.Image == "" {
		return errors.New("image tag cannot be empty")
	}

	if cfg.Service == "" {
		return errors.New("stack service cannot be empty")
	}

	if cfg.ProbeTimeout <= 0 {
		return errors.New("probe timeout must be positive")
	}

	if cfg.SettleDelay < 0 {
		return errors.New("settle delay cannot be negative")
	}

	if cfg.LogTailLines < 1 {
		return errors.New("log tail lines must be at least 1")
	}

	switch cfg.Format {
	case FormatTable, FormatJSON:
	default:
		return fmt.Errorf("unknown report format %q", cfg.Format)
	}

	return nil
}
