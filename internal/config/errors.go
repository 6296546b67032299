package config

import "errors"

var (
	// ErrConfigNotFound is returned when an explicitly requested config file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	ErrInvalidTimeout   = errors.New("invalid timeout: must be positive")
	ErrInvalidRate      = errors.New("invalid whois rate: must be positive")
	ErrInvalidBodySize  = errors.New("invalid max body size: must be positive")
	ErrNoModelsDir      = errors.New("models directory is required")
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")
	ErrNoAddr           = errors.New("listen address is required")
)
