package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound   = goerr.New("configuration file not found")
	ErrInvalidConfig    = goerr.New("invalid configuration")
	ErrDuplicateID      = goerr.New("duplicate ID")
	ErrMissingName      = goerr.New("name is required")
	ErrInvalidDuration  = goerr.New("duration in days must not be negative")
	ErrInvalidLogLevel  = goerr.New("invalid log level")
	ErrInvalidLogFormat = goerr.New("invalid log format")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	CategoryIDKey = "category_id"
	UnitIDKey     = "unit_id"
)
