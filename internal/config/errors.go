package config

import "errors"

// Sentinel kinds for configuration errors.
var (
	ErrEmptyAddr        = errors.New("addr must not be empty")
	ErrInvalidThreshold = errors.New("threshold out of range")
)
