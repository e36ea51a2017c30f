package config

import "errors"

var (
	// ErrUnknownKey indicates a key that no config field carries.
	ErrUnknownKey = errors.New("unknown config key")

	// ErrInvalidFile indicates a config file that is not valid TOML or
	// holds fields vid2txt does not know.
	ErrInvalidFile = errors.New("invalid config file")
)
