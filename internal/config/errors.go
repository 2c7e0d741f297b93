package config

import "errors"

// Sentinel kinds returned by Load and Validate; match them with errors.Is.
var (
	// ErrInvalidConfig marks settings that fail validation, such as an
	// unknown render mode or a total column that is also a segment.
	ErrInvalidConfig = errors.New("splits config: invalid settings")
	// ErrLoadConfig marks a config file or SPLITS_* variable that could not
	// be read or decoded.
	ErrLoadConfig = errors.New("splits config: cannot load settings")
)
