package tax

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration         = errors.New("tax configuration error")
	ErrConfigurationNotFound = errors.New("tax configuration not found")
)

// ConfigurationError reports a missing or malformed active configuration.
// Computation never falls back to zero tax on this error.
type ConfigurationError struct {
	Jurisdiction string
	Reason       string
}

func (e *ConfigurationError) Error() string {
	if e.Jurisdiction == "" {
		return fmt.Sprintf("tax configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("tax configuration error (%s): %s", e.Jurisdiction, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func configError(reason string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(reason, args...)}
}
