// Package apperr defines the error taxonomy shared by every layer.
// Adapters wrap one of the sentinels with context; callers classify with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig marks missing or invalid configuration keys.
	ErrConfig = errors.New("config error")
	// ErrNotFound marks missing directories or resource files.
	ErrNotFound = errors.New("not found")
	// ErrLoadFailure marks a persisted index that exists but cannot be read.
	ErrLoadFailure = errors.New("load failure")
	// ErrProvider marks LLM or embedding API failures (auth, network, rate limit, timeout).
	ErrProvider = errors.New("provider error")
)

func IsConfig(err error) bool {
	return errors.Is(err, ErrConfig)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsLoadFailure(err error) bool {
	return errors.Is(err, ErrLoadFailure)
}

func IsProvider(err error) bool {
	return errors.Is(err, ErrProvider)
}

// Config returns an ErrConfig with a formatted message.
func Config(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// NotFound wraps err (usually an fs error) as ErrNotFound.
func NotFound(what string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("%w: %s: %w", ErrNotFound, what, err)
}

// LoadFailure wraps err as ErrLoadFailure.
func LoadFailure(what string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrLoadFailure, what)
	}
	return fmt.Errorf("%w: %s: %w", ErrLoadFailure, what, err)
}

// Provider wraps err as ErrProvider, tagging the provider name.
// The cause stays reachable through errors.Is.
func Provider(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrProvider) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrProvider, provider, err)
}

// Kind returns a short label for the error class, used in logs and HTTP responses.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsConfig(err):
		return "config"
	case IsNotFound(err):
		return "not_found"
	case IsLoadFailure(err):
		return "load_failure"
	case IsProvider(err):
		return "provider"
	default:
		return "internal"
	}
}
