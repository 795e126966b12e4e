// File: internal/errs/errs.go
package errs

import (
	"errors"
	"fmt"
)

// Exit codes reported by the CLI for each error class
const (
	ExitGeneric        = 1
	ExitConfiguration  = 2
	ExitAuthentication = 3
	ExitConnectivity   = 4
)

// ConfigurationError reports missing or invalid settings, environment variables or credential files.
// It is always raised before any network call is attempted
type ConfigurationError struct {
	Op  string
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %v", e.Op, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// AuthenticationError reports malformed credentials or a rejected OAuth exchange
type AuthenticationError struct {
	Op  string
	Err error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication error: %s: %v", e.Op, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// ConnectivityError wraps whatever the cloud SDKs report when a backend is unreachable or the identity lacks access
type ConnectivityError struct {
	Service string
	Err     error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("connectivity error: %s: %v", e.Service, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

func Configuration(op string, err error) error {
	return &ConfigurationError{Op: op, Err: err}
}

func Configurationf(op, format string, args ...any) error {
	return &ConfigurationError{Op: op, Err: fmt.Errorf(format, args...)}
}

func Authentication(op string, err error) error {
	return &AuthenticationError{Op: op, Err: err}
}

// Connectivity wraps err unless it is nil or already classified
func Connectivity(service string, err error) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return err
	}
	return &ConnectivityError{Service: service, Err: err}
}

// Classified reports whether err already carries one of the error classes
func Classified(err error) bool {
	var cfgErr *ConfigurationError
	var authErr *AuthenticationError
	var connErr *ConnectivityError
	return errors.As(err, &cfgErr) || errors.As(err, &authErr) || errors.As(err, &connErr)
}

// ExitCode maps an error to the process exit status
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var cfgErr *ConfigurationError
	var authErr *AuthenticationError
	var connErr *ConnectivityError

	switch {
	case errors.As(err, &cfgErr):
		return ExitConfiguration
	case errors.As(err, &authErr):
		return ExitAuthentication
	case errors.As(err, &connErr):
		return ExitConnectivity
	default:
		return ExitGeneric
	}
}
