package apperr

import (
	"errors"
	"fmt"
)

// Failure kinds surfaced by the client. Callers match them with errors.Is.
var (
	ErrArgument       = errors.New("invalid argument")
	ErrCommandLine    = errors.New("invalid option")
	ErrUnknownCommand = errors.New("unknown command")
	ErrConnection     = errors.New("connection failed")
	ErrTimeout        = errors.New("request timed out")
	ErrAuthorization  = errors.New("authorization failed")
)

// HTTPError is any failed HTTP exchange that was not recovered locally.
// Code is the response status, or 0 when no status line was read.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Code == 0 {
		return "http: " + e.Message
	}
	return fmt.Sprintf("http %d: %s", e.Code, e.Message)
}

// RequiredOptionError reports a collaborator that is missing a mandatory setting.
type RequiredOptionError struct {
	Key   string
	Owner string
}

func (e *RequiredOptionError) Error() string {
	return fmt.Sprintf("%s requires option %q", e.Owner, e.Key)
}

// IsStatus reports whether err carries an HTTPError with the given code.
func IsStatus(err error, code int) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Code == code
}

// IsClientError reports whether err carries a 4xx HTTPError.
func IsClientError(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Code >= 400 && he.Code < 500
}

// ExitCode maps an error to the process exit status used by the CLI.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var (
		he *HTTPError
		re *RequiredOptionError
	)
	switch {
	case errors.Is(err, ErrAuthorization):
		return 32
	case errors.Is(err, ErrCommandLine):
		return 13
	case errors.Is(err, ErrUnknownCommand):
		return 14
	case errors.As(err, &re):
		return 15
	case errors.Is(err, ErrConnection):
		return 21
	case errors.Is(err, ErrTimeout):
		return 22
	case errors.As(err, &he):
		return 23
	default:
		return 1
	}
}
