package dsn

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("dsn: invalid configuration")

// InvalidConfigError reports a DSN that cannot describe a cache: unknown
// scheme or serializer, missing path, malformed parameter.
type InvalidConfigError struct {
	DSN    string
	Reason string
	Err    error
}

func (e *InvalidConfigError) Error() string {
	msg := fmt.Sprintf("dsn: invalid %q: %s", redact(e.DSN), e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidConfigError) Unwrap() error        { return e.Err }
func (e *InvalidConfigError) Is(target error) bool { return target == ErrInvalidConfig }

func invalid(dsn, reason string, err error) error {
	return &InvalidConfigError{DSN: dsn, Reason: reason, Err: err}
}
