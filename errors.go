package layercache

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidKey         = errors.New("layercache: invalid key")
	ErrSerialization      = errors.New("layercache: serialization failed")
	ErrBackendUnavailable = errors.New("layercache: backend unavailable")
	ErrBackendOperation   = errors.New("layercache: backend operation failed")
)

// InvalidKeyError is returned before any backend is touched when a key is
// empty or longer than the supported bound.
type InvalidKeyError struct {
	Key    string
	Reason error
}

func (e *InvalidKeyError) Error() string {
	k := e.Key
	if len(k) > 32 {
		k = k[:32] + "..."
	}
	return fmt.Sprintf("layercache: invalid key %q (%d bytes): %v", k, len(e.Key), e.Reason)
}

func (e *InvalidKeyError) Unwrap() error        { return e.Reason }
func (e *InvalidKeyError) Is(target error) bool { return target == ErrInvalidKey }

// SerializationError wraps encode/decode failures and envelope corruption.
type SerializationError struct {
	Op  string // "encode" or "decode"
	Key string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("layercache: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *SerializationError) Unwrap() error        { return e.Err }
func (e *SerializationError) Is(target error) bool { return target == ErrSerialization }

// BackendUnavailableError is a fatal setup error: the store could not be reached
// or is misconfigured.
type BackendUnavailableError struct {
	Backend string
	Err     error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("layercache: backend %s unavailable: %v", e.Backend, e.Err)
}

func (e *BackendUnavailableError) Unwrap() error        { return e.Err }
func (e *BackendUnavailableError) Is(target error) bool { return target == ErrBackendUnavailable }

// BackendOperationError is a single failed call to the underlying store.
type BackendOperationError struct {
	Op  string
	Key string
	Err error
}

func (e *BackendOperationError) Error() string {
	return fmt.Sprintf("layercache: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *BackendOperationError) Unwrap() error        { return e.Err }
func (e *BackendOperationError) Is(target error) bool { return target == ErrBackendOperation }
