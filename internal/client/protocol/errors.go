package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrMalformed   = errors.New("malformed frame")
	ErrMissingType = errors.New("missing message type")
	ErrUnknownType = errors.New("unknown message type")
)

// DecodeError describes a frame that could not be turned into a known
// message. Err is one of the package sentinels, possibly wrapping the
// underlying json error.
type DecodeError struct {
	Type string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("decode: %v", e.Err)
	}
	return fmt.Sprintf("decode %q: %v", e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
