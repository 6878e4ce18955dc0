package transport

import "errors"

var (
	ErrEmptyAddress = errors.New("empty relay address")
	ErrUnhealthy    = errors.New("relay health check failed")
)
