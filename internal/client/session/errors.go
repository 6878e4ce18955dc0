package session

import "errors"

var (
	ErrAlreadyConnecting = errors.New("connection attempt already in progress")
	ErrAlreadyConnected  = errors.New("already connected")
	ErrNotConnected      = errors.New("not connected")
	ErrNoAddress         = errors.New("no relay address known")
	ErrPreflight         = errors.New("relay precheck failed")
	ErrClosed            = errors.New("session manager closed")
	ErrConnectTimeout    = errors.New("connection attempt timed out")
	ErrHeartbeatTimeout  = errors.New("no traffic from relay")
	ErrSendBufferFull    = errors.New("send buffer full")
	ErrAlreadyRunning    = errors.New("session manager already running")
)
