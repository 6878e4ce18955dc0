package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyMachineID   = "client.machine_id"
	KeyHostname    = "client.hostname"
	KeyLastAddress = "relay.last_address"
)

// Repository is a key/value store for small client settings. Get returns
// (nil, nil) for a missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
