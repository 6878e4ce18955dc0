package history

import "errors"

// ErrEmptyContent is returned by RecordLocal for empty or whitespace-only text.
var ErrEmptyContent = errors.New("empty clipboard content")
