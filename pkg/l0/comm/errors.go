package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed indicates the channel has been closed.
	ErrClosed = errors.New("channel closed")
	// ErrEmptyBatch indicates there's no frame in a batch text.
	ErrEmptyBatch = errors.New("no frames")
)

// MalformedError reports a batch segment which is not exactly one frame.
type MalformedError struct {
	Segment int
	Text    string
}

// Error implements error.
func (e *MalformedError) Error() string {
	return fmt.Sprintf("segment %d %q is not a frame", e.Segment, e.Text)
}
