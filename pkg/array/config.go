package array

import (
	"time"

	"github.com/robotalks/ceiling.go/pkg/l0/comm"
	"github.com/robotalks/ceiling.go/pkg/motor"
)

// Fixed ceilings of the reference firmware.
const (
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultExecutionTimeout = 100 * time.Second
	DefaultSentinel         = "Arduino is ready"
)

// Config is shared by every component of this package. It's not
// modified after construction.
type Config struct {
	Limits  motor.Limits
	Markers comm.Markers
	// Sentinel is the text the firmware sends once it's ready.
	Sentinel string

	HandshakeTimeout time.Duration
	ExecutionTimeout time.Duration
}

// DefaultConfig returns the config of the reference installation.
func DefaultConfig() Config {
	return Config{
		Limits:           motor.DefaultLimits,
		Markers:          comm.DefaultMarkers,
		Sentinel:         DefaultSentinel,
		HandshakeTimeout: DefaultHandshakeTimeout,
		ExecutionTimeout: DefaultExecutionTimeout,
	}
}
