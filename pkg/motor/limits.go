// Package motor computes move instructions for motor arrays.
package motor

import "fmt"

// Limits defines the size of the ceiling.
type Limits struct {
	// MaxArrays is the number of arrays (grid rows).
	MaxArrays int `yaml:"max_arrays"`
	// MaxMotors is the number of motors per array (grid columns).
	MaxMotors int `yaml:"max_motors"`
	// MaxTurns is the largest turn count a grid cell may hold.
	MaxTurns int `yaml:"max_turns"`
	// ResetMagnitude is the number of turns every motor is moved up on reset.
	ResetMagnitude int `yaml:"reset_magnitude"`
}

// DefaultLimits are limits of the reference installation.
var DefaultLimits = Limits{
	MaxArrays:      4,
	MaxMotors:      10,
	MaxTurns:       10,
	ResetMagnitude: 100,
}

// Validate checks the limits are usable.
func (l Limits) Validate() error {
	switch {
	case l.MaxArrays < 1:
		return fmt.Errorf("max arrays must be positive, got %d", l.MaxArrays)
	case l.MaxMotors < 1:
		return fmt.Errorf("max motors must be positive, got %d", l.MaxMotors)
	case l.MaxTurns < 0:
		return fmt.Errorf("max turns must not be negative, got %d", l.MaxTurns)
	case l.ResetMagnitude < 0:
		return fmt.Errorf("reset magnitude must not be negative, got %d", l.ResetMagnitude)
	}
	return nil
}
