package motor

import (
	"strconv"
	"strings"
)

// Direction is the direction a motor turns.
type Direction int

// Directions
const (
	None Direction = iota
	Up
	Down
)

// String returns the wire name of the direction.
func (d Direction) String() string {
	switch d {
	case Up:
		return "Up"
	case Down:
		return "Down"
	default:
		return "None"
	}
}

// Instruction moves one motor.
type Instruction struct {
	Direction Direction
	Magnitude int
}

// String encodes the instruction as "Direction,Magnitude".
func (i Instruction) String() string {
	return i.Direction.String() + "," + strconv.Itoa(i.Magnitude)
}

// Instructions is the ordered list for all motor slots of one array.
type Instructions []Instruction

// String encodes the list as "Dir,Mag,Dir,Mag,...", no trailing comma.
func (l Instructions) String() string {
	parts := make([]string, len(l))
	for n, inst := range l {
		parts[n] = inst.String()
	}
	return strings.Join(parts, ",")
}
