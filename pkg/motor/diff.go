package motor

import "fmt"

// Target identifies the motors of one connected array.
type Target struct {
	ArrayIndex int
	MotorCount int
}

// Entry is the instruction list for one array.
type Entry struct {
	Target       Target
	Instructions Instructions
}

// Batch contains one Entry per connected array, in the order of the
// targets it was built from.
type Batch struct {
	Entries []Entry
	// ResetsState is set when executing the batch makes every motor
	// of the addressed arrays return to zero, so the current state
	// grid should be zeroed for them once they have moved.
	ResetsState bool
}

// Payloads returns the wire payload for each entry.
func (b Batch) Payloads() []string {
	payloads := make([]string, len(b.Entries))
	for n, entry := range b.Entries {
		payloads[n] = entry.Instructions.String()
	}
	return payloads
}

// Diff computes the instructions moving every motor of targets from
// current to desired. It's a pure function.
func Diff(desired, current Grid, targets []Target) (Batch, error) {
	batch := Batch{Entries: make([]Entry, len(targets))}
	for n, target := range targets {
		desiredRow, err := gridRow(desired, target)
		if err != nil {
			return Batch{}, fmt.Errorf("desired: %v", err)
		}
		currentRow, err := gridRow(current, target)
		if err != nil {
			return Batch{}, fmt.Errorf("current: %v", err)
		}
		insts := make(Instructions, target.MotorCount)
		for slot := range insts {
			insts[slot] = instructionFor(currentRow[slot] - desiredRow[slot])
		}
		batch.Entries[n] = Entry{Target: target, Instructions: insts}
	}
	return batch, nil
}

// ResetBatch moves every motor of targets up by magnitude turns.
func ResetBatch(targets []Target, magnitude int) Batch {
	batch := Batch{Entries: make([]Entry, len(targets)), ResetsState: true}
	for n, target := range targets {
		insts := make(Instructions, target.MotorCount)
		for slot := range insts {
			insts[slot] = Instruction{Direction: Up, Magnitude: magnitude}
		}
		batch.Entries[n] = Entry{Target: target, Instructions: insts}
	}
	return batch
}

func instructionFor(delta int) Instruction {
	switch {
	case delta < 0:
		return Instruction{Direction: Down, Magnitude: -delta}
	case delta > 0:
		return Instruction{Direction: Up, Magnitude: delta}
	}
	return Instruction{Direction: None}
}

func gridRow(g Grid, target Target) ([]int, error) {
	if target.ArrayIndex < 0 || target.ArrayIndex >= len(g) {
		return nil, fmt.Errorf("array %d not in grid", target.ArrayIndex)
	}
	row := g[target.ArrayIndex]
	if target.MotorCount < 0 || target.MotorCount > len(row) {
		return nil, fmt.Errorf("array %d has %d motors, grid row has %d", target.ArrayIndex, target.MotorCount, len(row))
	}
	return row, nil
}
