package motor

import "fmt"

// Grid holds a turn count per motor, one row per array.
type Grid [][]int

// NewGrid creates a zero filled grid shaped by limits.
func NewGrid(l Limits) Grid {
	g := make(Grid, l.MaxArrays)
	for n := range g {
		g[n] = make([]int, l.MaxMotors)
	}
	return g
}

// CheckShape verifies the grid has exactly the shape defined by limits.
func (g Grid) CheckShape(l Limits) error {
	if len(g) != l.MaxArrays {
		return fmt.Errorf("grid has %d rows, expect %d", len(g), l.MaxArrays)
	}
	for n, row := range g {
		if len(row) != l.MaxMotors {
			return fmt.Errorf("grid row %d has %d columns, expect %d", n, len(row), l.MaxMotors)
		}
	}
	return nil
}

// Clone makes a deep copy.
func (g Grid) Clone() Grid {
	c := make(Grid, len(g))
	for n, row := range g {
		c[n] = append([]int(nil), row...)
	}
	return c
}

// CopyRow overwrites row index with the same row from src.
func (g Grid) CopyRow(src Grid, index int) {
	copy(g[index], src[index])
}

// ZeroRow sets every cell of row index to 0.
func (g Grid) ZeroRow(index int) {
	row := g[index]
	for n := range row {
		row[n] = 0
	}
}
