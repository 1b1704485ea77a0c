// Package store persists position grids as CSV files.
package store

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/ceiling.go/pkg/motor"
)

// CSV stores the desired and current grids in two CSV files, one row
// per array and one column per motor.
type CSV struct {
	Limits      motor.Limits
	DesiredPath string
	CurrentPath string
}

// Load reads the grid at path and lints it: every cell which is not an
// integer in (0, MaxTurns] becomes 0, missing rows and columns are
// filled with 0 and extra ones are dropped. The linted grid is written
// back to path.
func (s *CSV) Load(path string) (motor.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: file not found", path)
		}
		return nil, fmt.Errorf("can't read %s: %w", path, err)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("can't read %s: %w", path, err)
	}
	g := Lint(records, s.Limits)
	if err := s.Save(path, g); err != nil {
		return nil, err
	}
	glog.V(1).Infof("%s linted", path)
	return g, nil
}

// LoadGrids loads and lints both grids.
func (s *CSV) LoadGrids() (desired, current motor.Grid, err error) {
	if desired, err = s.Load(s.DesiredPath); err != nil {
		return
	}
	current, err = s.Load(s.CurrentPath)
	return
}

// SaveCurrent persists the current grid.
func (s *CSV) SaveCurrent(g motor.Grid) error {
	return s.Save(s.CurrentPath, g)
}

// Save writes g to path. The file is replaced atomically.
func (s *CSV) Save(path string, g motor.Grid) error {
	if err := g.CheckShape(s.Limits); err != nil {
		return fmt.Errorf("can't write %s: %w", path, err)
	}
	tmp, err := ioutil.TempFile(filepath.Dir(path), "."+filepath.Base(path)+".")
	if err != nil {
		return fmt.Errorf("can't write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.Write(Format(g)); err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}
	if err != nil {
		return fmt.Errorf("can't write %s: %w", path, err)
	}
	return nil
}

// Lint converts CSV records into a grid shaped by l.
func Lint(records [][]string, l motor.Limits) motor.Grid {
	g := motor.NewGrid(l)
	for r := 0; r < l.MaxArrays && r < len(records); r++ {
		for c := 0; c < l.MaxMotors && c < len(records[r]); c++ {
			v, err := strconv.Atoi(strings.TrimSpace(records[r][c]))
			if err == nil && v > 0 && v <= l.MaxTurns {
				g[r][c] = v
			}
		}
	}
	return g
}

// Format encodes g as CSV with every cell quoted.
func Format(g motor.Grid) []byte {
	var w bytes.Buffer
	for _, row := range g {
		for n, v := range row {
			if n > 0 {
				w.WriteByte(',')
			}
			w.WriteString(`"` + strconv.Itoa(v) + `"`)
		}
		w.WriteString("\r\n")
	}
	return w.Bytes()
}
