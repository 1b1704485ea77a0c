// Package port finds and opens the endpoints arrays are attached to.
package port

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
)

var (
	// ErrNoEndpoints indicates nothing matched.
	ErrNoEndpoints = errors.New("no endpoints found")
)

// TooManyError indicates more endpoints than allowed.
type TooManyError struct {
	Found int
	Max   int
}

// Error implements error.
func (e *TooManyError) Error() string {
	return fmt.Sprintf("found %d endpoints, more than max %d", e.Found, e.Max)
}

// Glob enumerates device files matching Patterns, e.g. "/dev/ttyU*".
type Glob struct {
	Patterns []string
	// Max is the maximum number of endpoints accepted, 0 for unlimited.
	Max int
}

// Enumerate implements array.Enumerator.
func (g *Glob) Enumerate() ([]string, error) {
	seen := make(map[string]bool)
	var found []string
	for _, pattern := range g.Patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %v", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				found = append(found, m)
			}
		}
	}
	sort.Strings(found)
	return checkCount(found, g.Max)
}

// Static is a fixed list of addresses, enumerated in the given order.
type Static []string

// Enumerate implements array.Enumerator.
func (s Static) Enumerate() ([]string, error) {
	return checkCount(append([]string(nil), s...), 0)
}

func checkCount(addrs []string, max int) ([]string, error) {
	if len(addrs) == 0 {
		return nil, ErrNoEndpoints
	}
	if max > 0 && len(addrs) > max {
		return nil, &TooManyError{Found: len(addrs), Max: max}
	}
	return addrs, nil
}
