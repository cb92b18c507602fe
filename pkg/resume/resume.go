// Package resume snapshots the corporate numbers already present in an
// output file so an interrupted run can continue without duplicating rows.
package resume

import (
	"github.com/Sternrassler/gbiz-collector/pkg/csvfile"
)

// KeyColumn is the column every collector file is keyed on.
const KeyColumn = "corporate_number"

// Set is an immutable snapshot of processed corporate numbers.
type Set struct {
	keys map[string]struct{}
}

// Empty returns a set that contains nothing.
func Empty() Set {
	return Set{}
}

// Load reads the key column of path. A file that does not exist yields an
// empty set; any other read failure is returned.
func Load(path string) (Set, error) {
	values, err := csvfile.ReadColumn(path, KeyColumn)
	if err != nil {
		if csvfile.IsNotExist(err) {
			return Empty(), nil
		}
		return Set{}, err
	}

	keys := make(map[string]struct{}, len(values))
	for _, v := range values {
		keys[v] = struct{}{}
	}
	return Set{keys: keys}, nil
}

// Contains reports whether number was already processed.
func (s Set) Contains(number string) bool {
	_, ok := s.keys[number]
	return ok
}

// Len returns the number of distinct keys.
func (s Set) Len() int {
	return len(s.keys)
}

// Seen extends a snapshot with numbers emitted during the current run.
type Seen struct {
	base  Set
	added map[string]struct{}
}

// NewSeen starts tracking on top of base.
func NewSeen(base Set) *Seen {
	return &Seen{base: base, added: make(map[string]struct{})}
}

// Contains reports whether number is in the snapshot or was added since.
func (s *Seen) Contains(number string) bool {
	if s.base.Contains(number) {
		return true
	}
	_, ok := s.added[number]
	return ok
}

// Add records number as emitted.
func (s *Seen) Add(number string) {
	s.added[number] = struct{}{}
}
