package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strings"
)

// ErrNoColumn is returned when a file lacks a required column.
var ErrNoColumn = errors.New("column not found")

// ReadColumn returns the trimmed, non-empty values of column in file order.
// A missing file yields fs.ErrNotExist wrapped in an *IOError.
func ReadColumn(path, column string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}

	idx := slices.Index(trimBOM(header), column)
	if idx < 0 {
		return nil, &IOError{Op: "read", Path: path, Err: fmt.Errorf("%w: %s", ErrNoColumn, column)}
	}

	var values []string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &IOError{Op: "read", Path: path, Err: err}
		}
		if idx >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[idx]); v != "" {
			values = append(values, v)
		}
	}
	return values, nil
}

// IsNotExist reports whether err stems from a missing file.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
