// Package csvfile writes and reads the UTF-8 CSV files exchanged between the
// dump and hydrate phases.
package csvfile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strings"
)

// IOError is a failure to open, read or write an output or input file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *IOError) Unwrap() error {
	return e.Err
}

// ErrHeaderMismatch is returned when an existing file has a different header.
var ErrHeaderMismatch = errors.New("header mismatch")

// Sink appends rows to a CSV file, one complete row per write.
type Sink struct {
	file   *os.File
	path   string
	header []string
	buf    bytes.Buffer
	enc    *csv.Writer
	rows   int
}

// Create opens path for writing rows with the given header.
//
// In append mode an existing non-empty file keeps its content and must start
// with exactly header; nothing is rewritten. Otherwise the file is truncated
// and the header written once.
func Create(path string, header []string, appendMode bool) (*Sink, error) {
	s := &Sink{path: path, header: header}
	s.enc = csv.NewWriter(&s.buf)

	if appendMode {
		existing, err := readHeader(path)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if !slices.Equal(existing, header) {
				return nil, &IOError{
					Op:   "open",
					Path: path,
					Err: fmt.Errorf("%w: have %q, want %q", ErrHeaderMismatch,
						strings.Join(existing, ","), strings.Join(header, ",")),
				}
			}
			f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, &IOError{Op: "open", Path: path, Err: err}
			}
			s.file = f
			return s, nil
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, &IOError{Op: "create", Path: path, Err: err}
	}
	s.file = f
	if err := s.write(header); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the file path.
func (s *Sink) Path() string {
	return s.path
}

// Rows returns the number of data rows written through this sink.
func (s *Sink) Rows() int {
	return s.rows
}

// Write appends one row. The row is encoded in memory first and handed to
// the file in a single write, so no partial row is left behind by a buffer.
func (s *Sink) Write(row []string) error {
	if len(row) != len(s.header) {
		return &IOError{Op: "write", Path: s.path, Err: fmt.Errorf("row has %d fields, header has %d", len(row), len(s.header))}
	}
	if err := s.write(row); err != nil {
		return err
	}
	s.rows++
	return nil
}

func (s *Sink) write(row []string) error {
	s.buf.Reset()
	if err := s.enc.Write(row); err != nil {
		return &IOError{Op: "encode", Path: s.path, Err: err}
	}
	s.enc.Flush()
	if err := s.enc.Error(); err != nil {
		return &IOError{Op: "encode", Path: s.path, Err: err}
	}
	if _, err := s.file.Write(s.buf.Bytes()); err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

// Close syncs and closes the file.
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	syncErr := s.file.Sync()
	closeErr := s.file.Close()
	s.file = nil
	if err := errors.Join(syncErr, closeErr); err != nil {
		return &IOError{Op: "close", Path: s.path, Err: err}
	}
	return nil
}

// readHeader returns the first row of path, or nil when the file does not
// exist or is empty.
func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	return trimBOM(header), nil
}

// trimBOM strips a UTF-8 byte order mark left by spreadsheet exports.
func trimBOM(header []string) []string {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return header
}
