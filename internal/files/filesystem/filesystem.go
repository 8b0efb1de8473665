package filesystem

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
)

// ErrInvalidName is returned for names that are empty, contain a path
// separator or refer to the directory itself.
var ErrInvalidName = errors.New("invalid file name")

// DataDir is a flat directory of files addressed by name.
type DataDir interface {
	// Path returns a human-readable location for name, used in log messages.
	Path(name string) string

	// Exists reports whether name is present.
	Exists(name string) (bool, error)

	// Open opens name for reading. A missing file yields an error wrapping fs.ErrNotExist.
	Open(name string) (io.ReadCloser, error)

	// Create creates or truncates name for writing.
	Create(name string) (io.WriteCloser, error)

	// Rename atomically replaces newName with oldName.
	Rename(oldName, newName string) error

	// Remove deletes name. Removing a missing file is not an error.
	Remove(name string) error
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return nil
}

func notExist(op, name string) error {
	return &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
}
