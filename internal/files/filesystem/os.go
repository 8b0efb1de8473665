package filesystem

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// OSDataDir is a DataDir backed by a directory on disk.
type OSDataDir struct {
	root string
}

// NewOSDataDir returns a DataDir rooted at root, creating the directory if needed.
func NewOSDataDir(root string) (*OSDataDir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", abs, err)
	}
	return &OSDataDir{root: abs}, nil
}

// Root returns the absolute directory path.
func (d *OSDataDir) Root() string {
	return d.root
}

func (d *OSDataDir) Path(name string) string {
	return filepath.Join(d.root, name)
}

func (d *OSDataDir) Exists(name string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}
	info, err := os.Stat(d.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, fmt.Errorf("%s is a directory", d.Path(name))
	}
	return true, nil
}

func (d *OSDataDir) Open(name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	return os.Open(d.Path(name))
}

func (d *OSDataDir) Create(name string) (io.WriteCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	return os.Create(d.Path(name))
}

func (d *OSDataDir) Rename(oldName, newName string) error {
	if err := validateName(oldName); err != nil {
		return err
	}
	if err := validateName(newName); err != nil {
		return err
	}
	return os.Rename(d.Path(oldName), d.Path(newName))
}

func (d *OSDataDir) Remove(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	err := os.Remove(d.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
