package filesystem

import (
	"bytes"
	"io"
	"path"
	"sort"
	"sync"
)

// MemoryDataDir is an in-memory DataDir. Writes become visible when the
// writer returned by Create is closed.
type MemoryDataDir struct {
	root  string
	mu    sync.Mutex
	files map[string][]byte
}

// NewMemoryDataDir returns an empty in-memory directory. root only affects Path.
func NewMemoryDataDir(root string) *MemoryDataDir {
	return &MemoryDataDir{root: root, files: make(map[string][]byte)}
}

// AddFile stores content under name, replacing any existing file.
func (d *MemoryDataDir) AddFile(name, content string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.files[name] = []byte(content)
}

// ReadFile returns the content of name and whether it exists.
func (d *MemoryDataDir) ReadFile(name string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, ok := d.files[name]
	return string(data), ok
}

// Names lists stored files in lexical order.
func (d *MemoryDataDir) Names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, 0, len(d.files))
	for name := range d.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d *MemoryDataDir) Path(name string) string {
	return path.Join(d.root, name)
}

func (d *MemoryDataDir) Exists(name string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}
	_, ok := d.ReadFile(name)
	return ok, nil
}

func (d *MemoryDataDir) Open(name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	content, ok := d.ReadFile(name)
	if !ok {
		return nil, notExist("open", d.Path(name))
	}
	return io.NopCloser(bytes.NewReader([]byte(content))), nil
}

func (d *MemoryDataDir) Create(name string) (io.WriteCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	return &memoryWriter{dir: d, name: name}, nil
}

func (d *MemoryDataDir) Rename(oldName, newName string) error {
	if err := validateName(oldName); err != nil {
		return err
	}
	if err := validateName(newName); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	data, ok := d.files[oldName]
	if !ok {
		return notExist("rename", d.Path(oldName))
	}
	delete(d.files, oldName)
	d.files[newName] = data
	return nil
}

func (d *MemoryDataDir) Remove(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.files, name)
	return nil
}

type memoryWriter struct {
	dir  *MemoryDataDir
	name string
	buf  bytes.Buffer
}

func (w *memoryWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *memoryWriter) Close() error {
	w.dir.mu.Lock()
	defer w.dir.mu.Unlock()
	w.dir.files[w.name] = append([]byte(nil), w.buf.Bytes()...)
	return nil
}
