// Package artifact maps the read-only model and vocabulary files loaded at
// startup and reports their load failures.
package artifact

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// ErrLoad is matched by every artifact load failure.
var ErrLoad = errors.New("artifact load failed")

// LoadError describes a failed artifact load. Attempts holds one error per
// format that was tried, in order.
type LoadError struct {
	Kind     string
	Path     string
	Attempts []error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "load %s %q", e.Kind, e.Path)
	for i, err := range e.Attempts {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(err.Error())
	}
	return b.String()
}

func (e *LoadError) Unwrap() []error {
	out := make([]error, 0, len(e.Attempts)+1)
	out = append(out, ErrLoad)
	out = append(out, e.Attempts...)
	return out
}

// Mapping is a read-only view of a file.
type Mapping struct {
	Path    string
	Data    []byte
	mmapped bool
}

// Map maps path read-only. If mmap is unavailable it falls back to reading
// the file into memory. The returned mapping must be closed.
func Map(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%s: file too large to map", path)
	}
	size := int(size64)
	if size == 0 {
		return &Mapping{Path: path, Data: []byte{}}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		return &Mapping{Path: path, Data: data, mmapped: true}, nil
	}

	data = make([]byte, size)
	if _, err := f.ReadAt(data, 0); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &Mapping{Path: path, Data: data}, nil
}

// Close releases the mapping. Data must not be used afterwards.
func (m *Mapping) Close() error {
	if m == nil || m.Data == nil {
		return nil
	}
	var err error
	if m.mmapped {
		err = unix.Munmap(m.Data)
	}
	m.Data = nil
	m.mmapped = false
	return err
}
