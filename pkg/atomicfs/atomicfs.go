// Package atomicfs writes files atomically through a temporary file that
// is renamed over the destination on Close. Readers of the destination
// path never observe a partially written file.
package atomicfs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const tmpPattern = ".jvmcov-*.tmp"

// File accumulates writes in a temporary file next to the destination.
// Close commits the content, Discard drops it. Exactly one of the two
// must be called.
type File struct {
	tmp  *os.File
	dst  string
	sync bool
}

type Option func(f *File) error

// WithSync fsyncs the temporary file before renaming it into place.
func WithSync() Option {
	return func(f *File) error {
		f.sync = true
		return nil
	}
}

// WithMode sets the mode of the committed file.
func WithMode(mode os.FileMode) Option {
	return func(f *File) error {
		return f.tmp.Chmod(mode)
	}
}

func Create(path string, opts ...Option) (*File, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+tmpPattern)
	if err != nil {
		return nil, err
	}

	f := &File{tmp: tmp, dst: path}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			_ = f.Discard()
			return nil, err
		}
	}
	return f, nil
}

func (f *File) Write(data []byte) (int, error) {
	return f.tmp.Write(data)
}

// Discard drops the pending content. Calling it after Close or a
// previous Discard is a no-op, so it is safe to defer unconditionally.
func (f *File) Discard() error {
	if f.tmp == nil {
		return nil
	}
	tmp := f.tmp
	f.tmp = nil

	closeErr := tmp.Close()
	if err := os.Remove(tmp.Name()); err != nil {
		return err
	}
	return closeErr
}

// Close commits the pending content to the destination path. On error
// the temporary file is removed and the destination is left untouched.
func (f *File) Close() error {
	if f.tmp == nil {
		return fmt.Errorf("atomicfs: file for %s already finished", f.dst)
	}

	if f.sync {
		if err := f.tmp.Sync(); err != nil {
			_ = f.Discard()
			return err
		}
	}

	tmp := f.tmp
	f.tmp = nil
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), f.dst); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}

// WriteFile is the atomic version of os.WriteFile.
func WriteFile(path string, data []byte, opts ...Option) error {
	f, err := Create(path, opts...)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Discard()
	}()

	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Close()
}

var _ io.WriteCloser = (*File)(nil)
