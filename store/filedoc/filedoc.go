// Package filedoc stores the sent-records document in a local file.
package filedoc

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/mothmailer/mothmailer/store"
)

type File struct {
	path string
}

func New(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("filedoc: path required")
	}
	return &File{path: path}, nil
}

func (f *File) Name() string {
	return "file:" + f.path
}

func (f *File) Read(_ context.Context) ([]byte, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (f *File) Replace(_ context.Context, b []byte) error {
	dir := filepath.Dir(f.path)
	if _, err := os.Stat(dir); err != nil {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return replaceFile(f.path, b)
}

// replaceFile writes to a temporary file next to path and renames it
// into place, so readers never see a partial document.
func replaceFile(path string, b []byte) error {
	tmpPath := path + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	defer func() {
		f.Close()
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	n, err := f.Write(b)
	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}
	if err1 := f.Close(); err == nil {
		err = err1
	}
	if err != nil {
		return err
	}

	err = os.Rename(tmpPath, path)
	if err != nil {
		return err
	}

	return nil
}
