// pkg/source/file.go

package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

type fileSource struct {
	path string
}

func init() {
	Register("file", newFileSource)
}

func newFileSource(_, addr string, _ *Config) (Source, error) {
	if addr == "-" {
		return &fileSource{path: addr}, nil
	}
	p, err := filepath.Abs(addr)
	if err != nil {
		return nil, err
	}
	return &fileSource{path: p}, nil
}

func (f *fileSource) String() string {
	if f.path == "-" {
		return "stdin"
	}
	return "file://" + f.path
}

func (f *fileSource) Name() string {
	return f.path
}

func (f *fileSource) Open(_ context.Context) (io.ReadCloser, error) {
	if f.path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	fd, err := os.Open(f.path)
	if os.IsNotExist(err) || os.IsPermission(err) {
		return nil, permanentError{err}
	}
	return fd, err
}
