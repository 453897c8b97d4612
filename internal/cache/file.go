package cache

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// File stores each key as one file under a data directory.
// A key "team/atletico-mineiro-1683" lives at <dir>/team/atletico-mineiro-1683.cache.
type File struct {
	dataDir string
}

// NewFile creates a File store, creating dataDir if needed
func NewFile(dataDir string) (*File, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &File{dataDir: dataDir}, nil
}

// path maps a key to its file, escaping every segment
func (f *File) path(key string) (string, error) {
	segments := strings.Split(key, "/")
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, f.dataDir)
	for _, s := range segments {
		if s == "" || s == "." || s == ".." {
			return "", fmt.Errorf("invalid key segment %q", s)
		}
		parts = append(parts, url.PathEscape(s))
	}
	parts[len(parts)-1] += ".cache"
	return filepath.Join(parts...), nil
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	path, err := f.path(key)
	if err != nil {
		return nil, &Error{Op: "get", Key: key, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, &Error{Op: "get", Key: key, Err: fmt.Errorf("reading cache file: %w", err)}
	}
	return data, nil
}

// Put writes through a temp file and rename so readers never see a partial value
func (f *File) Put(_ context.Context, key string, value []byte) error {
	path, err := f.path(key)
	if err != nil {
		return &Error{Op: "put", Key: key, Err: err}
	}

	if err := f.write(path, value); err != nil {
		return &Error{Op: "put", Key: key, Err: err}
	}
	return nil
}

func (f *File) write(path string, value []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".fixtures-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("setting cache file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing cache file: %w", err)
	}
	return nil
}
