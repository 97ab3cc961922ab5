package cache

import (
	"context"
	"os"
	"path/filepath"

	"github.com/matzehuels/dslstructurizr/pkg/observability"
)

// Store holds rendered artifacts and their debug copies.
type Store interface {
	// Root returns the directory artifacts live in.
	Root() string

	// Hit reports whether the artifact at path can be reused. This is the
	// only cache-hit test.
	Hit(ctx context.Context, path string) bool

	// Exists reports whether an artifact is present at path.
	Exists(ctx context.Context, path string) bool

	// Read returns the artifact bytes.
	Read(ctx context.Context, path string) ([]byte, error)

	// Write stores an artifact, creating parent directories as needed.
	Write(ctx context.Context, path string, data []byte) error

	// WriteDebug stores the raw diagram body next to the artifact.
	WriteDebug(ctx context.Context, artifact, body string) error

	// Clear removes every file under Root and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// FileStore implements Store on the local filesystem.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-based store in the given directory.
// The directory will be created if it doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Root returns the store directory.
func (s *FileStore) Root() string { return s.dir }

// Hit reports whether the artifact already exists.
func (s *FileStore) Hit(ctx context.Context, path string) bool {
	return s.Exists(ctx, path)
}

// Exists reports whether a regular file exists at path.
func (s *FileStore) Exists(ctx context.Context, path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Read returns the content of the artifact at path.
func (s *FileStore) Read(ctx context.Context, path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Write stores data at path.
func (s *FileStore) Write(ctx context.Context, path string, data []byte) error {
	if err := writeFile(path, data); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, path, len(data))
	return nil
}

// WriteDebug stores body in the .diag sibling of artifact.
func (s *FileStore) WriteDebug(ctx context.Context, artifact, body string) error {
	return writeFile(DebugPath(artifact), []byte(body))
}

// Clear removes all files below the store directory, then any directories
// left empty.
func (s *FileStore) Clear(ctx context.Context) (int, error) {
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		return 0, nil
	}

	count := 0
	var dirs []string
	err := filepath.Walk(s.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors, continue walking
		}
		if path == s.dir {
			return nil
		}
		if info.IsDir() {
			dirs = append(dirs, path)
			return nil
		}
		if err := os.Remove(path); err == nil {
			count++
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	// Deepest first so parents are empty by the time we reach them.
	for i := len(dirs) - 1; i >= 0; i-- {
		_ = os.Remove(dirs[i])
	}
	return count, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
