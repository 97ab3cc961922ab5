package cache

import "context"

// NullStore is a FileStore that never reports a hit. Every diagram is
// rendered again, but artifacts are still written so placeholders resolve.
// Useful for forcing a refresh of the whole cache.
type NullStore struct {
	*FileStore
}

// NewNullStore creates a refreshing store in dir.
func NewNullStore(dir string) (*NullStore, error) {
	fs, err := NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	return &NullStore{FileStore: fs}, nil
}

// Hit always returns false.
func (s *NullStore) Hit(ctx context.Context, path string) bool {
	return false
}

// Ensure NullStore implements Store.
var _ Store = (*NullStore)(nil)
