package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/themyzteziz/bankapp/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps each key in its own file under dir. Writes go to a temp file
// first and are moved into place with rename, so a crash mid-write never
// corrupts the previous blob.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	path := s.path(key)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return os.Rename(tmp, path)
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", storage.ErrKeyNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
