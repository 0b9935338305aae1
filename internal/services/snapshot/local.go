package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore writes snapshots under a directory on disk
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (l *LocalStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	path := filepath.Join(l.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return path, nil
}

func (l *LocalStore) Name() string { return "local" }
