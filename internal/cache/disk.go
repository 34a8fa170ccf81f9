package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Disk stores one JSON file per key; an entry expires when its modification
// time is older than the TTL.
type Disk struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewDisk creates dir if needed and returns a store rooted there.
func NewDisk(dir string, ttl time.Duration) (*Disk, error) {
	if dir == "" {
		dir = ".ga_cache"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Disk{dir: dir, ttl: ttl, now: time.Now}, nil
}

func (d *Disk) Name() string { return "disk" }

func (d *Disk) path(key string) string {
	return filepath.Join(d.dir, SafeKey(key)+".json")
}

func (d *Disk) Get(_ context.Context, key string) ([]byte, bool, error) {
	path := d.path(key)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("stat cache entry: %w", err)
	}
	if d.now().Sub(info.ModTime()) > d.ttl {
		_ = os.Remove(path)
		return nil, false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}
	return data, true, nil
}

func (d *Disk) Set(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(d.dir, ".entry-*")
	if err != nil {
		return fmt.Errorf("create cache entry: %w", err)
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), d.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("commit cache entry: %w", err)
	}
	return nil
}
