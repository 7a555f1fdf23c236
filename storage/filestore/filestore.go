// Package filestore persists the durable store as a single JSON file. Writes
// are write-through with an atomic rename so a crash mid-write never leaves a
// torn file behind.
package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/shoplane/storefront-core/storage"
)

var _ storage.DurableStore = (*FileStore)(nil)

type FileStore struct {
	path   string
	lock   sync.RWMutex
	values map[string]string
}

// Open loads (or creates) the store file at path.
func Open(path string) (*FileStore, error) {
	fs := &FileStore{
		path:   path,
		values: make(map[string]string),
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[filestore.Open] read")
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &fs.values); err != nil {
			return nil, errors.Wrap(err, "[filestore.Open] corrupt store file")
		}
	}
	return fs, nil
}

func (fs *FileStore) Get(_ context.Context, key string) (string, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	value, ok := fs.values[key]
	if !ok {
		return "", storage.NotFoundErr
	}
	return value, nil
}

func (fs *FileStore) Set(_ context.Context, key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.values[key] = value
	return fs.flushLocked()
}

func (fs *FileStore) Delete(_ context.Context, key string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	delete(fs.values, key)
	return fs.flushLocked()
}

func (fs *FileStore) Keys(_ context.Context, prefix string) ([]string, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	keys := make([]string, 0)
	for k := range fs.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (fs *FileStore) DeletePrefix(_ context.Context, prefix string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	for k := range fs.values {
		if strings.HasPrefix(k, prefix) {
			delete(fs.values, k)
		}
	}
	return fs.flushLocked()
}

// flushLocked writes the whole map to a temp file and renames it over the
// store file. Caller must hold the write lock.
func (fs *FileStore) flushLocked() error {
	raw, err := json.MarshalIndent(fs.values, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[filestore.flush] marshal")
	}

	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "[filestore.flush] mkdir")
	}

	tmp, err := os.CreateTemp(dir, ".storefront-*")
	if err != nil {
		return errors.Wrap(err, "[filestore.flush] temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "[filestore.flush] write")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "[filestore.flush] sync")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "[filestore.flush] close")
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "[filestore.flush] rename")
	}
	return nil
}
