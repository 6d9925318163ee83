package driver

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"swiftwinrt/internal/project"
)

// bump when the layout of DiskPayload changes
const payloadSchema uint16 = 2

// CacheDir is the cache location relative to the output folder.
const CacheDir = ".swiftwinrt/cache"

// DiskCache хранит результат генерации модуля по его дайджесту.
// Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// CachedFile is one generated file and the hash of its content on disk.
type CachedFile struct {
	Path string         `msgpack:"p"`
	Hash project.Digest `msgpack:"h"`
}

// DiskPayload records what a module generation wrote.
type DiskPayload struct {
	Schema    uint16         `msgpack:"schema"`
	Module    string         `msgpack:"module"`
	Digest    project.Digest `msgpack:"digest"`
	Files     []CachedFile   `msgpack:"files"`
	Generated time.Time      `msgpack:"generated"`
}

// OpenDiskCache creates the cache directory below the output folder.
func OpenDiskCache(output string) (*DiskCache, error) {
	dir := filepath.Join(output, filepath.FromSlash(CacheDir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *DiskCache) Dir() string { return c.dir }

func (c *DiskCache) entryPath(key project.Digest) string {
	return filepath.Join(c.dir, "modules", key.Hex()+".mp")
}

// Put stores payload under key. The entry is replaced atomically, so a
// reader never sees half of it.
func (c *DiskCache) Put(key project.Digest, payload *DiskPayload) error {
	if c == nil {
		return nil
	}
	payload.Schema = payloadSchema
	data, err := msgpack.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key.Hex(), err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	path := c.entryPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "entry-*")
	if err != nil {
		return err
	}
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Get reads the entry for key. An entry of another schema is a miss.
func (c *DiskCache) Get(key project.Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	data, err := os.ReadFile(c.entryPath(key))
	c.mu.RUnlock()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	case err != nil:
		return false, err
	}
	if err := msgpack.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key.Hex(), err)
	}
	return out.Schema == payloadSchema, nil
}

// UpToDate reports whether the module with this digest was generated
// before and every recorded file still has the recorded content.
func (c *DiskCache) UpToDate(key project.Digest, output string) (bool, error) {
	var payload DiskPayload
	ok, err := c.Get(key, &payload)
	if err != nil || !ok {
		return false, err
	}
	for _, f := range payload.Files {
		data, err := os.ReadFile(filepath.Join(output, filepath.FromSlash(f.Path)))
		switch {
		case errors.Is(err, os.ErrNotExist):
			return false, nil
		case err != nil:
			return false, err
		}
		if project.Digest(sha256.Sum256(data)) != f.Hash {
			return false, nil
		}
	}
	return true, nil
}

// DropAll forgets every entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("drop cache: %w", err)
	}
	return os.MkdirAll(c.dir, 0o755)
}
