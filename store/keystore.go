// The "shelf-like keyed store": an abstract string-keyed persistent map with two
// implementations -- a file-backed one for the master (the N.shlv equivalent) and an in-memory one
// for workers, selected at construction and used interchangeably by everything above this file (see
// SPEC_FULL.md Design Notes / "Shelf-like keyed store").

package store

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"

	"framecache/errs"
	"framecache/filesys"
)

// KeyedStore maps directory path -> Fragment.  Implementations must make Set atomic per key: a
// reader iterating Keys()/Get() concurrently with a Set() must never observe a torn fragment.
type KeyedStore interface {
	// Get returns the fragment for key and whether it was present.
	Get(key string) (Fragment, bool)
	// Set replaces the fragment stored at key.
	Set(key string, frag Fragment) error
	// Keys returns every key currently stored, in no particular order.
	Keys() []string
	// Close releases any resources held by the store.  It does not delete data.
	Close() error
}

// FileKeyedStore backs each key with its own JSON file inside a directory (the "N.shlv" sidecar),
// each written with the atomic-publish protocol so a reader never sees a torn fragment file. Keys
// are directory paths, which may contain '/', so file names are the URL-safe base64 encoding of
// the key.
type FileKeyedStore struct {
	dir  string
	mode os.FileMode
}

// OpenFileKeyedStore opens (creating if necessary) a directory-backed keyed store at dir.
func OpenFileKeyedStore(dir string, mode os.FileMode) (*FileKeyedStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileKeyedStore{dir: dir, mode: mode}, nil
}

func (s *FileKeyedStore) filename(key string) string {
	return filepath.Join(s.dir, base64.URLEncoding.EncodeToString([]byte(key))+".json")
}

func (s *FileKeyedStore) Get(key string) (Fragment, bool) {
	data, err := os.ReadFile(s.filename(key))
	if err != nil {
		return nil, false
	}
	var frag Fragment
	if err := json.Unmarshal(data, &frag); err != nil {
		return nil, false
	}
	return frag, true
}

func (s *FileKeyedStore) Set(key string, frag Fragment) error {
	data, err := json.Marshal(frag)
	if err != nil {
		return err
	}
	if err := filesys.PublishBytes(s.filename(key), s.mode, data); err != nil {
		return &errs.PublishFailure{Destination: s.filename(key), Err: err}
	}
	return nil
}

func (s *FileKeyedStore) Keys() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		const suffix = ".json"
		if len(name) <= len(suffix) || name[len(name)-len(suffix):] != suffix {
			continue
		}
		raw, err := base64.URLEncoding.DecodeString(name[:len(name)-len(suffix)])
		if err != nil {
			continue
		}
		keys = append(keys, string(raw))
	}
	return keys
}

func (s *FileKeyedStore) Close() error { return nil }

// MemKeyedStore is a pure in-memory keyed store, used by workers: a worker has no write
// permission to the persistent index store and accumulates its results in memory, serializing them
// once at exit into its IPC payload.
type MemKeyedStore struct {
	data map[string]Fragment
}

func NewMemKeyedStore() *MemKeyedStore {
	return &MemKeyedStore{data: make(map[string]Fragment)}
}

func (s *MemKeyedStore) Get(key string) (Fragment, bool) {
	f, ok := s.data[key]
	return f, ok
}

func (s *MemKeyedStore) Set(key string, frag Fragment) error {
	s.data[key] = frag
	return nil
}

func (s *MemKeyedStore) Keys() []string {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

func (s *MemKeyedStore) Close() error { return nil }
