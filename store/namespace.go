// The namespace file: header + hot map, persisted with the atomic-publish protocol and guarded by
// a presence-only lock file.  Modelled on the sonalyze db.PersistentCluster's shadow-directory
// bookkeeping and on the lock/atomic-write idiom used throughout this codebase for report files.

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"framecache/errs"
	"framecache/filesys"
)

// Header carries process-wide metadata about the namespace, persisted alongside the hot map.
type Header struct {
	Version     string    `json:"version"`
	InitialRun  bool      `json:"initial_run"`
	LastRun     time.Time `json:"last_run"`
	ScanTime    float64   `json:"scan_seconds"`
	WriteTime   float64   `json:"write_seconds"`
	CloseTime   float64   `json:"close_seconds"`
	DirCount    int       `json:"dir_count"`
	NamespaceSz int64     `json:"namespace_bytes"`
	IndexSz     int64     `json:"index_bytes"`
}

// namespaceDoc is the on-disk shape of the namespace file: the header plus the hot map.
type namespaceDoc struct {
	Header Header           `json:"header"`
	Hot    map[string]int64 `json:"hot"`
}

// Lock is the presence-only marker file that enforces the single-writer discipline.  It is
// advisory: a stale lock from a crashed master must be removed by an operator.  See
// Design Notes in SPEC_FULL.md.
type Lock struct {
	path string
}

// AcquireLock creates namespace+".lock" if it doesn't already exist.  It fails fast -- no waiting,
// no force -- if the lock is already present.
func AcquireLock(namespace string) (*Lock, error) {
	path := namespace + ".lock"
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, errs.ErrLockConflict
		}
		return nil, fmt.Errorf("creating lock file %s: %w", path, err)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	f.Close()
	return &Lock{path: path}, nil
}

// Release removes the lock file.  It is idempotent and tolerates the file already being gone, so
// it is safe to call from every exit path (including more than once).
func (l *Lock) Release() {
	if l == nil {
		return
	}
	os.Remove(l.path)
}

// Namespace is the master's view of the header + hot map file.  It does not itself hold the index
// store (see Store); it is deliberately a thin, independently-loadable/-publishable unit so a
// worker can load a copy of the hot map without needing the full Store machinery.
type Namespace struct {
	path   string
	Header Header
	Hot    map[string]int64
}

// LoadNamespace reads the namespace file, bootstrapping an empty one (initial_run=true) if it
// doesn't exist yet.  Reads never fail merely because the file is absent.
func LoadNamespace(path string) (*Namespace, error) {
	bytes, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Namespace{
			path: path,
			Header: Header{
				Version:    Version,
				InitialRun: true,
			},
			Hot: make(map[string]int64),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading namespace %s: %w", path, err)
	}

	var doc namespaceDoc
	if err := json.Unmarshal(bytes, &doc); err != nil {
		return nil, fmt.Errorf("parsing namespace %s: %w", path, err)
	}
	if doc.Hot == nil {
		doc.Hot = make(map[string]int64)
	}
	doc.Header.InitialRun = false
	return &Namespace{path: path, Header: doc.Header, Hot: doc.Hot}, nil
}

// Publish atomically writes the namespace file with the given mode.
func (n *Namespace) Publish(mode os.FileMode) error {
	doc := namespaceDoc{Header: n.Header, Hot: n.Hot}
	data, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling namespace: %w", err)
	}
	if err := filesys.PublishBytes(n.path, mode, data); err != nil {
		return &errs.PublishFailure{Destination: n.path, Err: err}
	}
	return nil
}

// Dir returns the directory a namespace file lives in, which also holds its lock file and its
// keyed store directory.
func Dir(namespace string) string {
	return filepath.Dir(namespace)
}
