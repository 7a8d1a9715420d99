// Store composes the namespace file, the lock, and the keyed fragment store into the single
// object the scan engine and driver operate against.  Construction enforces the single-writer
// discipline: Open acquires the lock before anything else and Close always releases it.

package store

import (
	"os"
	"time"
)

// Store is the master's open cache: namespace header/hot map, the keyed fragment store, and the
// advisory lock protecting both.
type Store struct {
	Namespace *Namespace
	Keyed     KeyedStore
	lock      *Lock
	mode      os.FileMode
}

// Open acquires the namespace lock, loads (or bootstraps) the namespace file, and opens the
// directory-backed keyed store alongside it.  On any error the lock, if acquired, is released
// before returning.
func Open(namespacePath string, mode os.FileMode) (s *Store, err error) {
	lock, err := AcquireLock(namespacePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			lock.Release()
		}
	}()

	ns, err := LoadNamespace(namespacePath)
	if err != nil {
		return nil, err
	}

	keyed, err := OpenFileKeyedStore(shlvDir(namespacePath), mode)
	if err != nil {
		return nil, err
	}

	return &Store{Namespace: ns, Keyed: keyed, lock: lock, mode: mode}, nil
}

// shlvDir is the sibling directory holding one file per fragment key, the N.shlv equivalent.
func shlvDir(namespacePath string) string {
	return namespacePath + ".shlv"
}

// MarkHot records that dir has been scanned at the given mtime, so a future run that finds the
// directory's mtime unchanged may skip re-reading it.
func (s *Store) MarkHot(dir string, mtime int64) {
	s.Namespace.Hot[dir] = mtime
}

// Close publishes the namespace file with updated timing/size fields and releases the lock.  It
// is safe to call once after a successful run; on error paths the caller releases the lock with
// AbandonLock instead, which leaves the namespace file as it was found.
func (s *Store) Close(scanSeconds, writeSeconds float64) error {
	defer s.lock.Release()

	s.Namespace.Header.Version = Version
	s.Namespace.Header.InitialRun = false
	s.Namespace.Header.LastRun = time.Now()
	s.Namespace.Header.ScanTime = scanSeconds
	s.Namespace.Header.WriteTime = writeSeconds
	s.Namespace.Header.DirCount = len(s.Keyed.Keys())

	closeStart := time.Now()
	if err := s.Namespace.Publish(s.mode); err != nil {
		return err
	}
	if err := s.Keyed.Close(); err != nil {
		return err
	}
	s.Namespace.Header.CloseTime = time.Since(closeStart).Seconds()

	if fi, err := os.Stat(s.Namespace.path); err == nil {
		s.Namespace.Header.NamespaceSz = fi.Size()
	}
	s.Namespace.Header.IndexSz = dirSize(shlvDir(s.Namespace.path))
	return s.Namespace.Publish(s.mode)
}

func dirSize(dir string) int64 {
	var total int64
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	for _, e := range entries {
		if fi, err := e.Info(); err == nil {
			total += fi.Size()
		}
	}
	return total
}

// AbandonLock releases the lock without publishing, for use on fatal error paths where the
// namespace file must be left exactly as it was found.
func (s *Store) AbandonLock() {
	s.lock.Release()
}

// NamespacePath returns the path the store was opened with.
func (s *Store) NamespacePath() string {
	return s.Namespace.path
}

// LockPath returns the advisory lock's path, namespace+".lock".
func LockPath(namespacePath string) string {
	return namespacePath + ".lock"
}

// ShlvDir is the exported form of shlvDir, used by tools that need to inspect the keyed store's
// backing directory directly (e.g. the status HTTP server).
func ShlvDir(namespacePath string) string {
	return shlvDir(namespacePath)
}
