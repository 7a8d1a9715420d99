// Typed error values for the cache pipeline, in the manner of the sonalyze db package's
// ClusterClosedErr / BadTimestampErr: small sentinel values that callers can test with errors.Is,
// plus a couple of wrapping helpers for the error kinds that need payload (worker stderr, the
// offending directory).

package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrLockConflict is returned when another master already owns the namespace.
	ErrLockConflict = errors.New("namespace is locked by another process")

	// ErrClosed names a cache-store operation performed after Close.  The store types in this
	// module do not check for that case and never return it.
	ErrClosed = errors.New("cache store is closed")

	// ErrBadUsage indicates malformed CLI input (e.g. -i with more than one directory).
	ErrBadUsage = errors.New("bad command line usage")

	// ErrNoNamespace names a read-only operation on a namespace that does not exist yet.  No
	// operation in this module returns it: LoadNamespace bootstraps an absent namespace instead.
	ErrNoNamespace = errors.New("namespace does not exist")
)

// WorkerFailure wraps a worker process's nonzero exit, carrying its stderr for diagnosis.
type WorkerFailure struct {
	Root   string
	Stderr string
	Err    error
}

func (e *WorkerFailure) Error() string {
	return fmt.Sprintf("worker for root %q failed: %v\n%s", e.Root, e.Err, e.Stderr)
}

func (e *WorkerFailure) Unwrap() error {
	return e.Err
}

// PublishFailure wraps a failure during atomic publication of a destination file.
type PublishFailure struct {
	Destination string
	Err         error
}

func (e *PublishFailure) Error() string {
	return fmt.Sprintf("failed to publish %q: %v", e.Destination, e.Err)
}

func (e *PublishFailure) Unwrap() error {
	return e.Err
}

// DirError wraps a per-directory I/O error encountered during a scan.  It is logged, not fatal,
// per the scan engine's failure semantics.
type DirError struct {
	Dir string
	Err error
}

func (e *DirError) Error() string {
	return fmt.Sprintf("error scanning %q: %v", e.Dir, e.Err)
}

func (e *DirError) Unwrap() error {
	return e.Err
}
