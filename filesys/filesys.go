// Filesystem helpers shared by the cache store and the emitter: atomic publication (write to a
// temp file in the destination's directory, flush, chmod, rename).
//
// The atomic-publish idiom here is the one already used ad hoc in this codebase (see
// naicreport/load's report writer and go-utils/freecsv's WriteFreeCSV): os.CreateTemp beside the
// destination, write, close, os.Rename.  This file gives it one name and one error path so every
// caller gets the same guarantee: if we crash or error out between CreateTemp and Rename, the
// destination is untouched.

package filesys

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// PublishAtomic writes the bytes produced by write(io.Writer) to a temporary file in the same
// directory as destination, flushes it, chmods it to mode, and renames it onto destination.  If
// write or any step before the rename fails, the temp file is removed and destination is
// untouched.
func PublishAtomic(destination string, mode os.FileMode, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(destination)
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(destination)+"-")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	succeeded := false
	defer func() {
		if !succeeded {
			os.Remove(tmpName)
		}
	}()

	if err = write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing %s: %w", tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err = os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err = os.Rename(tmpName, destination); err != nil {
		return fmt.Errorf("renaming %s to %s: %w", tmpName, destination, err)
	}
	succeeded = true
	return nil
}

// PublishBytes is PublishAtomic specialized for an already-formed byte slice.
func PublishBytes(destination string, mode os.FileMode, data []byte) error {
	return PublishAtomic(destination, mode, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
