// The scan engine (C3): walks one directory tree, skipping subtrees that haven't changed since
// their last visit, parses frame file names, and accumulates per-directory fragments.  Modelled on
// sonalyze/db/persistentcluster.go's lazy shadow-tree walk: sample a directory's mtime once, decide
// whether to descend, and only pay the cost of a readdir for directories that actually changed.

package scan

import (
	"io/fs"
	"os"
	"path/filepath"

	"framecache/errs"
	"framecache/frame"
	"framecache/store"
)

// FS is the filesystem surface the scan engine needs.  It exists so tests can substitute a fake
// tree instead of touching the real filesystem (see SPEC_FULL.md §8, "hot skip... verifiable by a
// mock filesystem layer").
type FS interface {
	Stat(path string) (fs.FileInfo, error)
	ReadDir(path string) ([]fs.DirEntry, error)
}

// OSFS is the FS implementation backed by the real filesystem.
type OSFS struct{}

func (OSFS) Stat(path string) (fs.FileInfo, error)        { return os.Stat(path) }
func (OSFS) ReadDir(path string) ([]fs.DirEntry, error)   { return os.ReadDir(path) }

// Result is one scan's output: the directories actually visited this run, each with its fresh
// fragment, and the hot-map entries to record for them.  A directory not present here was skipped
// and its prior fragment/hot entry in the caller's store is left untouched.
type Result struct {
	Fragments map[string]store.Fragment
	Hot       map[string]int64
	Errors    []error
}

// Scan walks root, consulting hot for pruning and logging (but not failing on) transient I/O
// errors via errLog.
func Scan(fsys FS, root string, hot map[string]int64, errLog func(error)) *Result {
	res := &Result{
		Fragments: make(map[string]store.Fragment),
		Hot:       make(map[string]int64),
	}
	walk(fsys, root, hot, res, errLog)
	return res
}

func walk(fsys FS, dir string, hot map[string]int64, res *Result, errLog func(error)) {
	info, err := fsys.Stat(dir)
	if err != nil {
		errLog(&errs.DirError{Dir: dir, Err: err})
		return
	}
	mtime := info.ModTime().Unix()
	if prev, ok := hot[dir]; ok && mtime <= prev {
		return
	}

	entries, err := fsys.ReadDir(dir)
	if err != nil {
		errLog(&errs.DirError{Dir: dir, Err: err})
		return
	}

	var frag store.Fragment
	for _, e := range entries {
		child := filepath.Join(dir, e.Name())
		if e.IsDir() {
			walk(fsys, child, hot, res, errLog)
			continue
		}
		name, ok := frame.Parse(e.Name())
		if !ok {
			continue
		}
		key := store.SFDE{Site: name.Site, FrameType: name.FrameType, Duration: name.Duration, Extension: name.Extension}
		if frag == nil {
			frag = store.Fragment{}
		}
		frag.Add(key, name.GpsStart, name.End())
	}

	if len(entries) == 0 || frag != nil {
		res.Hot[dir] = mtime
	}
	if frag != nil {
		res.Fragments[dir] = frag
	}
}
