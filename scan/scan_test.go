package scan

import (
	"io/fs"
	"time"

	"framecache/store"
	"testing"
)

// fakeFS is an in-memory mock filesystem layer used to exercise the hot-pruning contract without
// touching disk.
type fakeFS struct {
	dirs    map[string]time.Time
	entries map[string][]fakeEntry
}

type fakeEntry struct {
	name  string
	isDir bool
}

func (e fakeEntry) Name() string               { return e.name }
func (e fakeEntry) IsDir() bool                 { return e.isDir }
func (e fakeEntry) Type() fs.FileMode           { return 0 }
func (e fakeEntry) Info() (fs.FileInfo, error)  { return nil, nil }

type fakeInfo struct {
	name    string
	modTime time.Time
}

func (i fakeInfo) Name() string       { return i.name }
func (i fakeInfo) Size() int64        { return 0 }
func (i fakeInfo) Mode() fs.FileMode  { return 0 }
func (i fakeInfo) ModTime() time.Time { return i.modTime }
func (i fakeInfo) IsDir() bool        { return true }
func (i fakeInfo) Sys() any           { return nil }

func (f *fakeFS) Stat(path string) (fs.FileInfo, error) {
	mt, ok := f.dirs[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return fakeInfo{name: path, modTime: mt}, nil
}

func (f *fakeFS) ReadDir(path string) ([]fs.DirEntry, error) {
	entries, ok := f.entries[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	out := make([]fs.DirEntry, len(entries))
	for i, e := range entries {
		out[i] = e
	}
	return out, nil
}

func newFixture() *fakeFS {
	base := time.Unix(1000, 0)
	return &fakeFS{
		dirs: map[string]time.Time{
			"/data":    base,
			"/data/H1": base,
		},
		entries: map[string][]fakeEntry{
			"/data": {{name: "H1", isDir: true}},
			"/data/H1": {
				{name: "H1-R-1000000000-16.gwf"},
				{name: "H1-R-1000000016-16.gwf"},
				{name: "not-a-frame-file"},
			},
		},
	}
}

func TestScanParsesAndCoalesces(t *testing.T) {
	f := newFixture()
	var logged []error
	res := Scan(f, "/data", map[string]int64{}, func(e error) { logged = append(logged, e) })

	if len(logged) != 0 {
		t.Fatalf("unexpected errors: %v", logged)
	}
	frag, ok := res.Fragments["/data/H1"]
	if !ok {
		t.Fatalf("expected fragment for /data/H1")
	}
	key := store.SFDE{Site: "H1", FrameType: "R", Duration: 16, Extension: "gwf"}
	if len(frag[key]) != 1 || frag[key][0].Start != 1000000000 || frag[key][0].End != 1000000032 {
		t.Fatalf("expected coalesced [1000000000,1000000032), got %v", frag[key])
	}
	if res.Hot["/data/H1"] != 1000 {
		t.Fatalf("expected hot mtime 1000, got %d", res.Hot["/data/H1"])
	}
	if _, ok := res.Hot["/data"]; ok {
		t.Fatalf("/data has only a subdirectory child and no fragment of its own, must not be recorded hot: %v", res.Hot)
	}
}

func TestScanSkipsHotDirectory(t *testing.T) {
	f := newFixture()
	hot := map[string]int64{"/data/H1": 1000}
	res := Scan(f, "/data", hot, func(e error) { t.Fatalf("unexpected error: %v", e) })

	if _, ok := res.Fragments["/data/H1"]; ok {
		t.Fatalf("expected /data/H1 to be skipped as hot")
	}
	if _, ok := res.Hot["/data/H1"]; ok {
		t.Fatalf("hot directory should not be re-recorded")
	}
}

func TestScanRecordsHotForEmptyDirectory(t *testing.T) {
	base := time.Unix(2000, 0)
	f := &fakeFS{
		dirs: map[string]time.Time{
			"/data":       base,
			"/data/empty": base,
		},
		entries: map[string][]fakeEntry{
			"/data":       {{name: "empty", isDir: true}},
			"/data/empty": {},
		},
	}
	res := Scan(f, "/data", map[string]int64{}, func(e error) { t.Fatalf("unexpected error: %v", e) })

	if _, ok := res.Fragments["/data/empty"]; ok {
		t.Fatalf("empty directory should contribute no fragment")
	}
	if res.Hot["/data/empty"] != 2000 {
		t.Fatalf("empty directory should still be recorded hot, got %v", res.Hot)
	}
}

func TestScanLogsTransientErrorAndContinues(t *testing.T) {
	base := time.Unix(3000, 0)
	f := &fakeFS{
		dirs: map[string]time.Time{
			"/data":    base,
			"/data/ok": base,
		},
		entries: map[string][]fakeEntry{
			"/data": {
				{name: "broken", isDir: true},
				{name: "ok", isDir: true},
			},
			"/data/ok": {{name: "H1-R-1-1.gwf"}},
		},
	}
	var logged []error
	res := Scan(f, "/data", map[string]int64{}, func(e error) { logged = append(logged, e) })

	if len(logged) != 1 {
		t.Fatalf("expected exactly one logged error, got %v", logged)
	}
	if _, ok := res.Fragments["/data/ok"]; !ok {
		t.Fatalf("expected sibling directory to still be scanned")
	}
}
