package store

import (
	"path/filepath"
	"sort"
	"testing"
)

func TestFileKeyedStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenFileKeyedStore(filepath.Join(dir, "NAMESPACE.shlv"), 0644)
	if err != nil {
		t.Fatalf("OpenFileKeyedStore: %v", err)
	}
	key := SFDE{Site: "H1", FrameType: "R", Duration: 16, Extension: "gwf"}
	frag := Fragment{}
	frag.Add(key, 0, 16)

	if err := s.Set("/data/with/slashes", frag); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := s.Get("/data/with/slashes")
	if !ok {
		t.Fatalf("expected key present")
	}
	if len(got[key]) != 1 || got[key][0].End != 16 {
		t.Fatalf("got %v", got)
	}

	if _, ok := s.Get("/missing"); ok {
		t.Fatalf("expected missing key to report absent")
	}
}

func TestFileKeyedStoreKeysSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "NAMESPACE.shlv")
	s1, err := OpenFileKeyedStore(path, 0644)
	if err != nil {
		t.Fatalf("OpenFileKeyedStore: %v", err)
	}
	s1.Set("/a/b", Fragment{})
	s1.Set("/a/c/d", Fragment{})

	s2, err := OpenFileKeyedStore(path, 0644)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	keys := s2.Keys()
	sort.Strings(keys)
	want := []string{"/a/b", "/a/c/d"}
	if len(keys) != len(want) || keys[0] != want[0] || keys[1] != want[1] {
		t.Fatalf("got %v, want %v", keys, want)
	}
}

func TestMemKeyedStoreBasics(t *testing.T) {
	s := NewMemKeyedStore()
	key := SFDE{Site: "V1", FrameType: "R", Duration: 4, Extension: "gwf"}
	frag := Fragment{}
	frag.Add(key, 100, 104)
	s.Set("/dir", frag)

	if len(s.Keys()) != 1 {
		t.Fatalf("expected 1 key")
	}
	got, ok := s.Get("/dir")
	if !ok || len(got[key]) != 1 {
		t.Fatalf("got %v, %v", got, ok)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
