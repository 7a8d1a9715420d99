package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveAliasedRoot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.json")
	os.WriteFile(path, []byte(`[{"alias":"h1","value":"/mnt/frames/h1-raw"}]`), 0644)

	a, err := ReadAliases(path)
	if err != nil {
		t.Fatalf("ReadAliases: %v", err)
	}
	if got := a.Resolve("h1"); got != "/mnt/frames/h1-raw" {
		t.Fatalf("got %q", got)
	}
	if got := a.Resolve("/already/absolute"); got != "/already/absolute" {
		t.Fatalf("unmapped alias should pass through unchanged, got %q", got)
	}
}

func TestResolveAllPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.json")
	os.WriteFile(path, []byte(`[{"alias":"h1","value":"/a"},{"alias":"l1","value":"/b"}]`), 0644)

	a, err := ReadAliases(path)
	if err != nil {
		t.Fatalf("ReadAliases: %v", err)
	}
	got := a.ResolveAll([]string{"l1", "h1", "/c"})
	want := []string{"/b", "/a", "/c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestReadAliasesMissingFile(t *testing.T) {
	if _, err := ReadAliases("/nonexistent/aliases.json"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
