package store

import (
	"path/filepath"
	"testing"
)

func TestLoadNamespaceBootstrapsWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "NAMESPACE")
	ns, err := LoadNamespace(path)
	if err != nil {
		t.Fatalf("LoadNamespace: %v", err)
	}
	if !ns.Header.InitialRun {
		t.Fatalf("expected InitialRun true for absent namespace")
	}
	if ns.Header.Version != Version {
		t.Fatalf("got version %q, want %q", ns.Header.Version, Version)
	}
}

func TestNamespacePublishAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "NAMESPACE")
	ns, err := LoadNamespace(path)
	if err != nil {
		t.Fatalf("LoadNamespace: %v", err)
	}
	ns.Hot["/data/H1"] = 1700000000
	ns.Header.DirCount = 1
	if err := ns.Publish(0644); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	reloaded, err := LoadNamespace(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Header.InitialRun {
		t.Fatalf("InitialRun should flip false after a publish+reload")
	}
	if reloaded.Hot["/data/H1"] != 1700000000 {
		t.Fatalf("hot map not persisted: %v", reloaded.Hot)
	}
}

func TestAcquireLockFailsWhenHeld(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "NAMESPACE")
	l1, err := AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	defer l1.Release()

	if _, err := AcquireLock(path); err == nil {
		t.Fatalf("expected second AcquireLock to fail")
	}
}

func TestLockReleaseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "NAMESPACE")
	l, err := AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	l.Release()
	l.Release()

	var nilLock *Lock
	nilLock.Release()
}
