package main

import "testing"

func TestParseModeOctal(t *testing.T) {
	m, err := parseMode("0644")
	if err != nil {
		t.Fatalf("parseMode: %v", err)
	}
	if m != 0644 {
		t.Fatalf("got %o, want 0644", m)
	}
}

func TestParseModeRejectsGarbage(t *testing.T) {
	if _, err := parseMode("not-octal"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRejectOverlappingRootsDetectsNesting(t *testing.T) {
	if err := rejectOverlappingRoots([]string{"/data", "/data/H1"}); err == nil {
		t.Fatalf("expected overlap error")
	}
}

func TestRejectOverlappingRootsAllowsDisjoint(t *testing.T) {
	if err := rejectOverlappingRoots([]string{"/data/H1", "/data/L1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRejectOverlappingRootsDetectsExactDuplicate(t *testing.T) {
	if err := rejectOverlappingRoots([]string{"/data/H1", "/data/H1"}); err == nil {
		t.Fatalf("expected duplicate-root error")
	}
}
