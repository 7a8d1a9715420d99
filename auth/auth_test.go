package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAuthenticateValidCredentials(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "passwd")
	os.WriteFile(path, []byte("alice:secret\nbob:hunter2\n"), 0644)

	a, err := ReadPasswords(path)
	if err != nil {
		t.Fatalf("ReadPasswords: %v", err)
	}
	if !a.Authenticate("alice", "secret") {
		t.Fatalf("expected alice:secret to authenticate")
	}
	if a.Authenticate("alice", "wrong") {
		t.Fatalf("expected wrong password to fail")
	}
	if a.Authenticate("carol", "anything") {
		t.Fatalf("expected unknown user to fail")
	}
}

func TestReadPasswordsRejectsMalformedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "passwd")
	os.WriteFile(path, []byte("not-a-valid-line\n"), 0644)

	if _, err := ReadPasswords(path); err == nil {
		t.Fatalf("expected error for malformed line")
	}
}

func TestReadPasswordsRejectsDuplicateUser(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "passwd")
	os.WriteFile(path, []byte("alice:one\nalice:two\n"), 0644)

	if _, err := ReadPasswords(path); err == nil {
		t.Fatalf("expected error for duplicate user")
	}
}
