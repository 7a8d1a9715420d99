package statussrv

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"framecache/auth"
)

func TestRequireAuthRejectsMissingCredentials(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "passwd")
	os.WriteFile(path, []byte("alice:secret\n"), 0644)
	authn, err := auth.ReadPasswords(path)
	if err != nil {
		t.Fatalf("ReadPasswords: %v", err)
	}

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	handler := requireAuth(authn, next)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", rec.Code)
	}
	if called {
		t.Fatalf("next handler should not have been called")
	}
}

func TestRequireAuthAllowsValidCredentials(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "passwd")
	os.WriteFile(path, []byte("alice:secret\n"), 0644)
	authn, err := auth.ReadPasswords(path)
	if err != nil {
		t.Fatalf("ReadPasswords: %v", err)
	}

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	handler := requireAuth(authn, next)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.SetBasicAuth("alice", "secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	if !called {
		t.Fatalf("expected next handler to be called")
	}
}
