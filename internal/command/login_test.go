package command

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desklinehq/deskline/internal/auth"
	"github.com/desklinehq/deskline/internal/store"
)

func newBackendStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if body.Password != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid credentials"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "tok-123",
			"token_type":   "bearer",
			"email":        body.Email,
			"full_name":    "Pat Example",
		})
	})
	mux.HandleFunc("GET /v1/auth/history", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode([]map[string]string{
			{"conversation_id": "c1", "role": "user", "content": "Where is my order?"},
			{"conversation_id": "c1", "role": "assistant", "content": "Let me check."},
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestLoginRestoresHistory(t *testing.T) {
	t.Setenv("DESKLINE_CONFIG_DIR", t.TempDir())
	stateDir := t.TempDir()
	server := newBackendStub(t)

	output, err := executeCommand(NewRootCmd("test"),
		"login", "pat@example.com",
		"--password", "hunter2",
		"--server", server.URL,
		"--state-dir", stateDir)
	if err != nil {
		t.Fatalf("login failed: %v (%s)", err, output)
	}
	if !strings.Contains(output, "Logged in as pat@example.com") {
		t.Fatalf("expected login confirmation, got %q", output)
	}
	if !strings.Contains(output, "Restored 1 conversation(s)") {
		t.Fatalf("expected restore count, got %q", output)
	}

	principal, err := auth.Load()
	if err != nil || principal == nil {
		t.Fatalf("expected stored credentials, got %v, %v", principal, err)
	}
	if principal.Token != "tok-123" {
		t.Fatalf("token = %q, want tok-123", principal.Token)
	}

	db, err := store.Open(filepath.Join(stateDir, "deskline.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer db.Close()
	snap, err := db.LoadSnapshot()
	if err != nil || snap == nil {
		t.Fatalf("expected persisted snapshot, got %v, %v", snap, err)
	}
	if len(snap.Threads) != 1 || snap.Threads[0].Title != "Where is my order?" {
		t.Fatalf("unexpected snapshot: %+v", snap.Threads)
	}
}

func TestLoginBadPassword(t *testing.T) {
	t.Setenv("DESKLINE_CONFIG_DIR", t.TempDir())
	server := newBackendStub(t)

	output, err := executeCommand(NewRootCmd("test"),
		"login", "pat@example.com",
		"--password", "wrong",
		"--server", server.URL,
		"--state-dir", t.TempDir())
	if err == nil {
		t.Fatal("expected login to fail")
	}
	if !strings.Contains(output, "Invalid credentials") {
		t.Fatalf("expected backend detail in output, got %q", output)
	}

	principal, err := auth.Load()
	if err != nil {
		t.Fatalf("auth.Load: %v", err)
	}
	if principal != nil {
		t.Fatalf("no credentials should be stored after failed login, got %+v", principal)
	}
}

func TestLogoutClearsStateAndCredentials(t *testing.T) {
	t.Setenv("DESKLINE_CONFIG_DIR", t.TempDir())
	stateDir := t.TempDir()
	server := newBackendStub(t)

	if _, err := executeCommand(NewRootCmd("test"),
		"login", "pat@example.com", "--password", "hunter2",
		"--server", server.URL, "--state-dir", stateDir); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	output, err := executeCommand(NewRootCmd("test"), "logout", "--state-dir", stateDir)
	if err != nil {
		t.Fatalf("logout failed: %v (%s)", err, output)
	}

	principal, err := auth.Load()
	if err != nil {
		t.Fatalf("auth.Load: %v", err)
	}
	if principal != nil {
		t.Fatalf("credentials survived logout: %+v", principal)
	}

	db, err := store.Open(filepath.Join(stateDir, "deskline.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer db.Close()
	snap, err := db.LoadSnapshot()
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if snap != nil {
		t.Fatalf("snapshot survived logout: %+v", snap)
	}
}
