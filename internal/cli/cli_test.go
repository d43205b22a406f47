package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func run(t *testing.T, baseURL, tokenFile string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand(&stdout, &stderr)
	cmd.SetArgs(append([]string{"--base-url", baseURL, "--token-file", tokenFile}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestLoginThenMeUsesStoredTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			writeJSON(w, http.StatusOK, map[string]any{"message": "login successful", "data": map[string]any{
				"user":         map[string]any{"id": 9, "email": "anna@corp.test"},
				"accessToken":  "a1",
				"refreshToken": "r1",
			}})
		case "/api/v1/user/me":
			if r.Header.Get("Authorization") != "Bearer a1" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"code": "UNAUTHORIZED", "message": "unauthorized"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"message": "user profile", "data": map[string]any{"id": 9, "first_name": "Anna"}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tokenFile := filepath.Join(t.TempDir(), "tokens.json")
	if _, err := run(t, srv.URL, tokenFile, "login", "--email", "anna@corp.test", "--password", "Secret#2024"); err != nil {
		t.Fatalf("login: %v", err)
	}
	raw, err := os.ReadFile(tokenFile)
	if err != nil || !strings.Contains(string(raw), "r1") {
		t.Fatalf("token file not written: %s err=%v", raw, err)
	}

	out, err := run(t, srv.URL, tokenFile, "me")
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if !strings.Contains(out, `"first_name": "Anna"`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestLoginRequiresCredentials(t *testing.T) {
	t.Setenv(envPassword, "")
	_, err := run(t, "http://127.0.0.1:1", filepath.Join(t.TempDir(), "t.json"), "login", "--email", "anna@corp.test")
	if err == nil {
		t.Fatal("expected missing password error")
	}
}

func TestDocumentsGetRejectsBadID(t *testing.T) {
	_, err := run(t, "http://127.0.0.1:1", filepath.Join(t.TempDir(), "t.json"), "docs", "get", "abc")
	if err == nil || !strings.Contains(err.Error(), "invalid id") {
		t.Fatalf("expected invalid id error, got %v", err)
	}
}

func TestParseAudience(t *testing.T) {
	cases := map[string]int{"all": 5, "": 5, "5": 5, "hr": 2, "3": 3, "specialist": 4}
	for input, want := range cases {
		got, err := parseAudience(input)
		if err != nil || got != want {
			t.Fatalf("parse %q: got %d err=%v want %d", input, got, err, want)
		}
	}
	for _, bad := range []string{"6", "owner"} {
		if _, err := parseAudience(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
