// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestIssueAndValidateToken(t *testing.T) {
	token, expiresAt, err := IssueToken("secret", "alice", "admin", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("IssueToken() returned empty token")
	}
	if time.Until(expiresAt) <= 0 {
		t.Errorf("expiresAt should be in the future, got %v", expiresAt)
	}

	claims, err := ValidateToken(token, "secret")
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Subject != "alice" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "alice")
	}
	if claims.Role != "admin" {
		t.Errorf("Role = %q, want %q", claims.Role, "admin")
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	good, _, _ := IssueToken("secret", "alice", "admin", time.Hour)
	expired, _, _ := IssueToken("secret", "alice", "admin", -time.Minute)

	tests := []struct {
		name   string
		token  string
		secret string
		want   error
	}{
		{"wrong secret", good, "other", ErrInvalidToken},
		{"garbage", "not-a-token", "secret", ErrInvalidToken},
		{"empty", "", "secret", ErrInvalidToken},
		{"expired", expired, "secret", ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateToken(tt.token, tt.secret)
			if !errors.Is(err, tt.want) {
				t.Errorf("ValidateToken() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestIssueToken_EmptySecret(t *testing.T) {
	if _, _, err := IssueToken("", "alice", "admin", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("BearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCheckSessionToken(t *testing.T) {
	good, _, _ := IssueToken("secret", "alice", "admin", time.Hour)
	expired, _, _ := IssueToken("secret", "alice", "admin", -time.Minute)

	if err := CheckSessionToken(good); err != nil {
		t.Errorf("valid token rejected: %v", err)
	}
	if err := CheckSessionToken("opaque-token-from-elsewhere"); err != nil {
		t.Errorf("opaque token rejected: %v", err)
	}
	if err := CheckSessionToken("  "); !errors.Is(err, ErrNoToken) {
		t.Errorf("blank token: got %v, want ErrNoToken", err)
	}
	if err := CheckSessionToken(expired); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expired token: got %v, want ErrTokenExpired", err)
	}
}

func TestSessionTokenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token")

	if _, err := LoadSessionToken(path); !errors.Is(err, ErrNoToken) {
		t.Fatalf("missing file: got %v, want ErrNoToken", err)
	}
	if _, err := LoadSessionToken(""); !errors.Is(err, ErrNoToken) {
		t.Fatalf("empty path: got %v, want ErrNoToken", err)
	}

	token, _, _ := IssueToken("secret", "alice", "admin", time.Hour)
	if err := SaveSessionToken(path, token); err != nil {
		t.Fatalf("SaveSessionToken() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("token file mode = %v, want 0600", info.Mode().Perm())
	}

	got, err := LoadSessionToken(path)
	if err != nil {
		t.Fatalf("LoadSessionToken() error = %v", err)
	}
	if got != token {
		t.Error("loaded token does not match saved token")
	}
}
