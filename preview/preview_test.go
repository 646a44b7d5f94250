// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package preview

import (
	"net/url"
	"os"
	"strings"
	"testing"
)

func TestMemory(t *testing.T) {
	m := NewMemory()

	ref, err := m.Create("photo.png", []byte("data"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !strings.HasPrefix(ref, "mem://") {
		t.Errorf("Unexpected ref %s", ref)
	}
	if data, ok := m.Open(ref); !ok || string(data) != "data" {
		t.Error("Expected preview to be readable")
	}
	if m.Live() != 1 {
		t.Errorf("Expected 1 live preview, got %d", m.Live())
	}

	if err := m.Revoke(ref); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if err := m.Revoke(ref); err != nil {
		t.Errorf("Expected second revoke to be a no-op, got %v", err)
	}
	if m.Live() != 0 {
		t.Errorf("Expected 0 live previews, got %d", m.Live())
	}
}

func TestStaging(t *testing.T) {
	s, err := NewStaging(t.TempDir())
	if err != nil {
		t.Fatalf("NewStaging failed: %v", err)
	}
	defer s.Close()

	ref, err := s.Create("Photo.PNG", []byte("data"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "file" {
		t.Fatalf("Expected file reference, got %s", ref)
	}
	if !strings.HasSuffix(u.Path, ".png") {
		t.Errorf("Expected .png extension, got %s", u.Path)
	}
	if _, err := os.Stat(u.Path); err != nil {
		t.Fatalf("Expected staged file: %v", err)
	}

	if err := s.Revoke(ref); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, err := os.Stat(u.Path); !os.IsNotExist(err) {
		t.Error("Expected staged file to be removed")
	}
	if s.Live() != 0 {
		t.Errorf("Expected no live previews, got %d", s.Live())
	}
}

func TestStagingClose(t *testing.T) {
	s, err := NewStaging(t.TempDir())
	if err != nil {
		t.Fatalf("NewStaging failed: %v", err)
	}
	if _, err := s.Create("a.jpg", []byte("x")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(s.Dir()); !os.IsNotExist(err) {
		t.Error("Expected staging dir to be removed")
	}
}
