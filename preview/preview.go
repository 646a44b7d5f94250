// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package preview

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Previewer creates short-lived display handles for local files.
// Revoking an unknown or already revoked handle is a no-op.
type Previewer interface {
	Create(name string, data []byte) (string, error)
	Revoke(ref string) error
}

// Memory keeps previews in memory under mem:// references
type Memory struct {
	mu    sync.Mutex
	items map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

func (m *Memory) Create(name string, data []byte) (string, error) {
	ref := "mem://" + uuid.NewString() + "/" + url.PathEscape(filepath.Base(name))
	m.mu.Lock()
	m.items[ref] = data
	m.mu.Unlock()
	return ref, nil
}

func (m *Memory) Revoke(ref string) error {
	m.mu.Lock()
	delete(m.items, ref)
	m.mu.Unlock()
	return nil
}

// Open returns the bytes behind a live reference
func (m *Memory) Open(ref string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.items[ref]
	return data, ok
}

// Live reports how many references have not been revoked
func (m *Memory) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Staging copies previews into a private directory and hands out
// file:// references. Close removes the directory and everything in it.
type Staging struct {
	dir string

	mu   sync.Mutex
	live map[string]string // ref -> path
}

// NewStaging creates a staging directory under parent, or under the
// system temp directory when parent is empty
func NewStaging(parent string) (*Staging, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create preview dir: %w", err)
		}
	}
	dir, err := os.MkdirTemp(parent, "ballotdesk-preview-")
	if err != nil {
		return nil, fmt.Errorf("failed to create preview dir: %w", err)
	}
	return &Staging{dir: dir, live: make(map[string]string)}, nil
}

func (s *Staging) Dir() string { return s.dir }

func (s *Staging) Create(name string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	path := filepath.Join(s.dir, uuid.NewString()+ext)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to stage preview: %w", err)
	}

	ref := (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
	s.mu.Lock()
	s.live[ref] = path
	s.mu.Unlock()

	slog.Debug("preview staged", "ref", ref, "bytes", len(data))
	return ref, nil
}

func (s *Staging) Revoke(ref string) error {
	s.mu.Lock()
	path, ok := s.live[ref]
	delete(s.live, ref)
	s.mu.Unlock()
	if !ok {
		return nil
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to revoke preview: %w", err)
	}
	return nil
}

func (s *Staging) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

func (s *Staging) Close() error {
	s.mu.Lock()
	s.live = map[string]string{}
	s.mu.Unlock()
	return os.RemoveAll(s.dir)
}
