// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package imagestore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Disk stores photos in a local directory served under URLPrefix
type Disk struct {
	dir       string
	urlPrefix string
}

func NewDisk(dir, urlPrefix string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &Disk{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

func (d *Disk) Dir() string { return d.dir }

// Path returns the file backing name
func (d *Disk) Path(name string) (string, error) {
	if !ValidName(name) {
		return "", ErrInvalidName
	}
	return filepath.Join(d.dir, name), nil
}

// Put writes the file atomically and returns its URL path
func (d *Disk) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	p, err := d.Path(name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	slog.Debug("image stored", "name", name, "bytes", len(data), "content_type", contentType)
	return d.urlPrefix + "/" + name, nil
}
