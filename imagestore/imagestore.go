// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package imagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// MaxDimension bounds the longer side of a stored candidate photo
const MaxDimension = 800

var ErrInvalidName = errors.New("invalid object name")

// Store persists candidate photos and returns the reference clients use
// to load them
type Store interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// ObjectName returns a fresh collision-free name with the given extension
func ObjectName(ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return uuid.NewString()
	}
	return uuid.NewString() + "." + ext
}

// ValidName reports whether name is a single safe path segment
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return path.Base(name) == name && !strings.ContainsAny(name, `/\`)
}

// Normalized is a re-encoded photo ready to store
type Normalized struct {
	Data        []byte
	ContentType string
	Ext         string
}

// Normalize decodes an uploaded photo, applies its EXIF orientation and
// shrinks it to fit MaxDimension. PNGs stay PNG so transparency survives;
// everything else is stored as JPEG.
func Normalize(data []byte) (Normalized, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Normalized{}, fmt.Errorf("failed to read image: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Normalized{}, fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > MaxDimension || b.Dy() > MaxDimension {
		img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
	}

	out := Normalized{ContentType: "image/jpeg", Ext: "jpg"}
	encFormat := imaging.JPEG
	if format == "png" {
		out = Normalized{ContentType: "image/png", Ext: "png"}
		encFormat = imaging.PNG
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, encFormat, imaging.JPEGQuality(85)); err != nil {
		return Normalized{}, fmt.Errorf("failed to encode image: %w", err)
	}
	out.Data = buf.Bytes()
	return out, nil
}
