// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package editor

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxImageBytes is the candidate photo ceiling
const DefaultMaxImageBytes int64 = 2 << 20

// ImageFile is a raw file selected for upload
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f ImageFile) Size() int64 { return int64(len(f.Data)) }

// CheckImage validates a selected file before anything is sent.
// Both the declared type and the sniffed content must be an image.
func CheckImage(f ImageFile, maxBytes int64) error {
	if len(f.Data) == 0 {
		return &ImageError{Reason: "image file is empty"}
	}
	if maxBytes > 0 && f.Size() > maxBytes {
		return &ImageError{Reason: fmt.Sprintf("image is %s, the limit is %s",
			humanize.IBytes(uint64(f.Size())), humanize.IBytes(uint64(maxBytes)))}
	}
	if f.ContentType != "" && !strings.HasPrefix(f.ContentType, "image/") {
		return &ImageError{Reason: fmt.Sprintf("file type %s is not an image", f.ContentType)}
	}
	if detected := mimetype.Detect(f.Data); !strings.HasPrefix(detected.String(), "image/") {
		return &ImageError{Reason: fmt.Sprintf("file content is not an image (detected %s)", detected.String())}
	}
	return nil
}

// DetectContentType returns the declared type or, if empty, the sniffed one
func (f ImageFile) DetectContentType() string {
	if f.ContentType != "" {
		return f.ContentType
	}
	return mimetype.Detect(f.Data).String()
}
