// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rest

import (
	"net/url"
	"strings"
)

// ResolveImageURL turns a stored image reference into something a view can
// load. Absolute references (including preview handles) pass through,
// relative ones are joined to base, and an empty one yields placeholder.
func ResolveImageURL(base, ref, placeholder string) string {
	if ref == "" {
		return placeholder
	}
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref
	}
	if base == "" {
		return ref
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(ref, "/")
}
