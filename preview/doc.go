// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package preview provides revocable display handles for images that have
// been selected but not yet uploaded.
package preview
