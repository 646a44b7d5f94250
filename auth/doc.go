// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides session token issuing, validation, and storage.

# Session Tokens

Tokens are HS256 JWTs carrying the subject and a role claim:

	token, expiresAt, err := auth.IssueToken(secret, "alice", models.RoleAdmin, 12*time.Hour)
	claims, err := auth.ValidateToken(token, secret)

ValidateToken returns ErrTokenExpired for expired tokens and wraps
ErrInvalidToken for everything else.

# Client Side

The editor CLI stores the token in a file and checks it before every call:

	token, err := auth.LoadSessionToken(path)

A missing file or empty token yields ErrNoToken. The client cannot verify
the signature, so CheckSessionToken only rejects JWTs whose exp claim has
passed; opaque tokens from other backends pass through unchanged.

# Headers

BearerToken extracts the token from an "Authorization: Bearer ..." header.
*/
package auth
