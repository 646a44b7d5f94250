// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielhkuo/ballotdesk/auth"
)

type claimsKey struct{}

// RequireBearer rejects requests without a valid session token and puts
// the token's claims on the request context
func RequireBearer(secret string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="ballotdesk"`)
			ErrorResponse(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		claims, err := auth.ValidateToken(token, secret)
		if errors.Is(err, auth.ErrTokenExpired) {
			ErrorResponse(w, http.StatusUnauthorized, "Token expired")
			return
		}
		if err != nil {
			ErrorResponse(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	}
}

// ClaimsFromContext returns the claims stored by RequireBearer
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok
}
