// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/ballotdesk/auth"
	"github.com/danielhkuo/ballotdesk/cliparse"
	"github.com/danielhkuo/ballotdesk/middleware"
	"github.com/danielhkuo/ballotdesk/models"
)

// TokenHandler issues session tokens on development servers
type TokenHandler struct {
	cfg cliparse.Config
}

func NewTokenHandler(cfg cliparse.Config) *TokenHandler {
	return &TokenHandler{cfg: cfg}
}

// IssueToken handles POST /auth/token
func (h *TokenHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Subject = strings.TrimSpace(req.Subject)
	if req.Subject == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "subject is required")
		return
	}
	if req.Role == "" {
		req.Role = models.RoleAdmin
	}
	if req.Role != models.RoleAdmin && req.Role != models.RoleSuperadmin {
		middleware.ErrorResponse(w, http.StatusBadRequest, "role must be admin or superadmin")
		return
	}

	token, expires, err := auth.IssueToken(h.cfg.TokenSecret, req.Subject, req.Role, h.cfg.TokenTTL)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	slog.Info("token issued", "subject", req.Subject, "role", req.Role, "expires_at", expires)
	middleware.JSONResponse(w, http.StatusOK, models.TokenResponse{Token: token, ExpiresAt: expires})
}
