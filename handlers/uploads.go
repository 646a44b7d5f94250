// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"
	"os"

	"github.com/danielhkuo/ballotdesk/imagestore"
	"github.com/danielhkuo/ballotdesk/middleware"
)

// UploadsHandler serves photos written by an imagestore.Disk
type UploadsHandler struct {
	disk *imagestore.Disk
}

func NewUploadsHandler(disk *imagestore.Disk) *UploadsHandler {
	return &UploadsHandler{disk: disk}
}

// ServeUpload handles GET /uploads/{name}
func (h *UploadsHandler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	p, err := h.disk.Path(r.PathValue("name"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "image not found")
		return
	}
	if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
		middleware.ErrorResponse(w, http.StatusNotFound, "image not found")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, p)
}
