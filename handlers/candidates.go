// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/ballotdesk/editor"
	"github.com/danielhkuo/ballotdesk/imagestore"
	"github.com/danielhkuo/ballotdesk/middleware"
	"github.com/danielhkuo/ballotdesk/models"
)

// imageField is the multipart part carrying a candidate photo
const imageField = "image"

// CreateCandidate handles POST /ballots/positions/{positionId}/candidates.
// The body is JSON or a multipart form with an optional image.
func (h *BallotHandler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	positionID, ok := pathID(w, r, "positionId")
	if !ok {
		return
	}

	c, image, err := h.parseCandidate(r)
	if err != nil {
		writeError(w, err, "Invalid request")
		return
	}
	if msg := candidateNameError(c); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	var exists int
	err = h.db.QueryRowContext(r.Context(), "SELECT 1 FROM ballot_position WHERE id = $1", positionID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "position not found")
		return
	}
	if err != nil {
		slog.Error("failed to query position", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if image != nil {
		url, err := h.storeImage(r.Context(), *image)
		if err != nil {
			writeError(w, err, "Failed to store image")
			return
		}
		c.ImageURL = url
	}

	var id int64
	err = h.db.QueryRowContext(r.Context(), `
		INSERT INTO ballot_candidate (position_id, first_name, last_name, party, slogan, platform, image_url, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
			(SELECT COALESCE(MAX(sort_order), -1) + 1 FROM ballot_candidate WHERE position_id = $1))
		RETURNING id
	`, positionID, c.FirstName, c.LastName, c.Party, c.Slogan, c.Platform, c.ImageURL).Scan(&id)
	if err != nil {
		slog.Error("failed to insert candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create candidate")
		return
	}
	c.ID = &id

	slog.Info("candidate created", "candidate_id", id, "position_id", positionID, "with_image", image != nil)

	if h.cfg.EmulateCreateQuirk {
		middleware.JSONResponse(w, http.StatusBadRequest, models.CandidateResponse{
			Message:   "Candidate validation failed",
			Candidate: &c,
		})
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, models.CandidateResponse{Message: "Candidate created", Candidate: &c})
}

// UpdateCandidate handles PUT /ballots/candidates/{candidateId}. All text
// fields are replaced; an uploaded image replaces image_url.
func (h *BallotHandler) UpdateCandidate(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := pathID(w, r, "candidateId")
	if !ok {
		return
	}

	c, image, err := h.parseCandidate(r)
	if err != nil {
		writeError(w, err, "Invalid request")
		return
	}

	var exists int
	err = h.db.QueryRowContext(r.Context(), "SELECT 1 FROM ballot_candidate WHERE id = $1", candidateID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "candidate not found")
		return
	}
	if err != nil {
		slog.Error("failed to query candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if image != nil {
		url, err := h.storeImage(r.Context(), *image)
		if err != nil {
			writeError(w, err, "Failed to store image")
			return
		}
		c.ImageURL = url
	}

	if err := updateCandidate(r.Context(), h.db, candidateID, nil, c, -1); err != nil {
		slog.Error("failed to update candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update candidate")
		return
	}
	c.ID = &candidateID

	slog.Info("candidate updated", "candidate_id", candidateID, "with_image", image != nil)
	middleware.JSONResponse(w, http.StatusOK, models.CandidateResponse{Message: "Candidate updated", Candidate: &c})
}

// DeleteCandidate handles DELETE /ballots/candidates/{candidateId}
func (h *BallotHandler) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := pathID(w, r, "candidateId")
	if !ok {
		return
	}

	res, err := h.db.ExecContext(r.Context(), "DELETE FROM ballot_candidate WHERE id = $1", candidateID)
	if err != nil {
		slog.Error("failed to delete candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "candidate not found")
		return
	}

	slog.Info("candidate deleted", "candidate_id", candidateID)
	middleware.JSONResponse(w, http.StatusOK, models.AckResponse{Success: true, Message: "Candidate deleted"})
}

// UploadImage handles POST /ballots/candidates/upload-image
func (h *BallotHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if !middleware.IsMultipart(r) {
		middleware.JSONResponse(w, http.StatusBadRequest, models.UploadImageResponse{Message: "multipart form required"})
		return
	}

	image, err := h.formImage(r)
	if err == nil && image == nil {
		err = badRequest("image is required")
	}
	if err != nil {
		var re *requestError
		if errors.As(err, &re) {
			middleware.JSONResponse(w, re.status, models.UploadImageResponse{Message: re.message})
			return
		}
		writeError(w, err, "Failed to read upload")
		return
	}

	url, err := h.storeImage(r.Context(), *image)
	if err != nil {
		var re *requestError
		if errors.As(err, &re) {
			middleware.JSONResponse(w, re.status, models.UploadImageResponse{Message: re.message})
			return
		}
		writeError(w, err, "Failed to store image")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.UploadImageResponse{Success: true, FilePath: url})
}

// parseCandidate reads a candidate from a JSON body or a multipart form
func (h *BallotHandler) parseCandidate(r *http.Request) (models.CandidatePayload, *editor.ImageFile, error) {
	var c models.CandidatePayload
	if !middleware.IsMultipart(r) {
		if err := middleware.ParseJSONBody(r, &c); err != nil {
			return c, nil, badRequest("Invalid JSON")
		}
		c.ID = nil
		return c, nil, nil
	}

	image, err := h.formImage(r)
	if err != nil {
		return c, nil, err
	}
	c = models.CandidatePayload{
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
		Party:     r.FormValue("party"),
		Slogan:    r.FormValue("slogan"),
		Platform:  r.FormValue("platform"),
		ImageURL:  r.FormValue("image_url"),
	}
	return c, image, nil
}

// formImage returns the image part of a multipart request, or nil
func (h *BallotHandler) formImage(r *http.Request) (*editor.ImageFile, error) {
	if err := r.ParseMultipartForm(h.cfg.MaxImageBytes + 1<<20); err != nil {
		return nil, badRequest("Invalid multipart form")
	}

	f, header, err := r.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, badRequest("Invalid image upload")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.cfg.MaxImageBytes+1))
	if err != nil {
		return nil, err
	}
	return &editor.ImageFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// storeImage checks, normalizes and stores an uploaded photo
func (h *BallotHandler) storeImage(ctx context.Context, f editor.ImageFile) (string, error) {
	if err := editor.CheckImage(f, h.cfg.MaxImageBytes); err != nil {
		return "", badRequest(err.Error())
	}

	n, err := imagestore.Normalize(f.Data)
	if err != nil {
		return "", badRequest("unsupported image format")
	}

	url, err := h.images.Put(ctx, imagestore.ObjectName(n.Ext), n.ContentType, n.Data)
	if err != nil {
		return "", err
	}

	slog.Info("image stored", "name", f.Name, "url", url, "bytes", len(n.Data))
	return url, nil
}

func candidateNameError(c models.CandidatePayload) string {
	if strings.TrimSpace(c.FirstName) == "" || strings.TrimSpace(c.LastName) == "" {
		return "first_name and last_name are required"
	}
	return ""
}
