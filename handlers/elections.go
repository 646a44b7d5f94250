// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/ballotdesk/cliparse"
	"github.com/danielhkuo/ballotdesk/middleware"
	"github.com/danielhkuo/ballotdesk/models"
)

type ElectionHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewElectionHandler(db *sql.DB, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{db: db, cfg: cfg}
}

// CreateElection handles POST /elections
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Status == "" {
		req.Status = models.StatusDraft
	}
	switch req.Status {
	case models.StatusDraft, models.StatusOpen, models.StatusClosed:
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "status must be draft, open or closed")
		return
	}

	e := models.Election{Title: req.Title, Status: req.Status, CreatedAt: time.Now().UTC().Truncate(time.Second)}
	err := h.db.QueryRowContext(r.Context(), `
		INSERT INTO election (title, status, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, e.Title, e.Status, e.CreatedAt).Scan(&e.ID)
	if err != nil {
		slog.Error("failed to insert election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	slog.Info("election created", "election_id", e.ID, "status", e.Status)
	middleware.JSONResponse(w, http.StatusCreated, e)
}

// GetElection handles GET /elections/{electionId}
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "electionId")
	if !ok {
		return
	}

	e, err := getElection(r.Context(), h.db, id)
	if err != nil {
		writeError(w, err, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, e)
}

// GetElectionDetails handles GET /elections/{electionId}/details
func (h *ElectionHandler) GetElectionDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "electionId")
	if !ok {
		return
	}

	e, err := getElection(r.Context(), h.db, id)
	if err != nil {
		writeError(w, err, "Database error")
		return
	}

	details := models.ElectionDetails{Election: *e}

	var ballotID int64
	err = h.db.QueryRowContext(r.Context(), "SELECT id FROM ballot WHERE election_id = $1", id).Scan(&ballotID)
	switch {
	case err == nil:
		details.BallotID = &ballotID
	case !errors.Is(err, sql.ErrNoRows):
		slog.Error("failed to query ballot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	err = h.db.QueryRowContext(r.Context(), `
		SELECT
			(SELECT COUNT(*) FROM ballot_position p JOIN ballot b ON b.id = p.ballot_id WHERE b.election_id = $1),
			(SELECT COUNT(*) FROM ballot_candidate c
				JOIN ballot_position p ON p.id = c.position_id
				JOIN ballot b ON b.id = p.ballot_id
				WHERE b.election_id = $1),
			(SELECT COUNT(*) FROM vote WHERE election_id = $1)
	`, id).Scan(&details.PositionCount, &details.CandidateCount, &details.VoteCount)
	if err != nil {
		slog.Error("failed to count election contents", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, details)
}

func getElection(ctx context.Context, q querier, id int64) (*models.Election, error) {
	e := models.Election{ID: id}
	err := q.QueryRowContext(ctx,
		"SELECT title, status, created_at FROM election WHERE id = $1", id,
	).Scan(&e.Title, &e.Status, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("election not found")
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
