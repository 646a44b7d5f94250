// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/ballotdesk/cliparse"
	"github.com/danielhkuo/ballotdesk/middleware"
	"github.com/danielhkuo/ballotdesk/models"
)

type ResultsHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg}
}

// GetResults handles GET /elections/{electionId}/results
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	electionID, ok := pathID(w, r, "electionId")
	if !ok {
		return
	}

	e, err := getElection(r.Context(), h.db, electionID)
	if err != nil {
		writeError(w, err, "Database error")
		return
	}

	res := models.ElectionResults{
		ElectionID: electionID,
		Status:     e.Status,
		Positions:  []models.PositionResult{},
		UpdatedAt:  time.Now().UTC(),
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT p.id, p.name, p.max_choices, c.id, c.first_name, c.last_name, c.party, c.image_url,
			(SELECT COUNT(*) FROM vote v WHERE v.candidate_id = c.id)
		FROM ballot b
		JOIN ballot_position p ON p.ballot_id = b.id
		LEFT JOIN ballot_candidate c ON c.position_id = p.id
		WHERE b.election_id = $1
		ORDER BY p.sort_order, p.id, c.sort_order, c.id
	`, electionID)
	if err != nil {
		slog.Error("failed to query results", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	for rows.Next() {
		var (
			posID                        int64
			posName                      string
			maxChoices                   int
			candID                       sql.NullInt64
			first, last, party, imageURL sql.NullString
			votes                        int
		)
		if err := rows.Scan(&posID, &posName, &maxChoices, &candID, &first, &last, &party, &imageURL, &votes); err != nil {
			slog.Error("failed to scan results", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}

		n := len(res.Positions)
		if n == 0 || res.Positions[n-1].PositionID != posID {
			res.Positions = append(res.Positions, models.PositionResult{
				PositionID: posID,
				Name:       posName,
				MaxChoices: maxChoices,
				Candidates: []models.CandidateResult{},
			})
			n++
		}
		if !candID.Valid {
			continue
		}
		res.Positions[n-1].Candidates = append(res.Positions[n-1].Candidates, models.CandidateResult{
			CandidateID: candID.Int64,
			Name:        strings.TrimSpace(first.String + " " + last.String),
			Party:       party.String,
			ImageURL:    imageURL.String,
			Votes:       votes,
		})
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read results", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	err = h.db.QueryRowContext(r.Context(), "SELECT COUNT(*) FROM vote WHERE election_id = $1", electionID).Scan(&res.VoteCount)
	if err != nil {
		slog.Error("failed to count votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, res)
}

// CastVote handles POST /elections/{electionId}/votes. Each candidate id
// must belong to the election's ballot and no position may receive more
// selections than its max_choices.
func (h *ResultsHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	electionID, ok := pathID(w, r, "electionId")
	if !ok {
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.CandidateIDs) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "candidate_ids is required")
		return
	}

	err := withTx(r.Context(), h.db, func(tx *sql.Tx) error {
		e, err := getElection(r.Context(), tx, electionID)
		if err != nil {
			return err
		}
		if e.Status != models.StatusOpen {
			return &requestError{status: http.StatusConflict, message: "election is not open"}
		}

		perPosition := map[int64]int{}
		seen := map[int64]bool{}
		for _, id := range req.CandidateIDs {
			if seen[id] {
				return badRequest(fmt.Sprintf("candidate %d selected twice", id))
			}
			seen[id] = true

			var posID int64
			var maxChoices int
			err := tx.QueryRowContext(r.Context(), `
				SELECT p.id, p.max_choices
				FROM ballot_candidate c
				JOIN ballot_position p ON p.id = c.position_id
				JOIN ballot b ON b.id = p.ballot_id
				WHERE c.id = $1 AND b.election_id = $2
			`, id, electionID).Scan(&posID, &maxChoices)
			if errors.Is(err, sql.ErrNoRows) {
				return badRequest(fmt.Sprintf("candidate %d is not on this ballot", id))
			}
			if err != nil {
				return err
			}

			perPosition[posID]++
			if perPosition[posID] > maxChoices {
				return badRequest(fmt.Sprintf("too many choices for position %d (max %d)", posID, maxChoices))
			}
		}

		now := time.Now().UTC()
		for _, id := range req.CandidateIDs {
			_, err := tx.ExecContext(r.Context(),
				"INSERT INTO vote (election_id, candidate_id, cast_at) VALUES ($1, $2, $3)",
				electionID, id, now)
			if err != nil {
				return fmt.Errorf("insert vote: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		writeError(w, err, "Failed to cast vote")
		return
	}

	slog.Info("vote cast", "election_id", electionID, "selections", len(req.CandidateIDs))
	middleware.JSONResponse(w, http.StatusCreated, models.AckResponse{Success: true, Message: "Vote recorded"})
}
