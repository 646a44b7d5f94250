// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/ballotdesk/cliparse"
	"github.com/danielhkuo/ballotdesk/imagestore"
	"github.com/danielhkuo/ballotdesk/middleware"
	"github.com/danielhkuo/ballotdesk/models"
)

type BallotHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	images imagestore.Store
}

func NewBallotHandler(db *sql.DB, cfg cliparse.Config, images imagestore.Store) *BallotHandler {
	return &BallotHandler{db: db, cfg: cfg, images: images}
}

// GetBallotByElection handles GET /elections/{electionId}/ballot
func (h *BallotHandler) GetBallotByElection(w http.ResponseWriter, r *http.Request) {
	electionID, ok := pathID(w, r, "electionId")
	if !ok {
		return
	}

	if _, err := getElection(r.Context(), h.db, electionID); err != nil {
		writeError(w, err, "Database error")
		return
	}

	var ballotID int64
	err := h.db.QueryRowContext(r.Context(), "SELECT id FROM ballot WHERE election_id = $1", electionID).Scan(&ballotID)
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "ballot not found")
		return
	}
	if err != nil {
		slog.Error("failed to query ballot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	b, err := loadBallot(r.Context(), h.db, ballotID)
	if err != nil {
		writeError(w, err, "Failed to load ballot")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, b)
}

// CreateBallot handles POST /ballots
func (h *BallotHandler) CreateBallot(w http.ResponseWriter, r *http.Request) {
	var req models.BallotPayload
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.ElectionID <= 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return
	}

	var ballotID int64
	err := withTx(r.Context(), h.db, func(tx *sql.Tx) error {
		if _, err := getElection(r.Context(), tx, req.ElectionID); err != nil {
			return err
		}

		var existing int64
		err := tx.QueryRowContext(r.Context(), "SELECT id FROM ballot WHERE election_id = $1", req.ElectionID).Scan(&existing)
		if err == nil {
			return &requestError{status: http.StatusConflict, message: "ballot already exists for this election"}
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO ballot (election_id, description, updated_at)
			VALUES ($1, $2, $3)
			RETURNING id
		`, req.ElectionID, req.Description, time.Now().UTC()).Scan(&ballotID)
		if err != nil {
			return fmt.Errorf("insert ballot: %w", err)
		}
		return replaceTree(r.Context(), tx, ballotID, req.Positions)
	})
	if err != nil {
		writeError(w, err, "Failed to create ballot")
		return
	}

	b, err := loadBallot(r.Context(), h.db, ballotID)
	if err != nil {
		writeError(w, err, "Failed to load ballot")
		return
	}

	slog.Info("ballot created", "ballot_id", ballotID, "election_id", req.ElectionID, "positions", len(b.Positions))

	if h.cfg.EmulateCreateQuirk {
		middleware.JSONResponse(w, http.StatusBadRequest, models.BallotResponse{
			Message: "Ballot validation failed",
			Ballot:  b,
		})
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, models.BallotResponse{Message: "Ballot created", Ballot: b})
}

// UpdateBallot handles PUT /ballots/{ballotId}. The stored positions and
// candidates are replaced by the payload in one transaction.
func (h *BallotHandler) UpdateBallot(w http.ResponseWriter, r *http.Request) {
	ballotID, ok := pathID(w, r, "ballotId")
	if !ok {
		return
	}

	var req models.BallotPayload
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.ID != nil && *req.ID != ballotID {
		middleware.ErrorResponse(w, http.StatusBadRequest, "ballot id does not match path")
		return
	}

	err := withTx(r.Context(), h.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(r.Context(),
			"UPDATE ballot SET description = $1, updated_at = $2 WHERE id = $3",
			req.Description, time.Now().UTC(), ballotID)
		if err != nil {
			return fmt.Errorf("update ballot: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return notFound("ballot not found")
		}
		return replaceTree(r.Context(), tx, ballotID, req.Positions)
	})
	if err != nil {
		writeError(w, err, "Failed to update ballot")
		return
	}

	b, err := loadBallot(r.Context(), h.db, ballotID)
	if err != nil {
		writeError(w, err, "Failed to load ballot")
		return
	}

	slog.Info("ballot updated", "ballot_id", ballotID, "positions", len(b.Positions))
	middleware.JSONResponse(w, http.StatusOK, models.BallotResponse{Message: "Ballot updated", Ballot: b})
}

// UpdateDescription handles PUT /ballots/{ballotId}/description
func (h *BallotHandler) UpdateDescription(w http.ResponseWriter, r *http.Request) {
	ballotID, ok := pathID(w, r, "ballotId")
	if !ok {
		return
	}

	var req models.UpdateDescriptionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	res, err := h.db.ExecContext(r.Context(),
		"UPDATE ballot SET description = $1, updated_at = $2 WHERE id = $3",
		req.Description, time.Now().UTC(), ballotID)
	if err != nil {
		slog.Error("failed to update description", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "ballot not found")
		return
	}

	slog.Info("ballot description updated", "ballot_id", ballotID)
	middleware.JSONResponse(w, http.StatusOK, models.AckResponse{Success: true, Message: "Description updated"})
}

// CreatePosition handles POST /ballots/{ballotId}/positions
func (h *BallotHandler) CreatePosition(w http.ResponseWriter, r *http.Request) {
	ballotID, ok := pathID(w, r, "ballotId")
	if !ok {
		return
	}

	var req models.PositionUpdate
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	p := models.PositionPayload{MaxChoices: 1, Candidates: []models.CandidatePayload{}}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.MaxChoices != nil {
		if *req.MaxChoices < 1 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "max_choices must be at least 1")
			return
		}
		p.MaxChoices = *req.MaxChoices
	}

	var id int64
	err := withTx(r.Context(), h.db, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(r.Context(), "SELECT 1 FROM ballot WHERE id = $1", ballotID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("ballot not found")
		}
		if err != nil {
			return err
		}

		return tx.QueryRowContext(r.Context(), `
			INSERT INTO ballot_position (ballot_id, name, max_choices, sort_order)
			VALUES ($1, $2, $3, (SELECT COALESCE(MAX(sort_order), -1) + 1 FROM ballot_position WHERE ballot_id = $1))
			RETURNING id
		`, ballotID, p.Name, p.MaxChoices).Scan(&id)
	})
	if err != nil {
		writeError(w, err, "Failed to create position")
		return
	}
	p.ID = &id

	slog.Info("position created", "position_id", id, "ballot_id", ballotID)
	middleware.JSONResponse(w, http.StatusCreated, models.PositionResponse{Message: "Position created", Position: &p})
}

// UpdatePosition handles PUT /ballots/positions/{positionId}; only the
// fields present in the body change
func (h *BallotHandler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	positionID, ok := pathID(w, r, "positionId")
	if !ok {
		return
	}

	var req models.PositionUpdate
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.MaxChoices != nil && *req.MaxChoices < 1 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "max_choices must be at least 1")
		return
	}

	res, err := h.db.ExecContext(r.Context(), `
		UPDATE ballot_position
		SET name = COALESCE($1, name), max_choices = COALESCE($2, max_choices)
		WHERE id = $3
	`, req.Name, req.MaxChoices, positionID)
	if err != nil {
		slog.Error("failed to update position", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "position not found")
		return
	}

	slog.Info("position updated", "position_id", positionID)
	middleware.JSONResponse(w, http.StatusOK, models.AckResponse{Success: true, Message: "Position updated"})
}

// DeletePosition handles DELETE /ballots/positions/{positionId}
func (h *BallotHandler) DeletePosition(w http.ResponseWriter, r *http.Request) {
	positionID, ok := pathID(w, r, "positionId")
	if !ok {
		return
	}

	res, err := h.db.ExecContext(r.Context(), "DELETE FROM ballot_position WHERE id = $1", positionID)
	if err != nil {
		slog.Error("failed to delete position", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "position not found")
		return
	}

	slog.Info("position deleted", "position_id", positionID)
	middleware.JSONResponse(w, http.StatusOK, models.AckResponse{Success: true, Message: "Position deleted"})
}

// loadBallot reads the whole tree in display order
func loadBallot(ctx context.Context, q querier, ballotID int64) (*models.BallotPayload, error) {
	b := models.BallotPayload{ID: &ballotID, Positions: []models.PositionPayload{}}
	err := q.QueryRowContext(ctx,
		"SELECT election_id, description FROM ballot WHERE id = $1", ballotID,
	).Scan(&b.ElectionID, &b.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("ballot not found")
	}
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, name, max_choices FROM ballot_position
		WHERE ballot_id = $1
		ORDER BY sort_order, id
	`, ballotID)
	if err != nil {
		return nil, err
	}
	index := map[int64]int{}
	for rows.Next() {
		var id int64
		p := models.PositionPayload{Candidates: []models.CandidatePayload{}}
		if err := rows.Scan(&id, &p.Name, &p.MaxChoices); err != nil {
			rows.Close()
			return nil, err
		}
		p.ID = &id
		index[id] = len(b.Positions)
		b.Positions = append(b.Positions, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = q.QueryContext(ctx, `
		SELECT c.id, c.position_id, c.first_name, c.last_name, c.party, c.slogan, c.platform, c.image_url
		FROM ballot_candidate c
		JOIN ballot_position p ON p.id = c.position_id
		WHERE p.ballot_id = $1
		ORDER BY c.sort_order, c.id
	`, ballotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id, posID int64
		var c models.CandidatePayload
		if err := rows.Scan(&id, &posID, &c.FirstName, &c.LastName, &c.Party, &c.Slogan, &c.Platform, &c.ImageURL); err != nil {
			return nil, err
		}
		c.ID = &id
		i := index[posID]
		b.Positions[i].Candidates = append(b.Positions[i].Candidates, c)
	}
	return &b, rows.Err()
}

// replaceTree makes the stored positions and candidates of a ballot match
// positions. Entities with an id are updated and must already belong to
// the ballot; entities without one are inserted; the rest are deleted.
func replaceTree(ctx context.Context, tx *sql.Tx, ballotID int64, positions []models.PositionPayload) error {
	existingPos, err := idSet(ctx, tx, "SELECT id FROM ballot_position WHERE ballot_id = $1", ballotID)
	if err != nil {
		return err
	}
	existingCand, err := idSet(ctx, tx, `
		SELECT c.id FROM ballot_candidate c
		JOIN ballot_position p ON p.id = c.position_id
		WHERE p.ballot_id = $1
	`, ballotID)
	if err != nil {
		return err
	}

	keepPos := map[int64]bool{}
	keepCand := map[int64]bool{}

	for i, p := range positions {
		if p.MaxChoices < 1 {
			p.MaxChoices = 1
		}

		var posID int64
		if p.ID != nil && *p.ID != 0 {
			posID = *p.ID
			if !existingPos[posID] {
				return badRequest(fmt.Sprintf("position %d does not belong to this ballot", posID))
			}
			_, err := tx.ExecContext(ctx,
				"UPDATE ballot_position SET name = $1, max_choices = $2, sort_order = $3 WHERE id = $4",
				p.Name, p.MaxChoices, i, posID)
			if err != nil {
				return fmt.Errorf("update position: %w", err)
			}
		} else {
			err := tx.QueryRowContext(ctx, `
				INSERT INTO ballot_position (ballot_id, name, max_choices, sort_order)
				VALUES ($1, $2, $3, $4)
				RETURNING id
			`, ballotID, p.Name, p.MaxChoices, i).Scan(&posID)
			if err != nil {
				return fmt.Errorf("insert position: %w", err)
			}
		}
		keepPos[posID] = true

		for j, c := range p.Candidates {
			if c.ID != nil && *c.ID != 0 {
				if !existingCand[*c.ID] {
					return badRequest(fmt.Sprintf("candidate %d does not belong to this ballot", *c.ID))
				}
				if err := updateCandidate(ctx, tx, *c.ID, &posID, c, j); err != nil {
					return err
				}
				keepCand[*c.ID] = true
				continue
			}
			id, err := insertCandidate(ctx, tx, posID, c, j)
			if err != nil {
				return err
			}
			keepCand[id] = true
		}
	}

	for id := range existingCand {
		if !keepCand[id] {
			if _, err := tx.ExecContext(ctx, "DELETE FROM ballot_candidate WHERE id = $1", id); err != nil {
				return fmt.Errorf("delete candidate: %w", err)
			}
		}
	}
	for id := range existingPos {
		if !keepPos[id] {
			if _, err := tx.ExecContext(ctx, "DELETE FROM ballot_position WHERE id = $1", id); err != nil {
				return fmt.Errorf("delete position: %w", err)
			}
		}
	}
	return nil
}

func idSet(ctx context.Context, q querier, query string, args ...any) (map[int64]bool, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64]bool{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

func insertCandidate(ctx context.Context, q querier, posID int64, c models.CandidatePayload, order int) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO ballot_candidate (position_id, first_name, last_name, party, slogan, platform, image_url, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, posID, strings.TrimSpace(c.FirstName), strings.TrimSpace(c.LastName),
		c.Party, c.Slogan, c.Platform, c.ImageURL, order).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert candidate: %w", err)
	}
	return id, nil
}

// updateCandidate overwrites every field; posID and order move the
// candidate when set
func updateCandidate(ctx context.Context, q querier, id int64, posID *int64, c models.CandidatePayload, order int) error {
	_, err := q.ExecContext(ctx, `
		UPDATE ballot_candidate
		SET first_name = $1, last_name = $2, party = $3, slogan = $4, platform = $5, image_url = $6,
			position_id = COALESCE($7, position_id),
			sort_order = CASE WHEN $8 < 0 THEN sort_order ELSE $8 END
		WHERE id = $9
	`, strings.TrimSpace(c.FirstName), strings.TrimSpace(c.LastName),
		c.Party, c.Slogan, c.Platform, c.ImageURL, posID, order, id)
	if err != nil {
		return fmt.Errorf("update candidate: %w", err)
	}
	return nil
}
