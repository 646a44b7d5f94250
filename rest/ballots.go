// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/ballotdesk/models"
)

func (c *Client) GetElection(ctx context.Context, electionID int64) (*models.Election, error) {
	const op = "get election"
	if err := requireID("election id", electionID); err != nil {
		return nil, err
	}
	r, err := c.do(ctx, call{op: op, method: http.MethodGet, path: []string{"elections", idPath(electionID)}, fetch: true})
	if err != nil {
		return nil, err
	}
	return decode[models.Election](op, r)
}

func (c *Client) GetElectionDetails(ctx context.Context, electionID int64) (*models.ElectionDetails, error) {
	const op = "get election details"
	if err := requireID("election id", electionID); err != nil {
		return nil, err
	}
	r, err := c.do(ctx, call{op: op, method: http.MethodGet, path: []string{"elections", idPath(electionID), "details"}, fetch: true})
	if err != nil {
		return nil, err
	}
	return decode[models.ElectionDetails](op, r)
}

func (c *Client) CreateElection(ctx context.Context, req models.CreateElectionRequest) (*models.Election, error) {
	const op = "create election"
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	r, err := c.do(ctx, call{op: op, method: http.MethodPost, path: []string{"elections"}, body: body, contentType: "application/json"})
	if err != nil {
		return nil, err
	}
	return decode[models.Election](op, r)
}

// GetBallotByElection returns ErrBallotNotFound when the election has no ballot yet
func (c *Client) GetBallotByElection(ctx context.Context, electionID int64) (*models.BallotPayload, error) {
	const op = "get ballot"
	if err := requireID("election id", electionID); err != nil {
		return nil, err
	}
	r, err := c.do(ctx, call{op: op, method: http.MethodGet, path: []string{"elections", idPath(electionID), "ballot"}})
	if err != nil {
		return nil, err
	}

	if r.status == http.StatusNotFound {
		if msg := extractMessage(r.status, r.body); strings.Contains(strings.ToLower(msg), "ballot") {
			return nil, ErrBallotNotFound
		}
	}
	return decode[models.BallotPayload](op, r)
}

// CreateBallot posts a whole ballot tree. A non-nil warning means the
// server answered 400 but still created the ballot.
func (c *Client) CreateBallot(ctx context.Context, p models.BallotPayload) (*models.BallotPayload, *QualifiedSuccess, error) {
	const op = "create ballot"
	if err := requireID("election id", p.ElectionID); err != nil {
		return nil, nil, err
	}
	body, err := jsonBody(p)
	if err != nil {
		return nil, nil, err
	}
	r, err := c.do(ctx, call{op: op, method: http.MethodPost, path: []string{"ballots"}, body: body, contentType: "application/json"})
	if err != nil {
		return nil, nil, err
	}

	if c.ambiguous == AcceptCreated && r.status == http.StatusBadRequest {
		if br, err := jsonUnmarshal[models.BallotResponse](r.body); err == nil && br.Ballot != nil && br.Ballot.ID != nil {
			w := &QualifiedSuccess{Op: op, StatusCode: r.status, Message: extractMessage(r.status, r.body)}
			slog.Warn("ballot created despite error status",
				"ballot_id", *br.Ballot.ID,
				"status", r.status,
				"message", w.Message,
			)
			return br.Ballot, w, nil
		}
	}

	br, err := decode[models.BallotResponse](op, r)
	if err != nil {
		return nil, nil, err
	}
	if br.Ballot == nil {
		return nil, nil, &MalformedResponseError{Op: op, StatusCode: r.status, Err: errors.New("response has no ballot")}
	}
	return br.Ballot, nil, nil
}

// UpdateBallot replaces the ballot tree stored under ballotID
func (c *Client) UpdateBallot(ctx context.Context, ballotID int64, p models.BallotPayload) (*models.BallotPayload, error) {
	const op = "update ballot"
	if err := requireID("ballot id", ballotID); err != nil {
		return nil, err
	}
	body, err := jsonBody(p)
	if err != nil {
		return nil, err
	}
	r, err := c.do(ctx, call{op: op, method: http.MethodPut, path: []string{"ballots", idPath(ballotID)}, body: body, contentType: "application/json"})
	if err != nil {
		return nil, err
	}
	br, err := decode[models.BallotResponse](op, r)
	if err != nil {
		return nil, err
	}
	if br.Ballot == nil {
		return nil, &MalformedResponseError{Op: op, StatusCode: r.status, Err: errors.New("response has no ballot")}
	}
	return br.Ballot, nil
}

func (c *Client) UpdateDescription(ctx context.Context, ballotID int64, description string) error {
	const op = "update description"
	if err := requireID("ballot id", ballotID); err != nil {
		return err
	}
	body, err := jsonBody(models.UpdateDescriptionRequest{Description: description})
	if err != nil {
		return err
	}
	r, err := c.do(ctx, call{op: op, method: http.MethodPut, path: []string{"ballots", idPath(ballotID), "description"}, body: body, contentType: "application/json"})
	if err != nil {
		return err
	}
	return expectOK(op, r)
}

func (c *Client) CreatePosition(ctx context.Context, ballotID int64, name string, maxChoices int) (*models.PositionPayload, error) {
	const op = "create position"
	if err := requireID("ballot id", ballotID); err != nil {
		return nil, err
	}
	body, err := jsonBody(models.PositionUpdate{Name: &name, MaxChoices: &maxChoices})
	if err != nil {
		return nil, err
	}
	r, err := c.do(ctx, call{op: op, method: http.MethodPost, path: []string{"ballots", idPath(ballotID), "positions"}, body: body, contentType: "application/json"})
	if err != nil {
		return nil, err
	}
	pr, err := decode[models.PositionResponse](op, r)
	if err != nil {
		return nil, err
	}
	if pr.Position == nil || pr.Position.ID == nil {
		return nil, &MalformedResponseError{Op: op, StatusCode: r.status, Err: errors.New("response has no position id")}
	}
	return pr.Position, nil
}

func (c *Client) UpdatePosition(ctx context.Context, positionID int64, u models.PositionUpdate) error {
	const op = "update position"
	if err := requireID("position id", positionID); err != nil {
		return err
	}
	body, err := jsonBody(u)
	if err != nil {
		return err
	}
	r, err := c.do(ctx, call{op: op, method: http.MethodPut, path: []string{"ballots", "positions", idPath(positionID)}, body: body, contentType: "application/json"})
	if err != nil {
		return err
	}
	return expectOK(op, r)
}

func (c *Client) DeletePosition(ctx context.Context, positionID int64) error {
	const op = "delete position"
	if err := requireID("position id", positionID); err != nil {
		return err
	}
	r, err := c.do(ctx, call{op: op, method: http.MethodDelete, path: []string{"ballots", "positions", idPath(positionID)}})
	if err != nil {
		return err
	}
	return expectOK(op, r)
}

func (c *Client) GetResults(ctx context.Context, electionID int64) (*models.ElectionResults, error) {
	const op = "get results"
	if err := requireID("election id", electionID); err != nil {
		return nil, err
	}
	r, err := c.do(ctx, call{op: op, method: http.MethodGet, path: []string{"elections", idPath(electionID), "results"}, fetch: true})
	if err != nil {
		return nil, err
	}
	return decode[models.ElectionResults](op, r)
}

func (c *Client) CastVote(ctx context.Context, electionID int64, candidateIDs []int64) error {
	const op = "cast vote"
	if err := requireID("election id", electionID); err != nil {
		return err
	}
	body, err := jsonBody(models.CastVoteRequest{CandidateIDs: candidateIDs})
	if err != nil {
		return err
	}
	r, err := c.do(ctx, call{op: op, method: http.MethodPost, path: []string{"elections", idPath(electionID), "votes"}, body: body, contentType: "application/json"})
	if err != nil {
		return err
	}
	return expectOK(op, r)
}

// RequestToken asks a development server for a session token. It is the
// only call made without a bearer credential.
func (c *Client) RequestToken(ctx context.Context, subject, role string) (*models.TokenResponse, error) {
	const op = "request token"
	body, err := jsonBody(models.TokenRequest{Subject: subject, Role: role})
	if err != nil {
		return nil, err
	}
	r, err := c.do(ctx, call{op: op, method: http.MethodPost, path: []string{"auth", "token"}, body: body, contentType: "application/json", public: true})
	if err != nil {
		return nil, err
	}
	return decode[models.TokenResponse](op, r)
}
