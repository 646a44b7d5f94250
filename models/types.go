package models

import "time"

// Election status constants
const (
	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Token roles
const (
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

// Request types

type CreateElectionRequest struct {
	Title  string `json:"title"`
	Status string `json:"status,omitempty"`
}

type UpdateDescriptionRequest struct {
	Description string `json:"description"`
}

// PositionUpdate carries only the changed fields of a position.
type PositionUpdate struct {
	Name       *string `json:"name,omitempty"`
	MaxChoices *int    `json:"max_choices,omitempty"`
}

type CastVoteRequest struct {
	CandidateIDs []int64 `json:"candidate_ids"`
}

type TokenRequest struct {
	Subject string `json:"subject"`
	Role    string `json:"role"`
}

// Response types

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type BallotResponse struct {
	Message string         `json:"message,omitempty"`
	Ballot  *BallotPayload `json:"ballot,omitempty"`
}

type PositionResponse struct {
	Message  string           `json:"message,omitempty"`
	Position *PositionPayload `json:"position,omitempty"`
}

type CandidateResponse struct {
	Message   string            `json:"message,omitempty"`
	Candidate *CandidatePayload `json:"candidate,omitempty"`
}

type UploadImageResponse struct {
	Success  bool   `json:"success"`
	FilePath string `json:"filePath"`
	Message  string `json:"message,omitempty"`
}

type AckResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Domain types

type Election struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type ElectionDetails struct {
	Election       Election `json:"election"`
	BallotID       *int64   `json:"ballot_id,omitempty"`
	PositionCount  int      `json:"position_count"`
	CandidateCount int      `json:"candidate_count"`
	VoteCount      int      `json:"vote_count"`
}

// BallotPayload is the full ballot tree as exchanged with the API.
// A nil ID means the entity has not been persisted yet.
type BallotPayload struct {
	ID          *int64            `json:"id,omitempty"`
	ElectionID  int64             `json:"election_id"`
	Description string            `json:"description"`
	Positions   []PositionPayload `json:"positions"`
}

type PositionPayload struct {
	ID         *int64             `json:"id,omitempty"`
	Name       string             `json:"name"`
	MaxChoices int                `json:"max_choices"`
	Candidates []CandidatePayload `json:"candidates"`
}

type CandidatePayload struct {
	ID        *int64 `json:"id,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Party     string `json:"party,omitempty"`
	Slogan    string `json:"slogan,omitempty"`
	Platform  string `json:"platform,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
}

// Live results

type CandidateResult struct {
	CandidateID int64  `json:"candidate_id"`
	Name        string `json:"name"`
	Party       string `json:"party,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Votes       int    `json:"votes"`
}

type PositionResult struct {
	PositionID int64             `json:"position_id"`
	Name       string            `json:"name"`
	MaxChoices int               `json:"max_choices"`
	Candidates []CandidateResult `json:"candidates"`
}

type ElectionResults struct {
	ElectionID int64            `json:"election_id"`
	Status     string           `json:"status"`
	Positions  []PositionResult `json:"positions"`
	VoteCount  int              `json:"vote_count"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
