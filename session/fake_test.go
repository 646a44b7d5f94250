// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"sync"

	"github.com/danielhkuo/ballotdesk/editor"
	"github.com/danielhkuo/ballotdesk/models"
	"github.com/danielhkuo/ballotdesk/rest"
)

var errBoom = errors.New("boom")

type apiCall struct {
	op string
	id int64
}

// fakeAPI records calls and assigns ids to everything it creates
type fakeAPI struct {
	mu     sync.Mutex
	calls  []apiCall
	nextID int64

	election *models.Election
	ballot   *models.BallotPayload

	lastBallot  models.BallotPayload
	createWarn  *rest.QualifiedSuccess
	failCreate  error
	failUpload  error
	failUpdate  map[int64]error
	failCreateC map[string]error // by first name
	omitFields  bool
	uploaded    int

	// reshape edits a saved ballot before it is returned
	reshape func(*models.BallotPayload)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		nextID:      100,
		election:    &models.Election{ID: 42, Title: "General", Status: models.StatusDraft},
		failUpdate:  map[int64]error{},
		failCreateC: map[string]error{},
	}
}

func (f *fakeAPI) record(op string, id int64) {
	f.calls = append(f.calls, apiCall{op, id})
}

func (f *fakeAPI) id() *int64 {
	f.nextID++
	v := f.nextID
	return &v
}

func (f *fakeAPI) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.op
	}
	return out
}

func (f *fakeAPI) GetElection(ctx context.Context, electionID int64) (*models.Election, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetElection", electionID)
	return f.election, nil
}

func (f *fakeAPI) GetBallotByElection(ctx context.Context, electionID int64) (*models.BallotPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetBallotByElection", electionID)
	if f.ballot == nil {
		return nil, rest.ErrBallotNotFound
	}
	return f.ballot, nil
}

// assign gives every entity without an id a fresh one
func (f *fakeAPI) assign(p models.BallotPayload) *models.BallotPayload {
	out := p
	if out.ID == nil {
		out.ID = f.id()
	}
	out.Positions = make([]models.PositionPayload, len(p.Positions))
	for i, pp := range p.Positions {
		if pp.ID == nil {
			pp.ID = f.id()
		}
		cands := make([]models.CandidatePayload, len(pp.Candidates))
		for j, cp := range pp.Candidates {
			if cp.ID == nil {
				cp.ID = f.id()
			}
			cands[j] = cp
		}
		pp.Candidates = cands
		out.Positions[i] = pp
	}
	return &out
}

func (f *fakeAPI) saved(p models.BallotPayload) *models.BallotPayload {
	out := f.assign(p)
	if f.reshape != nil {
		f.reshape(out)
	}
	return out
}

func (f *fakeAPI) CreateBallot(ctx context.Context, p models.BallotPayload) (*models.BallotPayload, *rest.QualifiedSuccess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateBallot", 0)
	f.lastBallot = p
	if f.failCreate != nil {
		return nil, nil, f.failCreate
	}
	return f.saved(p), f.createWarn, nil
}

func (f *fakeAPI) UpdateBallot(ctx context.Context, ballotID int64, p models.BallotPayload) (*models.BallotPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateBallot", ballotID)
	f.lastBallot = p
	return f.saved(p), nil
}

func (f *fakeAPI) UpdateDescription(ctx context.Context, ballotID int64, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateDescription", ballotID)
	return f.failUpdate[ballotID]
}

func (f *fakeAPI) CreatePosition(ctx context.Context, ballotID int64, name string, maxChoices int) (*models.PositionPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreatePosition", ballotID)
	return &models.PositionPayload{ID: f.id(), Name: name, MaxChoices: maxChoices}, nil
}

func (f *fakeAPI) UpdatePosition(ctx context.Context, positionID int64, u models.PositionUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdatePosition", positionID)
	return f.failUpdate[positionID]
}

func (f *fakeAPI) DeletePosition(ctx context.Context, positionID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeletePosition", positionID)
	return nil
}

func (f *fakeAPI) CreateCandidate(ctx context.Context, positionID int64, cp models.CandidatePayload, image *editor.ImageFile) (*models.CandidatePayload, *rest.QualifiedSuccess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateCandidate", positionID)
	if err := f.failCreateC[cp.FirstName]; err != nil {
		return nil, nil, err
	}
	if f.omitFields {
		return &models.CandidatePayload{ID: f.id()}, nil, nil
	}
	cp.ID = f.id()
	if image != nil {
		cp.ImageURL = "/uploads/" + image.Name
	}
	return &cp, nil, nil
}

func (f *fakeAPI) UpdateCandidate(ctx context.Context, candidateID int64, cp models.CandidatePayload, image *editor.ImageFile) (*models.CandidatePayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateCandidate", candidateID)
	if err := f.failUpdate[candidateID]; err != nil {
		return nil, err
	}
	cp.ID = &candidateID
	if image != nil {
		cp.ImageURL = "/uploads/" + image.Name
	}
	return &cp, nil
}

func (f *fakeAPI) DeleteCandidate(ctx context.Context, candidateID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteCandidate", candidateID)
	return nil
}

func (f *fakeAPI) UploadCandidateImage(ctx context.Context, file editor.ImageFile) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UploadCandidateImage", 0)
	if f.failUpload != nil {
		return "", f.failUpload
	}
	f.uploaded++
	return "/uploads/" + file.Name, nil
}
