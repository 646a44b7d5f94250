// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"

	"github.com/danielhkuo/ballotdesk/editor"
	"github.com/danielhkuo/ballotdesk/models"
	"github.com/danielhkuo/ballotdesk/preview"
	"github.com/danielhkuo/ballotdesk/rest"
	"golang.org/x/sync/errgroup"
)

var (
	ErrSaveInProgress = errors.New("a save is already in progress")
	ErrBallotNotSaved = errors.New("ballot has not been saved yet")
)

// API is the subset of the ballot API a session talks to. *rest.Client
// implements it.
type API interface {
	GetElection(ctx context.Context, electionID int64) (*models.Election, error)
	GetBallotByElection(ctx context.Context, electionID int64) (*models.BallotPayload, error)
	CreateBallot(ctx context.Context, p models.BallotPayload) (*models.BallotPayload, *rest.QualifiedSuccess, error)
	UpdateBallot(ctx context.Context, ballotID int64, p models.BallotPayload) (*models.BallotPayload, error)
	UpdateDescription(ctx context.Context, ballotID int64, description string) error
	CreatePosition(ctx context.Context, ballotID int64, name string, maxChoices int) (*models.PositionPayload, error)
	UpdatePosition(ctx context.Context, positionID int64, u models.PositionUpdate) error
	DeletePosition(ctx context.Context, positionID int64) error
	CreateCandidate(ctx context.Context, positionID int64, cp models.CandidatePayload, image *editor.ImageFile) (*models.CandidatePayload, *rest.QualifiedSuccess, error)
	UpdateCandidate(ctx context.Context, candidateID int64, cp models.CandidatePayload, image *editor.ImageFile) (*models.CandidatePayload, error)
	DeleteCandidate(ctx context.Context, candidateID int64) error
	UploadCandidateImage(ctx context.Context, f editor.ImageFile) (string, error)
}

// Session owns one ballot being edited against the API. Local edits are
// applied under a lock; requests are made outside it, so concurrent eager
// syncs of the same field reach the server in no particular order.
type Session struct {
	api      API
	previews preview.Previewer
	maxImage int64
	newID    editor.IDGenerator
	log      *slog.Logger

	mu       sync.Mutex
	store    *editor.Store
	election *models.Election
	errs     editor.FieldErrors
	saving   bool
}

type Option func(*Session)

func WithPreviewer(p preview.Previewer) Option {
	return func(s *Session) { s.previews = p }
}

func WithMaxImageBytes(n int64) Option {
	return func(s *Session) { s.maxImage = n }
}

func WithIDGenerator(gen editor.IDGenerator) Option {
	return func(s *Session) { s.newID = gen }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

func newSession(api API, opts []Option) *Session {
	s := &Session{
		api:      api,
		maxImage: editor.DefaultMaxImageBytes,
		newID:    editor.RandomIDs,
		log:      slog.Default(),
		errs:     editor.FieldErrors{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.previews == nil {
		s.previews = preview.NewMemory()
	}
	return s
}

// New starts a session over an existing tree without contacting the API
func New(api API, b *editor.Ballot, policy editor.WorkflowPolicy, opts ...Option) *Session {
	s := newSession(api, opts)
	s.store = editor.NewStore(b, policy, editor.WithIDGenerator(s.newID))
	s.log = s.log.With("election_id", b.ElectionID)
	return s
}

// Load fetches the election and its ballot in parallel. An election
// without a ballot gets a new local ballot with one position.
func Load(ctx context.Context, api API, electionID int64, policy editor.WorkflowPolicy, opts ...Option) (*Session, error) {
	if electionID <= 0 {
		return nil, fmt.Errorf("%w: election id", rest.ErrMissingParam)
	}

	var (
		election *models.Election
		payload  *models.BallotPayload
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e, err := api.GetElection(gctx, electionID)
		if err != nil {
			return fmt.Errorf("loading election: %w", err)
		}
		election = e
		return nil
	})
	g.Go(func() error {
		p, err := api.GetBallotByElection(gctx, electionID)
		if errors.Is(err, rest.ErrBallotNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("loading ballot: %w", err)
		}
		payload = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := newSession(api, opts)
	s.election = election
	s.log = s.log.With("election_id", electionID)

	if payload == nil {
		s.store = editor.NewEmptyStore(electionID, policy, editor.WithIDGenerator(s.newID))
		s.log.Info("starting new ballot", "workflow", policy.Name)
		return s, nil
	}

	b := editor.FromPayload(*payload, s.newID)
	if b.ElectionID == 0 {
		b.ElectionID = electionID
	}
	s.store = editor.NewStore(b, policy, editor.WithIDGenerator(s.newID))
	s.log.Info("ballot loaded",
		"ballot_id", b.ID.String(),
		"positions", len(b.Positions),
		"workflow", policy.Name,
	)
	return s, nil
}

// Ballot returns the current tree. It must not be modified.
func (s *Session) Ballot() *editor.Ballot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Ballot()
}

// Election is nil for sessions built with New
func (s *Session) Election() *models.Election {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.election
}

func (s *Session) Policy() editor.WorkflowPolicy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Policy()
}

// FieldErrors returns a copy of the errors currently attached to fields
func (s *Session) FieldErrors() editor.FieldErrors {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.errs)
}

func (s *Session) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

// Validate runs the rule set and attaches the result to the fields.
// Image errors from earlier uploads stay attached but do not block saving
// and are not part of the returned map.
func (s *Session) Validate() editor.FieldErrors {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateLocked()
}

func (s *Session) validateLocked() editor.FieldErrors {
	errs := editor.Validate(s.store.Ballot(), s.store.Policy())
	attached := maps.Clone(errs)
	for k, v := range s.errs.Rekey(nil, s.store.Ballot()) {
		if strings.HasSuffix(k, ".image") {
			attached[k] = v
		}
	}
	s.errs = attached
	return errs
}

// Close revokes every preview still referenced by the tree
func (s *Session) Close() error {
	s.mu.Lock()
	b := s.store.Ballot()
	s.mu.Unlock()

	var errs []error
	b.Walk(func(_ *editor.Position, c *editor.Candidate) {
		if c.PreviewURL != "" {
			errs = append(errs, s.previews.Revoke(c.PreviewURL))
		}
	})
	return errors.Join(errs...)
}

func (s *Session) revoke(ref string) {
	if ref == "" {
		return
	}
	if err := s.previews.Revoke(ref); err != nil {
		s.log.Warn("failed to revoke preview", "ref", ref, "error", err)
	}
}
