// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package editor

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

type PositionField string

const (
	FieldName       PositionField = "name"
	FieldMaxChoices PositionField = "maxChoices"
)

type CandidateField string

const (
	FieldFirstName CandidateField = "firstName"
	FieldLastName  CandidateField = "lastName"
	FieldParty     CandidateField = "party"
	FieldSlogan    CandidateField = "slogan"
	FieldPlatform  CandidateField = "platform"
	FieldImageURL  CandidateField = "imageUrl"
)

// ParsePositionField accepts camelCase and snake_case field names
func ParsePositionField(s string) (PositionField, error) {
	switch normalizeField(s) {
	case "name":
		return FieldName, nil
	case "maxchoices":
		return FieldMaxChoices, nil
	}
	return "", fmt.Errorf("%w: position.%s", ErrUnknownField, s)
}

// ParseCandidateField accepts camelCase and snake_case field names
func ParseCandidateField(s string) (CandidateField, error) {
	switch normalizeField(s) {
	case "firstname":
		return FieldFirstName, nil
	case "lastname":
		return FieldLastName, nil
	case "party":
		return FieldParty, nil
	case "slogan":
		return FieldSlogan, nil
	case "platform", "bio":
		return FieldPlatform, nil
	case "imageurl":
		return FieldImageURL, nil
	}
	return "", fmt.Errorf("%w: candidate.%s", ErrUnknownField, s)
}

func normalizeField(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", ""))
}

// Store holds the ballot tree being edited. Every mutation replaces the
// root and the edited path; untouched positions and candidates keep their
// pointers, so consumers can compare by reference. Store does no I/O and
// is not safe for concurrent use.
type Store struct {
	policy WorkflowPolicy
	newID  IDGenerator
	ballot *Ballot
}

type StoreOption func(*Store)

// WithIDGenerator replaces the random local identity generator
func WithIDGenerator(gen IDGenerator) StoreOption {
	return func(s *Store) {
		s.newID = gen
	}
}

// NewStore wraps an existing ballot tree
func NewStore(b *Ballot, policy WorkflowPolicy, opts ...StoreOption) *Store {
	s := &Store{policy: policy, newID: RandomIDs, ballot: b}
	for _, opt := range opts {
		opt(s)
	}
	if s.ballot == nil {
		s.ballot = &Ballot{}
	}
	if s.ballot.ID.IsZero() {
		nb := *s.ballot
		nb.ID = s.newID(KindBallot)
		s.ballot = &nb
	}
	s.seedPosition()
	return s
}

// seedPosition gives a tree without positions one placeholder position
func (s *Store) seedPosition() {
	if len(s.ballot.Positions) > 0 {
		return
	}
	nb := *s.ballot
	nb.Positions = []*Position{s.newPosition()}
	s.ballot = &nb
}

// NewEmptyStore starts an unsaved ballot with one placeholder position
func NewEmptyStore(electionID int64, policy WorkflowPolicy, opts ...StoreOption) *Store {
	return NewStore(&Ballot{ElectionID: electionID}, policy, opts...)
}

func (s *Store) Ballot() *Ballot { return s.ballot }

func (s *Store) Policy() WorkflowPolicy { return s.policy }

// IDGenerator returns the generator used for new local identities
func (s *Store) IDGenerator() IDGenerator { return s.newID }

// Replace swaps the whole tree, e.g. with the result of a save. A tree
// without positions gets a placeholder one.
func (s *Store) Replace(b *Ballot) {
	s.ballot = b
	s.seedPosition()
}

// SetBallotID replaces the ballot's own identity
func (s *Store) SetBallotID(id Identity) {
	nb := *s.ballot
	nb.ID = id
	s.ballot = &nb
}

func (s *Store) SetDescription(text string) {
	nb := *s.ballot
	nb.Description = text
	s.ballot = &nb
}

// AddPosition appends a position with the workflow's placeholder candidates
func (s *Store) AddPosition() *Position {
	p := s.newPosition()
	nb := *s.ballot
	nb.Positions = append(slices.Clip(s.ballot.Positions), p)
	s.ballot = &nb
	return p
}

func (s *Store) UpdatePositionField(id Identity, field PositionField, value string) error {
	var apply func(p *Position)
	switch field {
	case FieldName:
		apply = func(p *Position) { p.Name = value }
	case FieldMaxChoices:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 1 {
			return fmt.Errorf("%w: maxChoices must be a positive integer, got %q", ErrInvalidValue, value)
		}
		apply = func(p *Position) { p.MaxChoices = n }
	default:
		return fmt.Errorf("%w: position.%s", ErrUnknownField, field)
	}
	return s.ApplyPosition(id, apply)
}

// RemovePosition deletes a position unless it is the last one
func (s *Store) RemovePosition(id Identity) (*Position, error) {
	p, i := s.ballot.FindPosition(id)
	if p == nil {
		return nil, ErrPositionNotFound
	}
	if len(s.ballot.Positions) <= 1 {
		return nil, minPositionsViolation()
	}

	nb := *s.ballot
	nb.Positions = slices.Delete(slices.Clone(s.ballot.Positions), i, i+1)
	s.ballot = &nb
	return p, nil
}

// AddCandidate appends an empty candidate to a position
func (s *Store) AddCandidate(posID Identity) (*Candidate, error) {
	c := s.newCandidate()
	err := s.ApplyPosition(posID, func(p *Position) {
		p.Candidates = append(slices.Clip(p.Candidates), c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) UpdateCandidateField(posID, candID Identity, field CandidateField, value string) error {
	var apply func(c *Candidate)
	switch field {
	case FieldFirstName:
		apply = func(c *Candidate) { c.FirstName = value }
	case FieldLastName:
		apply = func(c *Candidate) { c.LastName = value }
	case FieldParty:
		apply = func(c *Candidate) { c.Party = value }
	case FieldSlogan:
		apply = func(c *Candidate) { c.Slogan = value }
	case FieldPlatform:
		apply = func(c *Candidate) { c.Platform = value }
	case FieldImageURL:
		apply = func(c *Candidate) { c.ImageURL = value }
	default:
		return fmt.Errorf("%w: candidate.%s", ErrUnknownField, field)
	}
	return s.ApplyCandidate(posID, candID, apply)
}

// RemoveCandidate deletes a candidate unless the position would drop below
// the workflow minimum. A position left empty gets a fresh placeholder.
func (s *Store) RemoveCandidate(posID, candID Identity) (*Candidate, error) {
	p, i := s.ballot.FindPosition(posID)
	if p == nil {
		return nil, ErrPositionNotFound
	}
	c, j := p.FindCandidate(candID)
	if c == nil {
		return nil, ErrCandidateNotFound
	}
	if len(p.Candidates)-1 < s.policy.MinCandidatesPerPosition {
		return nil, minCandidatesViolation(s.policy.MinCandidatesPerPosition)
	}

	np := *p
	np.Candidates = slices.Delete(slices.Clone(p.Candidates), j, j+1)
	if len(np.Candidates) == 0 {
		np.Candidates = []*Candidate{s.newCandidate()}
	}
	s.setPosition(i, &np)
	return c, nil
}

// ApplyPosition runs fn on a copy of the position and swaps the copy in.
// fn must not modify the shared Candidates backing array in place.
func (s *Store) ApplyPosition(id Identity, fn func(p *Position)) error {
	p, i := s.ballot.FindPosition(id)
	if p == nil {
		return ErrPositionNotFound
	}
	np := *p
	fn(&np)
	s.setPosition(i, &np)
	return nil
}

// ApplyCandidate runs fn on a copy of the candidate and swaps the copy in
func (s *Store) ApplyCandidate(posID, candID Identity, fn func(c *Candidate)) error {
	p, i := s.ballot.FindPosition(posID)
	if p == nil {
		return ErrPositionNotFound
	}
	c, j := p.FindCandidate(candID)
	if c == nil {
		return ErrCandidateNotFound
	}

	nc := *c
	fn(&nc)

	np := *p
	np.Candidates = slices.Clone(p.Candidates)
	np.Candidates[j] = &nc
	s.setPosition(i, &np)
	return nil
}

func (s *Store) setPosition(i int, p *Position) {
	nb := *s.ballot
	nb.Positions = slices.Clone(s.ballot.Positions)
	nb.Positions[i] = p
	s.ballot = &nb
}

func (s *Store) newPosition() *Position {
	p := &Position{
		ID:         s.newID(KindPosition),
		MaxChoices: 1,
		Candidates: make([]*Candidate, 0, s.policy.PlaceholderCandidates),
	}
	for range s.policy.PlaceholderCandidates {
		p.Candidates = append(p.Candidates, s.newCandidate())
	}
	return p
}

func (s *Store) newCandidate() *Candidate {
	return &Candidate{ID: s.newID(KindCandidate)}
}
