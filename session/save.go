// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielhkuo/ballotdesk/editor"
	"github.com/danielhkuo/ballotdesk/models"
	"github.com/danielhkuo/ballotdesk/rest"
)

type SaveResult struct {
	Ballot  *editor.Ballot
	Created bool
	// Warning is set when the server reported an error but created the ballot
	Warning *rest.QualifiedSuccess
	// ImageErrors holds pending uploads that failed after the save
	ImageErrors map[editor.Identity]error
}

// Save validates the tree and writes it in one request: an update when
// the ballot itself is persisted, a create otherwise. On success the
// server's tree replaces the local one. Two admins saving the same ballot
// overwrite each other; the last save wins.
func (s *Session) Save(ctx context.Context) (*SaveResult, error) {
	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return nil, ErrSaveInProgress
	}
	if errs := s.validateLocked(); len(errs) > 0 {
		s.mu.Unlock()
		return nil, errs
	}
	s.saving = true
	sent := s.store.Ballot()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.saving = false
		s.mu.Unlock()
	}()

	payload := editor.ToPayload(sent)
	res := &SaveResult{}

	var saved *models.BallotPayload
	var err error
	if ballotID, ok := sent.ID.ServerID(); ok {
		saved, err = s.api.UpdateBallot(ctx, ballotID, payload)
	} else {
		saved, res.Warning, err = s.api.CreateBallot(ctx, payload)
		res.Created = true
	}
	if err != nil {
		s.log.Error("ballot save failed", "ballot_id", sent.ID.String(), "error", err)
		return nil, fmt.Errorf("saving ballot: %w", err)
	}

	next := editor.FromPayload(*saved, s.newID)
	ids, orphaned := carryPending(sent, next)

	s.mu.Lock()
	if s.store.Ballot() != sent {
		s.log.Warn("edits made during save were replaced by the saved ballot")
	}
	s.store.Replace(next)
	next = s.store.Ballot()
	s.errs = s.errs.Rekey(ids, next)
	s.mu.Unlock()

	for _, ref := range orphaned {
		s.revoke(ref)
	}

	s.log.Info("ballot saved",
		"ballot_id", next.ID.String(),
		"created", res.Created,
		"positions", len(next.Positions),
		"warning", res.Warning != nil,
	)

	res.ImageErrors = s.flushPending(ctx, next)
	res.Ballot = s.Ballot()
	return res, nil
}

// carryPending pairs the sent tree with the saved one and moves pending
// images and their previews across. It returns the identity each sent
// entity now has, and the previews of candidates the server did not keep.
func carryPending(sent, saved *editor.Ballot) (map[editor.Identity]editor.Identity, []string) {
	ids := map[editor.Identity]editor.Identity{sent.ID: saved.ID}
	var orphaned []string

	positions := pair(sent.Positions, saved.Positions, func(p *editor.Position) editor.Identity { return p.ID })
	for i, p := range sent.Positions {
		np := positions[i]
		if np == nil {
			for _, c := range p.Candidates {
				if c.PreviewURL != "" {
					orphaned = append(orphaned, c.PreviewURL)
				}
			}
			continue
		}
		ids[p.ID] = np.ID

		candidates := pair(p.Candidates, np.Candidates, func(c *editor.Candidate) editor.Identity { return c.ID })
		for j, c := range p.Candidates {
			nc := candidates[j]
			if nc == nil {
				if c.PreviewURL != "" {
					orphaned = append(orphaned, c.PreviewURL)
				}
				continue
			}
			ids[c.ID] = nc.ID
			if c.Pending != nil {
				// saved is freshly decoded and not shared yet
				nc.Pending = c.Pending
				nc.PreviewURL = c.PreviewURL
			}
		}
	}
	return ids, orphaned
}

// pair returns the saved counterpart of each sent entity, or nil. Persisted
// entities pair by id; local ones take the unpaired entity at their index.
func pair[T any](sent, saved []*T, id func(*T) editor.Identity) []*T {
	out := make([]*T, len(sent))
	taken := make([]bool, len(saved))

	index := make(map[editor.Identity]int, len(saved))
	for j, e := range saved {
		index[id(e)] = j
	}
	for i, e := range sent {
		if !id(e).IsPersisted() {
			continue
		}
		if j, ok := index[id(e)]; ok && !taken[j] {
			out[i] = saved[j]
			taken[j] = true
		}
	}
	for i, e := range sent {
		if id(e).IsPersisted() || i >= len(saved) || taken[i] {
			continue
		}
		out[i] = saved[i]
		taken[i] = true
	}
	return out
}

// flushPending uploads pending images through multipart candidate updates
func (s *Session) flushPending(ctx context.Context, b *editor.Ballot) map[editor.Identity]error {
	failed := map[editor.Identity]error{}
	b.Walk(func(p *editor.Position, c *editor.Candidate) {
		if c.Pending == nil {
			return
		}
		serverID, ok := c.ID.ServerID()
		if !ok {
			return
		}
		got, err := s.api.UpdateCandidate(ctx, serverID, editor.CandidateToPayload(c), c.Pending)
		if err != nil {
			s.log.Warn("pending image upload failed", "candidate_id", serverID, "error", err)
			failed[c.ID] = err
			s.mu.Lock()
			s.errs[editor.CandidateImageKey(p.ID, c.ID)] = "image upload failed: " + err.Error()
			s.mu.Unlock()
			return
		}
		s.landPending(p.ID, c, got)
	})
	if len(failed) == 0 {
		return nil
	}
	return failed
}

// landPending clears a candidate's pending image after the server took it
func (s *Session) landPending(posID editor.Identity, sent *editor.Candidate, got *models.CandidatePayload) {
	s.mu.Lock()
	_ = s.store.ApplyCandidate(posID, sent.ID, func(c *editor.Candidate) {
		if c.Pending != sent.Pending {
			return
		}
		if got != nil && got.ImageURL != "" {
			c.ImageURL = got.ImageURL
		}
		c.Pending = nil
		c.PreviewURL = ""
	})
	delete(s.errs, editor.CandidateImageKey(posID, sent.ID))
	s.mu.Unlock()
	s.revoke(sent.PreviewURL)
}

// CandidateOutcome is the result of saving one candidate individually
type CandidateOutcome struct {
	Position  editor.Identity
	Candidate editor.Identity
	// Saved is the candidate's identity after the save
	Saved   editor.Identity
	Created bool
	Warning *rest.QualifiedSuccess
	Err     error
}

// SaveCandidates saves every candidate with its own request. A failure is
// recorded on that candidate's SaveError and the loop moves on. Local
// positions are created first; a position that cannot be created fails
// all of its candidates.
func (s *Session) SaveCandidates(ctx context.Context) ([]CandidateOutcome, error) {
	s.mu.Lock()
	b := s.store.Ballot()
	s.mu.Unlock()

	ballotID, ok := b.ID.ServerID()
	if !ok {
		return nil, ErrBallotNotSaved
	}

	var outcomes []CandidateOutcome
	for _, p := range b.Positions {
		posID, posErr := s.ensurePosition(ctx, ballotID, p)
		for _, c := range p.Candidates {
			out := CandidateOutcome{Position: posID, Candidate: c.ID, Saved: c.ID}
			if posErr != nil {
				out.Err = posErr
			} else {
				s.saveCandidate(ctx, posID, c, &out)
			}
			s.recordOutcome(posID, c, out)
			outcomes = append(outcomes, out)
		}
	}
	return outcomes, nil
}

// Failed counts outcomes that carry an error
func Failed(outcomes []CandidateOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

func (s *Session) ensurePosition(ctx context.Context, ballotID int64, p *editor.Position) (editor.Identity, error) {
	if p.ID.IsPersisted() {
		return p.ID, nil
	}
	created, err := s.api.CreatePosition(ctx, ballotID, p.Name, p.MaxChoices)
	if err != nil {
		s.log.Warn("position create failed", "position", p.ID.String(), "error", err)
		return p.ID, fmt.Errorf("creating position %q: %w", p.Name, err)
	}

	id := editor.Persisted(*created.ID)
	s.mu.Lock()
	_ = s.store.ApplyPosition(p.ID, func(np *editor.Position) { np.ID = id })
	s.errs = s.errs.Rekey(map[editor.Identity]editor.Identity{p.ID: id}, s.store.Ballot())
	s.mu.Unlock()
	return id, nil
}

func (s *Session) saveCandidate(ctx context.Context, posID editor.Identity, c *editor.Candidate, out *CandidateOutcome) {
	payload := editor.CandidateToPayload(c)
	var got *models.CandidatePayload
	var err error

	if serverID, ok := c.ID.ServerID(); ok {
		got, err = s.api.UpdateCandidate(ctx, serverID, payload, c.Pending)
	} else {
		positionID, _ := posID.ServerID()
		got, out.Warning, err = s.api.CreateCandidate(ctx, positionID, payload, c.Pending)
		out.Created = true
	}
	if err != nil {
		out.Err = err
		return
	}

	got = backfill(payload, got)
	if got.ID != nil {
		out.Saved = editor.Persisted(*got.ID)
	} else if out.Created {
		s.log.Warn("candidate created without an id in the response", "candidate", c.ID.String())
	}

	s.mu.Lock()
	_ = s.store.ApplyCandidate(posID, c.ID, func(nc *editor.Candidate) {
		nc.ID = out.Saved
		nc.FirstName = got.FirstName
		nc.LastName = got.LastName
		nc.Party = got.Party
		nc.Slogan = got.Slogan
		nc.Platform = got.Platform
		nc.ImageURL = got.ImageURL
		if c.Pending != nil && nc.Pending == c.Pending {
			nc.Pending = nil
			nc.PreviewURL = ""
		}
	})
	if out.Saved != c.ID {
		s.errs = s.errs.Rekey(map[editor.Identity]editor.Identity{c.ID: out.Saved}, s.store.Ballot())
	}
	if c.Pending != nil {
		delete(s.errs, editor.CandidateImageKey(posID, out.Saved))
	}
	s.mu.Unlock()
	if c.Pending != nil {
		s.revoke(c.PreviewURL)
	}
}

func (s *Session) recordOutcome(posID editor.Identity, c *editor.Candidate, out CandidateOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.store.ApplyCandidate(posID, out.Saved, func(nc *editor.Candidate) {
		nc.SaveError = out.Err
	})
	if errors.Is(err, editor.ErrCandidateNotFound) || errors.Is(err, editor.ErrPositionNotFound) {
		s.log.Debug("candidate removed before its save finished", "candidate", c.ID.String())
	}
	if out.Err != nil {
		s.log.Warn("candidate save failed", "candidate", c.ID.String(), "error", out.Err)
	}
}

// backfill fills what the server left out of a candidate response with the
// values that were sent
func backfill(sent models.CandidatePayload, got *models.CandidatePayload) *models.CandidatePayload {
	if got == nil {
		cp := sent
		return &cp
	}
	out := *got
	if out.ID == nil {
		out.ID = sent.ID
	}
	if out.FirstName == "" {
		out.FirstName = sent.FirstName
	}
	if out.LastName == "" {
		out.LastName = sent.LastName
	}
	if out.Party == "" {
		out.Party = sent.Party
	}
	if out.Slogan == "" {
		out.Slogan = sent.Slogan
	}
	if out.Platform == "" {
		out.Platform = sent.Platform
	}
	if out.ImageURL == "" {
		out.ImageURL = sent.ImageURL
	}
	return &out
}
