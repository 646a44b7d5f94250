// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"

	"github.com/danielhkuo/ballotdesk/editor"
	"github.com/danielhkuo/ballotdesk/models"
)

// SyncResult describes the network side of an edit. The local edit has
// already been applied when a SyncResult is returned; Err is a failed
// sync that the caller shows inline without rolling anything back.
type SyncResult struct {
	Sent bool
	Err  error
}

func (r SyncResult) OK() bool { return r.Err == nil }

func (s *Session) eager() bool {
	return s.store.Policy().SyncMode == editor.SyncEager
}

func (s *Session) sync(op string, attrs []any, fn func() error) SyncResult {
	if err := fn(); err != nil {
		s.log.Warn("sync failed", append([]any{"op", op, "error", err}, attrs...)...)
		return SyncResult{Sent: true, Err: err}
	}
	s.log.Debug("synced", append([]any{"op", op}, attrs...)...)
	return SyncResult{Sent: true}
}

func (s *Session) SetDescription(ctx context.Context, text string) SyncResult {
	s.mu.Lock()
	s.store.SetDescription(text)
	delete(s.errs, editor.KeyDescription)
	ballotID, persisted := s.store.Ballot().ID.ServerID()
	send := persisted && s.eager()
	s.mu.Unlock()

	if !send {
		return SyncResult{}
	}
	return s.sync("update description", []any{"ballot_id", ballotID}, func() error {
		return s.api.UpdateDescription(ctx, ballotID, text)
	})
}

// AddPosition appends a local position; it reaches the server on save
func (s *Session) AddPosition() *editor.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.AddPosition()
}

func (s *Session) UpdatePositionField(ctx context.Context, posID editor.Identity, field editor.PositionField, value string) (SyncResult, error) {
	s.mu.Lock()
	if err := s.store.UpdatePositionField(posID, field, value); err != nil {
		s.mu.Unlock()
		return SyncResult{}, err
	}
	delete(s.errs, editor.PositionKey(posID, string(field)))
	p, _ := s.store.Ballot().FindPosition(posID)
	serverID, persisted := posID.ServerID()
	send := persisted && s.eager()
	s.mu.Unlock()

	if !send {
		return SyncResult{}, nil
	}

	var u models.PositionUpdate
	switch field {
	case editor.FieldName:
		u.Name = &p.Name
	case editor.FieldMaxChoices:
		u.MaxChoices = &p.MaxChoices
	}
	return s.sync("update position", []any{"position_id", serverID, "field", field}, func() error {
		return s.api.UpdatePosition(ctx, serverID, u)
	}), nil
}

// RemovePosition deletes a position locally and, in eager mode, on the
// server. Previews owned by its candidates are revoked.
func (s *Session) RemovePosition(ctx context.Context, posID editor.Identity) (SyncResult, error) {
	s.mu.Lock()
	removed, err := s.store.RemovePosition(posID)
	if err != nil {
		s.mu.Unlock()
		return SyncResult{}, err
	}
	s.dropErrors(editor.PositionKey(posID, ""))
	send := s.eager()
	s.mu.Unlock()

	for _, c := range removed.Candidates {
		s.revoke(c.PreviewURL)
	}

	serverID, persisted := posID.ServerID()
	if !persisted || !send {
		return SyncResult{}, nil
	}
	return s.sync("delete position", []any{"position_id", serverID}, func() error {
		return s.api.DeletePosition(ctx, serverID)
	}), nil
}

func (s *Session) AddCandidate(posID editor.Identity) (*editor.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.store.AddCandidate(posID)
	if err != nil {
		return nil, err
	}
	delete(s.errs, editor.PositionKey(posID, "candidates"))
	return c, nil
}

func (s *Session) UpdateCandidateField(ctx context.Context, posID, candID editor.Identity, field editor.CandidateField, value string) (SyncResult, error) {
	s.mu.Lock()
	if err := s.store.UpdateCandidateField(posID, candID, field, value); err != nil {
		s.mu.Unlock()
		return SyncResult{}, err
	}
	if field == editor.FieldFirstName || field == editor.FieldLastName {
		delete(s.errs, editor.CandidateKey(posID, candID, "name"))
	}
	p, _ := s.store.Ballot().FindPosition(posID)
	c, _ := p.FindCandidate(candID)
	serverID, persisted := candID.ServerID()
	send := persisted && s.eager()
	s.mu.Unlock()

	if !send {
		return SyncResult{}, nil
	}
	payload := editor.CandidateToPayload(c)
	return s.sync("update candidate", []any{"candidate_id", serverID, "field", field}, func() error {
		_, err := s.api.UpdateCandidate(ctx, serverID, payload, nil)
		return err
	}), nil
}

func (s *Session) RemoveCandidate(ctx context.Context, posID, candID editor.Identity) (SyncResult, error) {
	s.mu.Lock()
	removed, err := s.store.RemoveCandidate(posID, candID)
	if err != nil {
		s.mu.Unlock()
		return SyncResult{}, err
	}
	s.dropErrors(editor.CandidateKey(posID, candID, ""))
	send := s.eager()
	s.mu.Unlock()

	s.revoke(removed.PreviewURL)

	serverID, persisted := candID.ServerID()
	if !persisted || !send {
		return SyncResult{}, nil
	}
	return s.sync("delete candidate", []any{"candidate_id", serverID}, func() error {
		return s.api.DeleteCandidate(ctx, serverID)
	}), nil
}

func (s *Session) dropErrors(prefix string) {
	for k := range s.errs.Under(prefix) {
		delete(s.errs, k)
	}
}
