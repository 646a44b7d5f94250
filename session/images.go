// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"fmt"

	"github.com/danielhkuo/ballotdesk/editor"
)

// AttachImage checks a selected file, shows it through a preview handle
// and uploads it. A rejected file returns an error and leaves the
// candidate untouched. A failed upload keeps the preview and the pending
// file; the file goes out again with the next save of the candidate.
func (s *Session) AttachImage(ctx context.Context, posID, candID editor.Identity, f editor.ImageFile) (SyncResult, error) {
	key := editor.CandidateImageKey(posID, candID)

	s.mu.Lock()
	if _, err := s.findCandidate(posID, candID); err != nil {
		s.mu.Unlock()
		return SyncResult{}, err
	}
	if err := editor.CheckImage(f, s.maxImage); err != nil {
		s.errs[key] = err.Error()
		s.mu.Unlock()
		return SyncResult{}, err
	}
	s.mu.Unlock()

	ref, err := s.previews.Create(f.Name, f.Data)
	if err != nil {
		return SyncResult{}, fmt.Errorf("creating preview: %w", err)
	}

	pending := &f
	var superseded string
	s.mu.Lock()
	err = s.store.ApplyCandidate(posID, candID, func(c *editor.Candidate) {
		superseded = c.PreviewURL
		c.PreviewURL = ref
		c.Pending = pending
	})
	if err == nil {
		delete(s.errs, key)
	}
	s.mu.Unlock()
	if err != nil {
		s.revoke(ref)
		return SyncResult{}, err
	}
	s.revoke(superseded)

	path, err := s.api.UploadCandidateImage(ctx, f)
	if err != nil {
		s.log.Warn("image upload failed", "candidate", candID.String(), "error", err)
		s.mu.Lock()
		s.errs[key] = "image upload failed: " + err.Error()
		s.mu.Unlock()
		return SyncResult{Sent: true, Err: err}, nil
	}

	s.mu.Lock()
	landed := false
	var c editor.Candidate
	_ = s.store.ApplyCandidate(posID, candID, func(cand *editor.Candidate) {
		// a newer selection may have replaced this one mid-upload
		if cand.Pending != pending {
			return
		}
		cand.ImageURL = path
		cand.Pending = nil
		cand.PreviewURL = ""
		landed = true
		c = *cand
	})
	send := landed && candID.IsPersisted() && s.eager()
	s.mu.Unlock()

	if !landed {
		return SyncResult{Sent: true}, nil
	}
	s.revoke(ref)
	s.log.Info("image uploaded", "candidate", candID.String(), "path", path)

	if !send {
		return SyncResult{Sent: true}, nil
	}
	serverID, _ := candID.ServerID()
	payload := editor.CandidateToPayload(&c)
	return s.sync("update candidate image", []any{"candidate_id", serverID}, func() error {
		_, err := s.api.UpdateCandidate(ctx, serverID, payload, nil)
		return err
	}), nil
}

func (s *Session) findCandidate(posID, candID editor.Identity) (*editor.Candidate, error) {
	p, _ := s.store.Ballot().FindPosition(posID)
	if p == nil {
		return nil, editor.ErrPositionNotFound
	}
	c, _ := p.FindCandidate(candID)
	if c == nil {
		return nil, editor.ErrCandidateNotFound
	}
	return c, nil
}
