// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package editor

import "github.com/danielhkuo/ballotdesk/models"

// ToPayload serializes the tree for the API. Local identities are left
// out so the server creates those entities; persisted ones are updated.
// Preview handles and pending files never leave the client.
func ToPayload(b *Ballot) models.BallotPayload {
	out := models.BallotPayload{
		ID:          serverID(b.ID),
		ElectionID:  b.ElectionID,
		Description: b.Description,
		Positions:   make([]models.PositionPayload, 0, len(b.Positions)),
	}
	for _, p := range b.Positions {
		pp := models.PositionPayload{
			ID:         serverID(p.ID),
			Name:       p.Name,
			MaxChoices: p.MaxChoices,
			Candidates: make([]models.CandidatePayload, 0, len(p.Candidates)),
		}
		for _, c := range p.Candidates {
			pp.Candidates = append(pp.Candidates, CandidateToPayload(c))
		}
		out.Positions = append(out.Positions, pp)
	}
	return out
}

func CandidateToPayload(c *Candidate) models.CandidatePayload {
	return models.CandidatePayload{
		ID:        serverID(c.ID),
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Party:     c.Party,
		Slogan:    c.Slogan,
		Platform:  c.Platform,
		ImageURL:  c.ImageURL,
	}
}

// FromPayload builds a tree from an API response. Entities the server
// returned without an id get a local identity from gen.
func FromPayload(p models.BallotPayload, gen IDGenerator) *Ballot {
	b := &Ballot{
		ID:          identityOf(p.ID, gen, KindBallot),
		ElectionID:  p.ElectionID,
		Description: p.Description,
		Positions:   make([]*Position, 0, len(p.Positions)),
	}
	for _, pp := range p.Positions {
		pos := &Position{
			ID:         identityOf(pp.ID, gen, KindPosition),
			Name:       pp.Name,
			MaxChoices: pp.MaxChoices,
			Candidates: make([]*Candidate, 0, len(pp.Candidates)),
		}
		if pos.MaxChoices < 1 {
			pos.MaxChoices = 1
		}
		for _, cp := range pp.Candidates {
			pos.Candidates = append(pos.Candidates, CandidateFromPayload(cp, gen))
		}
		b.Positions = append(b.Positions, pos)
	}
	return b
}

func CandidateFromPayload(cp models.CandidatePayload, gen IDGenerator) *Candidate {
	return &Candidate{
		ID:        identityOf(cp.ID, gen, KindCandidate),
		FirstName: cp.FirstName,
		LastName:  cp.LastName,
		Party:     cp.Party,
		Slogan:    cp.Slogan,
		Platform:  cp.Platform,
		ImageURL:  cp.ImageURL,
	}
}

func serverID(id Identity) *int64 {
	if v, ok := id.ServerID(); ok {
		return &v
	}
	return nil
}

func identityOf(id *int64, gen IDGenerator, kind Kind) Identity {
	if id != nil && *id != 0 {
		return Persisted(*id)
	}
	if gen == nil {
		gen = RandomIDs
	}
	return gen(kind)
}
