// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package editor

// Ballot is the root of the edited tree. Values reachable from a Ballot
// returned by Store are shared with later trees and must not be mutated.
type Ballot struct {
	ID          Identity
	ElectionID  int64
	Description string
	Positions   []*Position
}

type Position struct {
	ID         Identity
	Name       string
	MaxChoices int
	Candidates []*Candidate
}

type Candidate struct {
	ID        Identity
	FirstName string
	LastName  string
	Party     string
	Slogan    string
	Platform  string
	// ImageURL is the persisted image reference returned by the server
	ImageURL string
	// PreviewURL is a local display handle for an image not yet uploaded
	PreviewURL string
	// Pending holds the raw file until an upload succeeds
	Pending *ImageFile
	// SaveError records the last failed individual save of this candidate
	SaveError error
}

// DisplayImage returns the reference a view should render
func (c *Candidate) DisplayImage() string {
	if c.PreviewURL != "" {
		return c.PreviewURL
	}
	return c.ImageURL
}

// FullName joins first and last name
func (c *Candidate) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// NewBallot returns an unsaved ballot with no positions
func NewBallot(electionID int64, id Identity) *Ballot {
	return &Ballot{ID: id, ElectionID: electionID}
}

// FindPosition returns the position with the given identity
func (b *Ballot) FindPosition(id Identity) (*Position, int) {
	for i, p := range b.Positions {
		if p.ID == id {
			return p, i
		}
	}
	return nil, -1
}

// FindCandidate returns the candidate with the given identity
func (p *Position) FindCandidate(id Identity) (*Candidate, int) {
	for i, c := range p.Candidates {
		if c.ID == id {
			return c, i
		}
	}
	return nil, -1
}

// Walk calls fn for every candidate in tree order
func (b *Ballot) Walk(fn func(p *Position, c *Candidate)) {
	for _, p := range b.Positions {
		for _, c := range p.Candidates {
			fn(p, c)
		}
	}
}

// LocalIdentities lists every local-only identity reachable from b
func (b *Ballot) LocalIdentities() []Identity {
	var ids []Identity
	if b.ID.IsLocal() {
		ids = append(ids, b.ID)
	}
	for _, p := range b.Positions {
		if p.ID.IsLocal() {
			ids = append(ids, p.ID)
		}
		for _, c := range p.Candidates {
			if c.ID.IsLocal() {
				ids = append(ids, c.ID)
			}
		}
	}
	return ids
}
