// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package live

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/danielhkuo/ballotdesk/models"
)

const DefaultRotate = 10 * time.Second

// Frame is what a fullscreen display shows at one moment
type Frame struct {
	Position  models.PositionResult
	Standings []Standing
	Index     int
	Total     int
	Status    string
	VoteCount int
	Stale     bool
	UpdatedAt time.Time
}

// Standing is a candidate's place within a position
type Standing struct {
	models.CandidateResult
	Rank  int
	Share float64
}

// Carousel cycles through the positions of the latest results. It keeps
// showing the same position across updates while that position exists.
type Carousel struct {
	mu      sync.Mutex
	results *models.ElectionResults
	stale   bool
	index   int
}

func NewCarousel() *Carousel {
	return &Carousel{}
}

// Update installs a new snapshot
func (c *Carousel) Update(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stale = s.Stale()
	if s.Results == nil {
		return
	}

	var currentID int64
	if c.results != nil && c.index < len(c.results.Positions) {
		currentID = c.results.Positions[c.index].PositionID
	}
	c.results = s.Results
	c.index = 0
	for i, p := range s.Results.Positions {
		if p.PositionID == currentID {
			c.index = i
			break
		}
	}
}

// Current returns the frame for the shown position
func (c *Carousel) Current() (Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frameLocked()
}

// Next advances to the following position, wrapping around
func (c *Carousel) Next() (Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results != nil && len(c.results.Positions) > 0 {
		c.index = (c.index + 1) % len(c.results.Positions)
	}
	return c.frameLocked()
}

func (c *Carousel) frameLocked() (Frame, bool) {
	if c.results == nil || len(c.results.Positions) == 0 {
		return Frame{}, false
	}
	p := c.results.Positions[c.index]
	return Frame{
		Position:  p,
		Standings: Standings(p),
		Index:     c.index,
		Total:     len(c.results.Positions),
		Status:    c.results.Status,
		VoteCount: c.results.VoteCount,
		Stale:     c.stale,
		UpdatedAt: c.results.UpdatedAt,
	}, true
}

// Run renders a frame on every snapshot and every rotate tick until ctx is
// done or snapshots is closed
func (c *Carousel) Run(ctx context.Context, snapshots <-chan Snapshot, rotate time.Duration, render func(Frame)) {
	if rotate <= 0 {
		rotate = DefaultRotate
	}
	ticker := time.NewTicker(rotate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-snapshots:
			if !ok {
				return
			}
			c.Update(s)
			if f, ok := c.Current(); ok {
				render(f)
			}
		case <-ticker.C:
			if f, ok := c.Next(); ok {
				render(f)
			}
		}
	}
}

// Standings orders candidates by votes, ties sharing a rank
func Standings(p models.PositionResult) []Standing {
	total := 0
	for _, c := range p.Candidates {
		total += c.Votes
	}

	out := make([]Standing, 0, len(p.Candidates))
	for _, c := range p.Candidates {
		s := Standing{CandidateResult: c}
		if total > 0 {
			s.Share = float64(c.Votes) / float64(total)
		}
		out = append(out, s)
	}
	slices.SortStableFunc(out, func(a, b Standing) int {
		return cmp.Compare(b.Votes, a.Votes)
	})
	for i := range out {
		if i > 0 && out[i].Votes == out[i-1].Votes {
			out[i].Rank = out[i-1].Rank
		} else {
			out[i].Rank = i + 1
		}
	}
	return out
}
