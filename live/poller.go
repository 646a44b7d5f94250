// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package live

import (
	"context"
	"log/slog"
	"time"

	"github.com/danielhkuo/ballotdesk/models"
)

const (
	DefaultInterval = 5 * time.Second
	DefaultTimeout  = 15 * time.Second
)

// ResultsSource fetches the current vote counts; *rest.Client satisfies it
type ResultsSource interface {
	GetResults(ctx context.Context, electionID int64) (*models.ElectionResults, error)
}

// Snapshot is one poll outcome. Results keeps the last good value when a
// fetch fails so displays can keep showing it.
type Snapshot struct {
	Results   *models.ElectionResults
	Err       error
	FetchedAt time.Time
}

// Stale reports whether the last fetch failed
func (s Snapshot) Stale() bool { return s.Err != nil }

type Poller struct {
	src        ResultsSource
	electionID int64
	interval   time.Duration
	timeout    time.Duration
	logger     *slog.Logger
}

type PollerOption func(*Poller)

func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithTimeout bounds each fetch
func WithTimeout(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) PollerOption {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

func NewPoller(src ResultsSource, electionID int64, opts ...PollerOption) *Poller {
	p := &Poller{
		src:        src,
		electionID: electionID,
		interval:   DefaultInterval,
		timeout:    DefaultTimeout,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run fetches immediately and then every interval, sending each snapshot
// on the returned channel. The channel is closed once ctx is done.
func (p *Poller) Run(ctx context.Context) <-chan Snapshot {
	out := make(chan Snapshot)
	go func() {
		defer close(out)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		var last *models.ElectionResults
		for {
			snap := p.fetch(ctx, last)
			if snap.Err == nil {
				last = snap.Results
			}
			if ctx.Err() != nil {
				return
			}

			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (p *Poller) fetch(ctx context.Context, last *models.ElectionResults) Snapshot {
	fctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	res, err := p.src.GetResults(fctx, p.electionID)
	snap := Snapshot{Results: res, Err: err, FetchedAt: time.Now()}
	if err != nil {
		snap.Results = last
		if ctx.Err() == nil {
			p.logger.Warn("results fetch failed", "election_id", p.electionID, "error", err)
		}
		return snap
	}
	p.logger.Debug("results fetched", "election_id", p.electionID, "votes", res.VoteCount)
	return snap
}
