// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package live

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielhkuo/ballotdesk/models"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	calls atomic.Int32
	fail  func(n int32) bool
}

func (f *fakeSource) GetResults(ctx context.Context, electionID int64) (*models.ElectionResults, error) {
	n := f.calls.Add(1)
	if f.fail != nil && f.fail(n) {
		return nil, errors.New("backend down")
	}
	return &models.ElectionResults{ElectionID: electionID, VoteCount: int(n)}, nil
}

func drain(ch <-chan Snapshot) {
	for range ch {
	}
}

func TestPoller_Run(t *testing.T) {
	src := &fakeSource{}
	ctx, cancel := context.WithCancel(context.Background())

	ch := NewPoller(src, 7, WithInterval(5*time.Millisecond)).Run(ctx)

	for i := 1; i <= 3; i++ {
		s := <-ch
		if s.Err != nil {
			t.Fatalf("snapshot %d: %v", i, s.Err)
		}
		if s.Results.ElectionID != 7 || s.Results.VoteCount != i {
			t.Errorf("snapshot %d: unexpected results %+v", i, s.Results)
		}
	}

	cancel()
	drain(ch)
}

func TestPoller_KeepsLastResultsOnError(t *testing.T) {
	src := &fakeSource{fail: func(n int32) bool { return n == 2 }}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := NewPoller(src, 1, WithInterval(time.Millisecond)).Run(ctx)

	first := <-ch
	second := <-ch
	third := <-ch
	cancel()
	drain(ch)

	if first.Stale() || first.Results.VoteCount != 1 {
		t.Errorf("Unexpected first snapshot %+v", first)
	}
	if !second.Stale() || second.Results == nil || second.Results.VoteCount != 1 {
		t.Errorf("Expected stale snapshot carrying previous results, got %+v", second)
	}
	if third.Stale() || third.Results.VoteCount != 3 {
		t.Errorf("Expected recovery, got %+v", third)
	}
}

func TestPoller_TimeoutPerFetch(t *testing.T) {
	blocking := sourceFunc(func(ctx context.Context, _ int64) (*models.ElectionResults, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := NewPoller(blocking, 1, WithTimeout(5*time.Millisecond), WithInterval(time.Hour)).Run(ctx)

	select {
	case s := <-ch:
		if !errors.Is(s.Err, context.DeadlineExceeded) {
			t.Errorf("Expected deadline error, got %v", s.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("fetch was not bounded by the timeout")
	}
	cancel()
	drain(ch)
}

type sourceFunc func(ctx context.Context, electionID int64) (*models.ElectionResults, error)

func (f sourceFunc) GetResults(ctx context.Context, electionID int64) (*models.ElectionResults, error) {
	return f(ctx, electionID)
}

func results(ids ...int64) *models.ElectionResults {
	r := &models.ElectionResults{Status: models.StatusOpen}
	for _, id := range ids {
		r.Positions = append(r.Positions, models.PositionResult{PositionID: id})
	}
	return r
}

func TestCarousel(t *testing.T) {
	c := NewCarousel()
	if _, ok := c.Current(); ok {
		t.Fatal("Expected no frame before the first snapshot")
	}

	c.Update(Snapshot{Results: results(1, 2, 3)})
	f, _ := c.Current()
	if f.Position.PositionID != 1 || f.Total != 3 {
		t.Errorf("Unexpected first frame %+v", f)
	}

	c.Next()
	f, _ = c.Next()
	if f.Position.PositionID != 3 || f.Index != 2 {
		t.Errorf("Expected third position, got %+v", f)
	}
	f, _ = c.Next()
	if f.Position.PositionID != 1 {
		t.Errorf("Expected wrap to first position, got %d", f.Position.PositionID)
	}

	c.Next()
	// position 2 moves to the end; the carousel follows it
	c.Update(Snapshot{Results: results(1, 3, 2)})
	f, _ = c.Current()
	if f.Position.PositionID != 2 {
		t.Errorf("Expected carousel to stay on position 2, got %d", f.Position.PositionID)
	}

	// a failed fetch marks the frame stale but keeps the results
	c.Update(Snapshot{Err: errors.New("down")})
	f, ok := c.Current()
	if !ok || !f.Stale || f.Position.PositionID != 2 {
		t.Errorf("Expected stale frame on position 2, got %+v", f)
	}

	// shown position removed
	c.Update(Snapshot{Results: results(5)})
	f, _ = c.Current()
	if f.Position.PositionID != 5 || f.Stale {
		t.Errorf("Expected reset to first position, got %+v", f)
	}
}

func TestStandings(t *testing.T) {
	p := models.PositionResult{Candidates: []models.CandidateResult{
		{CandidateID: 1, Name: "A", Votes: 2},
		{CandidateID: 2, Name: "B", Votes: 5},
		{CandidateID: 3, Name: "C", Votes: 2},
		{CandidateID: 4, Name: "D", Votes: 1},
	}}

	got := Standings(p)
	wantIDs := []int64{2, 1, 3, 4}
	wantRanks := []int{1, 2, 2, 4}
	for i, s := range got {
		if s.CandidateID != wantIDs[i] || s.Rank != wantRanks[i] {
			t.Errorf("position %d: got id %d rank %d, want id %d rank %d", i, s.CandidateID, s.Rank, wantIDs[i], wantRanks[i])
		}
	}
	if got[0].Share != 0.5 {
		t.Errorf("Expected 50%% share, got %v", got[0].Share)
	}

	empty := Standings(models.PositionResult{Candidates: []models.CandidateResult{{CandidateID: 1}}})
	if empty[0].Share != 0 || empty[0].Rank != 1 {
		t.Errorf("Unexpected standing without votes %+v", empty[0])
	}
}

func TestCarousel_Run(t *testing.T) {
	snaps := make(chan Snapshot)
	c := NewCarousel()

	var mu sync.Mutex
	var seen []int64
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(context.Background(), snaps, 2*time.Millisecond, func(f Frame) {
			mu.Lock()
			seen = append(seen, f.Position.PositionID)
			mu.Unlock()
		})
	}()

	snaps <- Snapshot{Results: results(1, 2)}
	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n >= 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("carousel did not rotate")
		case <-time.After(time.Millisecond):
		}
	}
	close(snaps)
	<-done

	mu.Lock()
	defer mu.Unlock()
	if seen[0] != 1 || seen[1] != 2 || seen[2] != 1 {
		t.Errorf("Expected 1,2,1 rotation, got %v", seen[:3])
	}
}
