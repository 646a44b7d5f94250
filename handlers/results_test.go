// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/danielhkuo/ballotdesk/models"
	"github.com/danielhkuo/ballotdesk/testutil"
)

func castVote(handler *ResultsHandler, electionID int64, ids ...int64) *httptest.ResponseRecorder {
	req := testutil.MakeRequest("POST", "/", models.CastVoteRequest{CandidateIDs: ids}, nil)
	req.SetPathValue("electionId", idString(electionID))
	w := httptest.NewRecorder()
	handler.CastVote(w, req)
	return w
}

func getResults(t *testing.T, handler *ResultsHandler, electionID int64) models.ElectionResults {
	t.Helper()
	req := httptest.NewRequest("GET", "/", nil)
	req.SetPathValue("electionId", idString(electionID))
	w := httptest.NewRecorder()
	handler.GetResults(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var res models.ElectionResults
	testutil.AssertJSON(t, w, &res)
	return res
}

func TestCastVote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewResultsHandler(db, testutil.GetTestConfig())

	open := testutil.CreateTestElection(t, db, models.StatusOpen)
	tb := testutil.CreateTestBallot(t, db, open, "Lovelace", "Hopper")
	draft := testutil.CreateTestElection(t, db, models.StatusDraft)
	draftBallot := testutil.CreateTestBallot(t, db, draft, "Turing")

	tests := []struct {
		name           string
		electionID     int64
		ids            []int64
		expectedStatus int
	}{
		{"valid single choice", open, []int64{tb.CandidateIDs[0]}, http.StatusCreated},
		{"too many for position", open, tb.CandidateIDs, http.StatusBadRequest},
		{"duplicate selection", open, []int64{tb.CandidateIDs[1], tb.CandidateIDs[1]}, http.StatusBadRequest},
		{"candidate from another election", open, []int64{draftBallot.CandidateIDs[0]}, http.StatusBadRequest},
		{"empty selection", open, nil, http.StatusBadRequest},
		{"election not open", draft, []int64{draftBallot.CandidateIDs[0]}, http.StatusConflict},
		{"missing election", 999, []int64{1}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := castVote(handler, tt.electionID, tt.ids...)
			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}

	if n := countRows(t, db, "vote"); n != 1 {
		t.Errorf("Expected only the valid vote to be stored, got %d", n)
	}
}

func TestGetResults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewResultsHandler(db, testutil.GetTestConfig())

	t.Run("no ballot", func(t *testing.T) {
		id := testutil.CreateTestElection(t, db, models.StatusDraft)
		res := getResults(t, handler, id)
		if len(res.Positions) != 0 || res.VoteCount != 0 || res.Status != models.StatusDraft {
			t.Errorf("Unexpected results %+v", res)
		}
	})

	t.Run("counts votes per candidate", func(t *testing.T) {
		id := testutil.CreateTestElection(t, db, models.StatusOpen)
		tb := testutil.CreateTestBallot(t, db, id, "Lovelace", "Hopper")
		if _, err := db.Exec("INSERT INTO ballot_position (ballot_id, name, max_choices, sort_order) VALUES ($1, 'Empty', 1, 1)", tb.BallotID); err != nil {
			t.Fatalf("insert position: %v", err)
		}

		for range 3 {
			testutil.AssertStatus(t, castVote(handler, id, tb.CandidateIDs[1]), http.StatusCreated)
		}
		testutil.AssertStatus(t, castVote(handler, id, tb.CandidateIDs[0]), http.StatusCreated)

		res := getResults(t, handler, id)
		if res.VoteCount != 4 {
			t.Errorf("Expected 4 votes, got %d", res.VoteCount)
		}
		if len(res.Positions) != 2 {
			t.Fatalf("Expected 2 positions, got %d", len(res.Positions))
		}
		pres := res.Positions[0]
		if len(pres.Candidates) != 2 || pres.Candidates[0].Votes != 1 || pres.Candidates[1].Votes != 3 {
			t.Errorf("Unexpected counts %+v", pres.Candidates)
		}
		if pres.Candidates[1].Name != "Test Hopper" {
			t.Errorf("Expected full name, got %q", pres.Candidates[1].Name)
		}
		if len(res.Positions[1].Candidates) != 0 {
			t.Error("Expected empty position to have no candidates")
		}
	})

	t.Run("missing election", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.SetPathValue("electionId", "999")
		w := httptest.NewRecorder()
		handler.GetResults(w, req)
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}

func TestConcurrentVotes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewResultsHandler(db, testutil.GetTestConfig())
	id := testutil.CreateTestElection(t, db, models.StatusOpen)
	tb := testutil.CreateTestBallot(t, db, id, "Lovelace", "Hopper")

	const voters = 10
	var wg sync.WaitGroup
	for i := range voters {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := castVote(handler, id, tb.CandidateIDs[i%2])
			if w.Code != http.StatusCreated {
				t.Errorf("voter %d: expected 201, got %d: %s", i, w.Code, w.Body.String())
			}
		}(i)
	}
	wg.Wait()

	res := getResults(t, handler, id)
	if res.VoteCount != voters {
		t.Errorf("Expected %d votes, got %d", voters, res.VoteCount)
	}
	c := res.Positions[0].Candidates
	if c[0].Votes != voters/2 || c[1].Votes != voters/2 {
		t.Errorf("Expected an even split, got %d/%d", c[0].Votes, c[1].Votes)
	}
}
