// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package editor

import (
	"errors"
	"testing"
)

func newTestStore(policy WorkflowPolicy) *Store {
	return NewEmptyStore(42, policy, WithIDGenerator(SequentialIDs()))
}

// seeded returns the placeholder position every new store starts with
func seeded(s *Store) *Position {
	return s.Ballot().Positions[0]
}

func TestNewStoreSeedsPosition(t *testing.T) {
	tests := []struct {
		name   string
		ballot *Ballot
	}{
		{"nil ballot", nil},
		{"empty ballot", &Ballot{ElectionID: 42}},
		{"persisted ballot without positions", &Ballot{ID: Persisted(5), ElectionID: 42, Positions: []*Position{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(tt.ballot, AdminCreate, WithIDGenerator(SequentialIDs()))

			positions := s.Ballot().Positions
			if len(positions) != 1 {
				t.Fatalf("Expected 1 placeholder position, got %d", len(positions))
			}
			if !positions[0].ID.IsLocal() || len(positions[0].Candidates) != 2 {
				t.Errorf("Expected a local position with two placeholders, got %+v", positions[0])
			}
		})
	}
}

func TestReplaceSeedsPosition(t *testing.T) {
	s := newTestStore(SuperadminEdit)
	saved := &Ballot{ID: Persisted(5), ElectionID: 42, Description: "General"}

	s.Replace(saved)

	b := s.Ballot()
	if b.ID != Persisted(5) || b.Description != "General" {
		t.Errorf("Expected the replaced ballot, got %+v", b)
	}
	if len(b.Positions) != 1 || len(b.Positions[0].Candidates) != 1 {
		t.Fatalf("Expected one placeholder position with one candidate, got %+v", b.Positions)
	}
	if len(saved.Positions) != 0 {
		t.Error("Expected the replaced tree to be left untouched")
	}
}

func TestAddPosition(t *testing.T) {
	tests := []struct {
		name       string
		policy     WorkflowPolicy
		candidates int
	}{
		{"admin seeds two", AdminCreate, 2},
		{"superadmin seeds one", SuperadminEdit, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(tt.policy)
			p := s.AddPosition()

			if p.ID != Local("p2") {
				t.Errorf("Expected id local:p2, got %s", p.ID)
			}
			if p.MaxChoices != 1 {
				t.Errorf("Expected maxChoices 1, got %d", p.MaxChoices)
			}
			if len(p.Candidates) != tt.candidates {
				t.Fatalf("Expected %d placeholder candidates, got %d", tt.candidates, len(p.Candidates))
			}
			for _, c := range p.Candidates {
				if !c.ID.IsLocal() {
					t.Errorf("Expected local candidate id, got %s", c.ID)
				}
			}
			if len(s.Ballot().Positions) != 2 {
				t.Errorf("Expected 2 positions, got %d", len(s.Ballot().Positions))
			}
		})
	}
}

func TestRemovePositionLastFails(t *testing.T) {
	s := newTestStore(AdminCreate)
	p := seeded(s)
	before := s.Ballot()

	_, err := s.RemovePosition(p.ID)

	var cv *ConstraintViolation
	if !errors.As(err, &cv) {
		t.Fatalf("Expected ConstraintViolation, got %v", err)
	}
	if cv.Rule != RuleMinPositions {
		t.Errorf("Expected rule %s, got %s", RuleMinPositions, cv.Rule)
	}
	if s.Ballot() != before {
		t.Error("Expected tree to be unchanged")
	}
}

func TestRemovePosition(t *testing.T) {
	s := newTestStore(AdminCreate)
	first := seeded(s)
	second := s.AddPosition()

	removed, err := s.RemovePosition(first.ID)
	if err != nil {
		t.Fatalf("RemovePosition failed: %v", err)
	}
	if removed != first {
		t.Error("Expected the removed position to be returned")
	}
	positions := s.Ballot().Positions
	if len(positions) != 1 || positions[0] != second {
		t.Errorf("Expected only the second position to remain, got %v", positions)
	}

	if _, err := s.RemovePosition(Local("missing")); !errors.Is(err, ErrPositionNotFound) {
		t.Errorf("Expected ErrPositionNotFound, got %v", err)
	}
}

func TestRemoveCandidateMinimum(t *testing.T) {
	tests := []struct {
		name    string
		policy  WorkflowPolicy
		extra   int
		wantErr bool
	}{
		{"admin at minimum", AdminCreate, 0, true},
		{"admin above minimum", AdminCreate, 1, false},
		{"superadmin at minimum", SuperadminEdit, 0, true},
		{"superadmin above minimum", SuperadminEdit, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(tt.policy)
			p := seeded(s)
			for range tt.extra {
				if _, err := s.AddCandidate(p.ID); err != nil {
					t.Fatalf("AddCandidate failed: %v", err)
				}
			}
			p, _ = s.Ballot().FindPosition(p.ID)
			count := len(p.Candidates)
			before := s.Ballot()

			_, err := s.RemoveCandidate(p.ID, p.Candidates[0].ID)

			if tt.wantErr {
				var cv *ConstraintViolation
				if !errors.As(err, &cv) || cv.Rule != RuleMinCandidates {
					t.Fatalf("Expected min-candidates violation, got %v", err)
				}
				if s.Ballot() != before {
					t.Error("Expected tree to be unchanged")
				}
				return
			}
			if err != nil {
				t.Fatalf("RemoveCandidate failed: %v", err)
			}
			after, _ := s.Ballot().FindPosition(p.ID)
			if len(after.Candidates) != count-1 {
				t.Errorf("Expected %d candidates, got %d", count-1, len(after.Candidates))
			}
		})
	}
}

func TestRemoveCandidateReinsertsPlaceholder(t *testing.T) {
	policy := WorkflowPolicy{Name: "open", MinCandidatesPerPosition: 0, PlaceholderCandidates: 1}
	s := newTestStore(policy)
	p := seeded(s)
	only := p.Candidates[0]

	if _, err := s.RemoveCandidate(p.ID, only.ID); err != nil {
		t.Fatalf("RemoveCandidate failed: %v", err)
	}

	after, _ := s.Ballot().FindPosition(p.ID)
	if len(after.Candidates) != 1 {
		t.Fatalf("Expected a placeholder candidate, got %d candidates", len(after.Candidates))
	}
	if after.Candidates[0].ID == only.ID {
		t.Error("Expected a fresh placeholder, got the removed candidate")
	}
}

func TestStructuralSharing(t *testing.T) {
	s := newTestStore(AdminCreate)
	p1 := seeded(s)
	p2 := s.AddPosition()
	before := s.Ballot()
	untouched := p1.Candidates[1]

	if err := s.UpdateCandidateField(p1.ID, p1.Candidates[0].ID, FieldFirstName, "Ana"); err != nil {
		t.Fatalf("UpdateCandidateField failed: %v", err)
	}
	after := s.Ballot()

	if after == before {
		t.Fatal("Expected a new root")
	}
	if after.Positions[1] != p2 {
		t.Error("Expected untouched position to keep its pointer")
	}
	if after.Positions[0] == p1 {
		t.Error("Expected edited position to be copied")
	}
	if after.Positions[0].Candidates[1] != untouched {
		t.Error("Expected untouched candidate to keep its pointer")
	}
	if p1.Candidates[0].FirstName != "" {
		t.Error("Expected previous tree to be unchanged")
	}
	if after.Positions[0].Candidates[0].FirstName != "Ana" {
		t.Errorf("Expected first name Ana, got %q", after.Positions[0].Candidates[0].FirstName)
	}
}

func TestUpdatePositionField(t *testing.T) {
	s := newTestStore(SuperadminEdit)
	p := seeded(s)

	tests := []struct {
		name    string
		field   PositionField
		value   string
		wantErr error
	}{
		{"name", FieldName, "Treasurer", nil},
		{"max choices", FieldMaxChoices, "2", nil},
		{"max choices zero", FieldMaxChoices, "0", ErrInvalidValue},
		{"max choices text", FieldMaxChoices, "two", ErrInvalidValue},
		{"unknown field", PositionField("color"), "red", ErrUnknownField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.UpdatePositionField(p.ID, tt.field, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	got, _ := s.Ballot().FindPosition(p.ID)
	if got.Name != "Treasurer" || got.MaxChoices != 2 {
		t.Errorf("Expected Treasurer/2, got %s/%d", got.Name, got.MaxChoices)
	}
}

func TestParseFields(t *testing.T) {
	tests := []struct {
		in   string
		want CandidateField
	}{
		{"firstName", FieldFirstName},
		{"first_name", FieldFirstName},
		{"last_name", FieldLastName},
		{"bio", FieldPlatform},
		{"image_url", FieldImageURL},
	}
	for _, tt := range tests {
		got, err := ParseCandidateField(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseCandidateField(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}

	if f, err := ParsePositionField("max_choices"); err != nil || f != FieldMaxChoices {
		t.Errorf("ParsePositionField(max_choices) = %q, %v", f, err)
	}
	if _, err := ParseCandidateField("age"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("Expected ErrUnknownField, got %v", err)
	}
}

func TestScenarioAdminNewBallot(t *testing.T) {
	s := newTestStore(AdminCreate)
	s.SetDescription("General election")

	p := seeded(s)
	if p.ID != Local("p1") {
		t.Fatalf("Expected position local:p1, got %s", p.ID)
	}
	c1, c2 := p.Candidates[0].ID, p.Candidates[1].ID

	mustNot := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	mustNot(s.UpdatePositionField(p.ID, FieldName, "President"))
	mustNot(s.UpdateCandidateField(p.ID, c1, FieldFirstName, "Ana"))
	mustNot(s.UpdateCandidateField(p.ID, c1, FieldLastName, "Cruz"))

	errs := Validate(s.Ballot(), s.Policy())

	if len(errs) != 1 {
		t.Fatalf("Expected exactly one error, got %v", errs)
	}
	if _, ok := errs[CandidateKey(p.ID, c2, "name")]; !ok {
		t.Errorf("Expected error on second candidate, got %v", errs)
	}
	if len(errs.Under(CandidateKey(p.ID, c1, ""))) != 0 {
		t.Error("Expected no errors on first candidate")
	}
	if _, ok := errs[PositionKey(p.ID, "name")]; ok {
		t.Error("Expected no error on position name")
	}
}
