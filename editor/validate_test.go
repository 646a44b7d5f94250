// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package editor

import (
	"strings"
	"testing"
)

func TestValidateCollectsAllErrors(t *testing.T) {
	b := &Ballot{
		ID: Local("b1"),
		Positions: []*Position{{
			ID:         Local("p1"),
			MaxChoices: 1,
			Candidates: []*Candidate{{ID: Local("c1"), LastName: "Cruz"}},
		}},
	}

	errs := Validate(b, SuperadminEdit)

	want := []string{
		KeyDescription,
		PositionKey(Local("p1"), "name"),
		CandidateKey(Local("p1"), Local("c1"), "name"),
	}
	if len(errs) < len(want) {
		t.Fatalf("Expected at least %d errors, got %v", len(want), errs)
	}
	for _, k := range want {
		if _, ok := errs[k]; !ok {
			t.Errorf("Expected error for %s", k)
		}
	}
	if msg := errs[CandidateKey(Local("p1"), Local("c1"), "name")]; msg != "first name is required" {
		t.Errorf("Unexpected message %q", msg)
	}
}

func TestValidateCandidateMinimum(t *testing.T) {
	b := &Ballot{
		Description: "Council",
		Positions: []*Position{{
			ID:         Persisted(3),
			Name:       "Mayor",
			Candidates: []*Candidate{{ID: Persisted(9), FirstName: "Ana", LastName: "Cruz"}},
		}},
	}

	tests := []struct {
		name   string
		policy WorkflowPolicy
		want   int
	}{
		{"admin enforces minimum", AdminCreate, 1},
		{"superadmin does not", SuperadminEdit, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(b, tt.policy)
			if len(errs) != tt.want {
				t.Errorf("Expected %d errors, got %v", tt.want, errs)
			}
			if tt.want > 0 {
				if _, ok := errs["positions.3.candidates"]; !ok {
					t.Errorf("Expected positions.3.candidates error, got %v", errs)
				}
			}
		})
	}
}

func TestValidateWhitespaceIsEmpty(t *testing.T) {
	b := &Ballot{Description: "   \t"}
	if _, ok := Validate(b, SuperadminEdit)[KeyDescription]; !ok {
		t.Error("Expected whitespace description to fail")
	}
}

func TestFieldErrorsErr(t *testing.T) {
	if err := (FieldErrors{}).Err(); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
	errs := FieldErrors{"b": "two", "a": "one"}
	if got := errs.Err().Error(); got != "a: one; b: two" {
		t.Errorf("Unexpected error text %q", got)
	}
	if !strings.HasPrefix(errs.Keys()[0], "a") {
		t.Error("Expected sorted keys")
	}
}

func TestValidateRequiresPosition(t *testing.T) {
	b := &Ballot{ID: Persisted(5), Description: "General", Positions: []*Position{}}

	errs := Validate(b, SuperadminEdit)

	if len(errs) != 1 {
		t.Fatalf("Expected exactly one error, got %v", errs)
	}
	if msg := errs[KeyPositions]; msg != "at least one position is required" {
		t.Errorf("Unexpected message %q", msg)
	}
}

func TestFieldErrorsRekey(t *testing.T) {
	b := &Ballot{
		Positions: []*Position{{
			ID:         Persisted(10),
			Candidates: []*Candidate{{ID: Persisted(20)}, {ID: Persisted(21)}},
		}},
	}
	errs := FieldErrors{
		KeyDescription:                                  "description is required",
		CandidateImageKey(Local("p1"), Local("c1")):     "image upload failed",
		PositionKey(Local("p1"), "name"):                "position name is required",
		CandidateImageKey(Persisted(10), Persisted(21)): "too large",
		CandidateImageKey(Persisted(10), Local("c9")):   "gone",
		CandidateKey(Local("p7"), Local("c7"), "name"):  "gone",
	}
	ids := map[Identity]Identity{
		Local("p1"): Persisted(10),
		Local("c1"): Persisted(20),
	}

	got := errs.Rekey(ids, b)

	want := FieldErrors{
		KeyDescription:                                  "description is required",
		CandidateImageKey(Persisted(10), Persisted(20)): "image upload failed",
		PositionKey(Persisted(10), "name"):              "position name is required",
		CandidateImageKey(Persisted(10), Persisted(21)): "too large",
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Expected %s = %q, got %q", k, v, got[k])
		}
	}
}
