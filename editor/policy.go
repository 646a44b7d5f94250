// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package editor

import "fmt"

// SyncMode selects how edits reach the backend
type SyncMode int

const (
	// SyncEager sends each field change on a persisted entity immediately
	SyncEager SyncMode = iota
	// SyncDeferred keeps edits in memory until an explicit save
	SyncDeferred
)

func (m SyncMode) String() string {
	if m == SyncEager {
		return "eager"
	}
	return "deferred"
}

// WorkflowPolicy parameterizes the store and validation for one editor flow
type WorkflowPolicy struct {
	Name string
	// MinCandidatesPerPosition blocks removals below this count
	MinCandidatesPerPosition int
	// PlaceholderCandidates is how many empty candidates a new position gets
	PlaceholderCandidates int
	// EnforceCandidateMinimum makes the minimum a validation rule too
	EnforceCandidateMinimum bool
	SyncMode                SyncMode
}

var (
	// AdminCreate is the admin ballot-creation flow
	AdminCreate = WorkflowPolicy{
		Name:                     "admin",
		MinCandidatesPerPosition: 2,
		PlaceholderCandidates:    2,
		EnforceCandidateMinimum:  true,
		SyncMode:                 SyncEager,
	}

	// SuperadminEdit is the superadmin ballot-edit flow
	SuperadminEdit = WorkflowPolicy{
		Name:                     "superadmin",
		MinCandidatesPerPosition: 1,
		PlaceholderCandidates:    1,
		EnforceCandidateMinimum:  false,
		SyncMode:                 SyncDeferred,
	}
)

// PolicyByName looks up a workflow preset
func PolicyByName(name string) (WorkflowPolicy, error) {
	switch name {
	case AdminCreate.Name:
		return AdminCreate, nil
	case SuperadminEdit.Name:
		return SuperadminEdit, nil
	}
	return WorkflowPolicy{}, fmt.Errorf("unknown workflow %q", name)
}
