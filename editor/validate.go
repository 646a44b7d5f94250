// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package editor

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// FieldErrors maps a field path to its message
type FieldErrors map[string]string

const (
	KeyDescription = "description"
	KeyPositions   = "positions"
)

// PositionKey names a field of a position, e.g. positions.12.name
func PositionKey(posID Identity, field string) string {
	return "positions." + posID.String() + "." + field
}

// CandidateKey names a field of a candidate
func CandidateKey(posID, candID Identity, field string) string {
	return PositionKey(posID, "candidates") + "." + candID.String() + "." + field
}

// CandidateImageKey is where image selection and upload errors are reported
func CandidateImageKey(posID, candID Identity) string {
	return CandidateKey(posID, candID, "image")
}

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, k := range e.Keys() {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

// Err returns nil when there are no errors
func (e FieldErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Keys returns the field paths in sorted order
func (e FieldErrors) Keys() []string {
	return slices.Sorted(maps.Keys(e))
}

// Under returns the errors whose key starts with prefix
func (e FieldErrors) Under(prefix string) FieldErrors {
	out := FieldErrors{}
	for k, v := range e {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out
}

// Rekey moves position and candidate keys to the identities in ids and
// drops keys naming an entity that is not in b. Other keys are kept.
func (e FieldErrors) Rekey(ids map[Identity]Identity, b *Ballot) FieldErrors {
	rename := make(map[string]string, len(ids))
	for from, to := range ids {
		rename[from.String()] = to.String()
	}
	renamed := func(id string) string {
		if to, ok := rename[id]; ok {
			return to
		}
		return id
	}

	present := map[string]bool{}
	for _, p := range b.Positions {
		present[p.ID.String()] = true
		for _, c := range p.Candidates {
			present[p.ID.String()+"/"+c.ID.String()] = true
		}
	}

	out := FieldErrors{}
	for k, v := range e {
		parts := strings.Split(k, ".")
		if len(parts) < 3 || parts[0] != KeyPositions {
			out[k] = v
			continue
		}
		parts[1] = renamed(parts[1])
		if !present[parts[1]] {
			continue
		}
		if len(parts) >= 5 && parts[2] == "candidates" {
			parts[3] = renamed(parts[3])
			if !present[parts[1]+"/"+parts[3]] {
				continue
			}
		}
		out[strings.Join(parts, ".")] = v
	}
	return out
}

// Validate runs every rule over the tree and collects all failures
func Validate(b *Ballot, policy WorkflowPolicy) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(b.Description) == "" {
		errs[KeyDescription] = "description is required"
	}

	if len(b.Positions) == 0 {
		errs[KeyPositions] = "at least one position is required"
	}

	for _, p := range b.Positions {
		if strings.TrimSpace(p.Name) == "" {
			errs[PositionKey(p.ID, "name")] = "position name is required"
		}

		if policy.EnforceCandidateMinimum && len(p.Candidates) < policy.MinCandidatesPerPosition {
			errs[PositionKey(p.ID, "candidates")] = fmt.Sprintf(
				"at least %d candidates are required", policy.MinCandidatesPerPosition)
		}

		for _, c := range p.Candidates {
			if msg := nameError(c); msg != "" {
				errs[CandidateKey(p.ID, c.ID, "name")] = msg
			}
		}
	}

	return errs
}

func nameError(c *Candidate) string {
	first := strings.TrimSpace(c.FirstName) == ""
	last := strings.TrimSpace(c.LastName) == ""
	switch {
	case first && last:
		return "first and last name are required"
	case first:
		return "first name is required"
	case last:
		return "last name is required"
	}
	return ""
}
