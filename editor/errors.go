// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package editor

import (
	"errors"
	"fmt"
)

var (
	ErrPositionNotFound  = errors.New("position not found")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrUnknownField      = errors.New("unknown field")
	ErrInvalidValue      = errors.New("invalid value")
)

// ConstraintViolation is returned when a local edit would break a
// minimum-count rule. The tree is left unchanged.
type ConstraintViolation struct {
	Rule    string
	Message string
}

func (e *ConstraintViolation) Error() string {
	return e.Message
}

const (
	RuleMinPositions  = "min-positions"
	RuleMinCandidates = "min-candidates"
)

func minPositionsViolation() *ConstraintViolation {
	return &ConstraintViolation{
		Rule:    RuleMinPositions,
		Message: "a ballot must have at least one position",
	}
}

func minCandidatesViolation(min int) *ConstraintViolation {
	noun := "candidates"
	if min == 1 {
		noun = "candidate"
	}
	return &ConstraintViolation{
		Rule:    RuleMinCandidates,
		Message: fmt.Sprintf("a position must have at least %d %s", min, noun),
	}
}

// ImageError is a client-side rejection of a selected image
type ImageError struct {
	Reason string
}

func (e *ImageError) Error() string {
	return e.Reason
}
