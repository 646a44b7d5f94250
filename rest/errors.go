// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rest

import (
	"errors"
	"fmt"

	"github.com/danielhkuo/ballotdesk/auth"
)

var (
	// ErrNoToken is returned before any request when no session token is stored
	ErrNoToken = auth.ErrNoToken

	ErrMissingParam   = errors.New("missing required parameter")
	ErrBallotNotFound = errors.New("ballot not found")
	ErrRequestTimeout = errors.New("request timeout")
	ErrInvalidAPIRoot = errors.New("invalid api root")
)

// TransportError means the request never produced a response.
// Retrying it is safe.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a non-success response from the server
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s (status code = %d)", e.Op, e.Message, e.StatusCode)
}

// MalformedResponseError is a success status with a body that could not be read
type MalformedResponseError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: unexpected response: %v (status code = %d)", e.Op, e.Err, e.StatusCode)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// QualifiedSuccess is the warning attached to a create call that answered
// with a failure status but still returned the created resource
type QualifiedSuccess struct {
	Op         string
	StatusCode int
	Message    string
}

func (w *QualifiedSuccess) Error() string {
	return fmt.Sprintf("%s: created with warning: %s (status code = %d)", w.Op, w.Message, w.StatusCode)
}

// Retryable reports whether err is a transport failure
func Retryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
