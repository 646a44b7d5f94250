// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielhkuo/ballotdesk/middleware"
)

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// requestError carries a client-facing status out of a transaction
type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string { return e.message }

func badRequest(msg string) error { return &requestError{status: http.StatusBadRequest, message: msg} }

func notFound(msg string) error { return &requestError{status: http.StatusNotFound, message: msg} }

// writeError answers with the status of a requestError, or 500 for
// anything else
func writeError(w http.ResponseWriter, err error, fallback string) {
	var re *requestError
	if errors.As(err, &re) {
		middleware.ErrorResponse(w, re.status, re.message)
		return
	}
	slog.Error(fallback, "error", err)
	middleware.ErrorResponse(w, http.StatusInternalServerError, fallback)
}

// pathID parses a positive integer path parameter
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
