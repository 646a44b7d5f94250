// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Database types
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Open connects to the database and verifies the connection.
// SQLite connections are limited to a single writer.
func Open(dbType, url string) (*sql.DB, error) {
	switch dbType {
	case TypeSQLite, TypePostgres:
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	if dbType == TypeSQLite && !strings.Contains(url, "_pragma=foreign_keys") {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + "_pragma=foreign_keys(1)"
	}

	conn, err := sql.Open(dbType, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbType == TypeSQLite {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return conn, nil
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB, dbType string) error {
	pk := "BIGSERIAL PRIMARY KEY"
	if dbType == TypeSQLite {
		pk = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	_, err := db.Exec(strings.ReplaceAll(schema, "{{pk}}", pk))
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Elections
CREATE TABLE IF NOT EXISTS election (
    id {{pk}},
    title TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'open', 'closed')),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Ballots (one per election)
CREATE TABLE IF NOT EXISTS ballot (
    id {{pk}},
    election_id BIGINT NOT NULL UNIQUE REFERENCES election(id) ON DELETE CASCADE,
    description TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Positions
CREATE TABLE IF NOT EXISTS ballot_position (
    id {{pk}},
    ballot_id BIGINT NOT NULL REFERENCES ballot(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    max_choices INTEGER NOT NULL DEFAULT 1 CHECK (max_choices >= 1),
    sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_ballot_position_ballot_id ON ballot_position(ballot_id);

-- Candidates
CREATE TABLE IF NOT EXISTS ballot_candidate (
    id {{pk}},
    position_id BIGINT NOT NULL REFERENCES ballot_position(id) ON DELETE CASCADE,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    party TEXT NOT NULL DEFAULT '',
    slogan TEXT NOT NULL DEFAULT '',
    platform TEXT NOT NULL DEFAULT '',
    image_url TEXT NOT NULL DEFAULT '',
    sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_ballot_candidate_position_id ON ballot_candidate(position_id);

-- Votes
CREATE TABLE IF NOT EXISTS vote (
    id {{pk}},
    election_id BIGINT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    candidate_id BIGINT NOT NULL REFERENCES ballot_candidate(id) ON DELETE CASCADE,
    cast_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_vote_candidate_id ON vote(candidate_id);
CREATE INDEX IF NOT EXISTS idx_vote_election_id ON vote(election_id);
`
