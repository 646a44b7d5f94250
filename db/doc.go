// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections and schema creation for the
reference ballot API.

# Connections

Open accepts "sqlite" (modernc.org/sqlite, pure Go) or "postgres" (lib/pq):

	conn, err := db.Open(db.TypeSQLite, "file:ballotdesk.db")

SQLite connections get foreign keys enabled and a single open connection.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn, db.TypeSQLite); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The primary key column type is the only dialect difference.

# Relationships

	election 1──1 ballot
	ballot 1──* ballot_position
	ballot_position 1──* ballot_candidate
	election 1──* vote *──1 ballot_candidate

All foreign keys use ON DELETE CASCADE.
*/
package db
