// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the reference ballot API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - ElectionHandler: election creation and metadata
  - BallotHandler: ballot trees, positions, candidates and photo uploads
  - ResultsHandler: live vote counts and vote casting
  - TokenHandler: development session tokens
  - UploadsHandler: photos kept by the disk image store

	ballotHandler := handlers.NewBallotHandler(db, cfg, images)

# Ballot Trees

POST /ballots inserts a ballot with its positions and candidates.
PUT /ballots/{ballotId} makes the stored tree match the payload in one
transaction: entities with an id are updated and must belong to the
ballot, entities without one are inserted, and the rest are deleted.

# Candidates and Photos

Candidate writes accept JSON or a multipart form whose "image" part is
checked with editor.CheckImage, normalized by imagestore.Normalize and
written to the configured imagestore.Store.

# Create Quirk

With EmulateCreateQuirk set, ballot and candidate creation answer 400
while still returning the created resource, as some deployments do.

# Error Responses

All errors return JSON:

	{"error": "Not Found", "message": "ballot not found"}
*/
package handlers
