// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the request, response, and domain types exchanged
with the ballot API.

# Ballot Tree

The ballot is exchanged as one nested document:

  - BallotPayload: id, election_id, description, positions
  - PositionPayload: id, name, max_choices, candidates
  - CandidatePayload: id, first_name, last_name, party, slogan, platform, image_url

A missing id tells the server the entity is new. Entities that carry an id
are updated in place; entities left out of a full ballot update are deleted.

# Request Types

  - CreateElectionRequest: title, status
  - UpdateDescriptionRequest: description
  - PositionUpdate: changed fields only (name, max_choices)
  - CastVoteRequest: candidate_ids
  - TokenRequest: subject, role

# Response Types

Write endpoints wrap the affected entity with an optional message:

  - BallotResponse: message, ballot
  - PositionResponse: message, position
  - CandidateResponse: message, candidate
  - UploadImageResponse: success, filePath
  - AckResponse: success, message
  - ErrorResponse: error, message

# Results

  - ElectionResults: per-position vote counts for live display

# Constants

Status values:

	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"

Token roles:

	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
*/
package models
