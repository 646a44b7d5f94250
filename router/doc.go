// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the reference ballot API.

# Route Registration

	mux := router.NewRouter(db, cfg, images, metrics)

metrics may be nil. Every route is wrapped with request logging and, when
metrics is set, request instrumentation.

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Elections:

	POST /elections                      - Create election (auth)
	GET  /elections/{electionId}         - Election metadata
	GET  /elections/{electionId}/details - Metadata and counts
	GET  /elections/{electionId}/ballot  - Ballot tree, 404 "ballot not found" if none (auth)

Ballot composition (all require a bearer token):

	POST   /ballots                                  - Create ballot tree
	PUT    /ballots/{ballotId}                       - Replace ballot tree
	PUT    /ballots/{ballotId}/description           - Update description
	POST   /ballots/{ballotId}/positions             - Create position
	PUT    /ballots/positions/{positionId}           - Update position fields
	DELETE /ballots/positions/{positionId}           - Delete position
	POST   /ballots/positions/{positionId}/candidates - Create candidate
	PUT    /ballots/candidates/{candidateId}         - Update candidate
	DELETE /ballots/candidates/{candidateId}         - Delete candidate
	POST   /ballots/candidates/upload-image          - Upload a photo

The three-segment PUT paths overlap under ServeMux rules, so they share
one pattern and are dispatched by ballotPut.

Results and voting:

	GET  /elections/{electionId}/results
	POST /elections/{electionId}/votes

Development:

	POST /auth/token  - Issue a session token (only with DevTokens)
	GET  /uploads/{name} - Photos kept by the disk image store
*/
package router
