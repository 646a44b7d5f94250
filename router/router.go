// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/ballotdesk/cliparse"
	"github.com/danielhkuo/ballotdesk/handlers"
	"github.com/danielhkuo/ballotdesk/imagestore"
	"github.com/danielhkuo/ballotdesk/middleware"
)

type routes struct {
	mux     *http.ServeMux
	secret  string
	metrics *middleware.Metrics
}

func (rt *routes) handle(pattern string, h http.HandlerFunc, protected bool) {
	if protected {
		h = middleware.RequireBearer(rt.secret, h)
	}
	h = middleware.WithLogging(h)
	if rt.metrics != nil {
		h = rt.metrics.Instrument(pattern, h)
	}
	rt.mux.HandleFunc(pattern, h)
}

func (rt *routes) public(pattern string, h http.HandlerFunc)    { rt.handle(pattern, h, false) }
func (rt *routes) protected(pattern string, h http.HandlerFunc) { rt.handle(pattern, h, true) }

// NewRouter wires the ballot API. metrics may be nil. When images is a
// Disk store its files are served under /uploads.
func NewRouter(db *sql.DB, cfg cliparse.Config, images imagestore.Store, metrics *middleware.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	rt := &routes{mux: mux, secret: cfg.TokenSecret, metrics: metrics}

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(db, cfg)
	ballotHandler := handlers.NewBallotHandler(db, cfg, images)
	resultsHandler := handlers.NewResultsHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	if metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	// Elections
	rt.protected("POST /elections", electionHandler.CreateElection)
	rt.public("GET /elections/{electionId}", electionHandler.GetElection)
	rt.public("GET /elections/{electionId}/details", electionHandler.GetElectionDetails)
	rt.protected("GET /elections/{electionId}/ballot", ballotHandler.GetBallotByElection)

	// Ballot composition
	rt.protected("POST /ballots", ballotHandler.CreateBallot)
	rt.protected("PUT /ballots/{ballotId}", ballotHandler.UpdateBallot)
	rt.protected("PUT /ballots/{first}/{second}", ballotPut(ballotHandler))
	rt.protected("POST /ballots/{ballotId}/positions", ballotHandler.CreatePosition)
	rt.protected("DELETE /ballots/positions/{positionId}", ballotHandler.DeletePosition)
	rt.protected("POST /ballots/positions/{positionId}/candidates", ballotHandler.CreateCandidate)
	rt.protected("DELETE /ballots/candidates/{candidateId}", ballotHandler.DeleteCandidate)
	rt.protected("POST /ballots/candidates/upload-image", ballotHandler.UploadImage)

	// Live results and voting
	rt.public("GET /elections/{electionId}/results", resultsHandler.GetResults)
	rt.public("POST /elections/{electionId}/votes", resultsHandler.CastVote)

	if disk, ok := images.(*imagestore.Disk); ok {
		rt.public("GET /uploads/{name}", handlers.NewUploadsHandler(disk).ServeUpload)
	}

	if cfg.DevTokens {
		rt.public("POST /auth/token", handlers.NewTokenHandler(cfg).IssueToken)
	}

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ballotdesk API v1"))
	})

	return mux
}

// ballotPut routes the three-segment PUT paths, which share one pattern
// because /ballots/{ballotId}/description overlaps /ballots/positions/{id}
func ballotPut(h *handlers.BallotHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		first, second := r.PathValue("first"), r.PathValue("second")
		switch {
		case first == "positions":
			r.SetPathValue("positionId", second)
			h.UpdatePosition(w, r)
		case first == "candidates":
			r.SetPathValue("candidateId", second)
			h.UpdateCandidate(w, r)
		case second == "description":
			r.SetPathValue("ballotId", first)
			h.UpdateDescription(w, r)
		default:
			middleware.ErrorResponse(w, http.StatusNotFound, "Not found")
		}
	}
}
