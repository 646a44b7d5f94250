// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions for the
reference ballot server.

# Request Logging

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs one line per answered request (method, path, remote, status, bytes,
duration_ms); 5xx answers are logged at error level.

# Authentication

Protected routes require a session token issued by package auth:

	mux.HandleFunc("PUT /ballots/{ballotId}", middleware.RequireBearer(secret, h.UpdateBallot))

Handlers read the caller with ClaimsFromContext.

# Metrics

	m := middleware.NewMetrics(prometheus.NewRegistry())
	mux.HandleFunc(pattern, m.Instrument(pattern, handler))
	mux.Handle("GET /metrics", m.Handler())

Counts requests by route pattern and status code and records latency.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# CORS and Client IP

	handler := middleware.CORS(cfg.CORSOrigins)(mux)

An empty origin list allows every origin. GetClientIP honors
X-Forwarded-For and X-Real-IP.
*/
package middleware
