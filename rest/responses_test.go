// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rest

import "testing"

func TestExtractMessage(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"json message", 400, `{"error":"Bad Request","message":"name is required"}`, "name is required"},
		{"json error only", 500, `{"error":"database unavailable"}`, "database unavailable"},
		{"scraped from html", 502, `<pre>upstream said "message": "gateway down"</pre>`, "gateway down"},
		{"scraped escaped quote", 400, `oops message="bad \"name\""`, `bad "name"`},
		{"generic", 503, `<html></html>`, "request failed with status 503 (Service Unavailable)"},
		{"unknown status", 599, ``, "request failed with status 599"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractMessage(tt.status, []byte(tt.body)); got != tt.want {
				t.Errorf("extractMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResponseOK(t *testing.T) {
	tests := map[int]bool{
		101: false,
		200: true,
		201: true,
		204: true,
		299: true,
		304: false,
		400: false,
		503: false,
	}
	for code, want := range tests {
		if got := (&response{status: code}).ok(); got != want {
			t.Errorf("ok() for %d = %v, want %v", code, got, want)
		}
	}
}

func TestStatusErrorMessage(t *testing.T) {
	err := statusError("update ballot", &response{status: 409, body: []byte(`{"error":"Conflict","message":"ballot already exists"}`)})
	want := "update ballot: ballot already exists (status code = 409)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
