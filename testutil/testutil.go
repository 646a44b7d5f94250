// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/ballotdesk/auth"
	"github.com/danielhkuo/ballotdesk/cliparse"
	"github.com/danielhkuo/ballotdesk/db"
	"github.com/danielhkuo/ballotdesk/models"
)

// TestTokenSecret signs tokens in tests
const TestTokenSecret = "test-token-secret"

// SetupTestDB creates a fresh SQLite database with the full schema in a
// temporary directory. It is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, "file:"+filepath.Join(t.TempDir(), "ballotdesk.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.CreateSchema(conn, db.TypeSQLite); err != nil {
		conn.Close()
		t.Fatalf("Failed to create schema: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	cfg := cliparse.Defaults()
	cfg.DatabaseType = db.TypeSQLite
	cfg.TokenSecret = TestTokenSecret
	cfg.TokenTTL = time.Hour
	cfg.DevTokens = true
	cfg.TokenFile = ""
	return cfg
}

// IssueTestToken signs an admin token with the test secret
func IssueTestToken(t *testing.T) string {
	t.Helper()
	token, _, err := auth.IssueToken(TestTokenSecret, "admin@example.com", models.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return token
}

// AuthHeader builds the Authorization header for MakeRequest
func AuthHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// CreateTestElection inserts an election and returns its id.
// status should be "draft", "open", or "closed"
func CreateTestElection(t *testing.T, conn *sql.DB, status string) int64 {
	t.Helper()

	var id int64
	err := conn.QueryRow(`
		INSERT INTO election (title, status, created_at)
		VALUES ('Test Election', $1, $2)
		RETURNING id
	`, status, time.Now().UTC()).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}
	return id
}

// TestBallot identifies the rows written by CreateTestBallot
type TestBallot struct {
	BallotID     int64
	PositionID   int64
	CandidateIDs []int64
}

// CreateTestBallot inserts a ballot with one single-choice position and
// the named candidates
func CreateTestBallot(t *testing.T, conn *sql.DB, electionID int64, candidates ...string) TestBallot {
	t.Helper()

	var tb TestBallot
	err := conn.QueryRow(`
		INSERT INTO ballot (election_id, description, updated_at)
		VALUES ($1, 'Test Ballot', $2)
		RETURNING id
	`, electionID, time.Now().UTC()).Scan(&tb.BallotID)
	if err != nil {
		t.Fatalf("Failed to create test ballot: %v", err)
	}

	err = conn.QueryRow(`
		INSERT INTO ballot_position (ballot_id, name, max_choices, sort_order)
		VALUES ($1, 'President', 1, 0)
		RETURNING id
	`, tb.BallotID).Scan(&tb.PositionID)
	if err != nil {
		t.Fatalf("Failed to create test position: %v", err)
	}

	for i, last := range candidates {
		var id int64
		err := conn.QueryRow(`
			INSERT INTO ballot_candidate (position_id, first_name, last_name, sort_order)
			VALUES ($1, 'Test', $2, $3)
			RETURNING id
		`, tb.PositionID, last, i).Scan(&id)
		if err != nil {
			t.Fatalf("Failed to create test candidate: %v", err)
		}
		tb.CandidateIDs = append(tb.CandidateIDs, id)
	}

	return tb
}

// PNG returns an encoded w by h image
func PNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		img.Set(x, h/2, color.NRGBA{B: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// MakeMultipartRequest creates a multipart test request with text fields
// and an optional file under fileField
func MakeMultipartRequest(t *testing.T, method, path string, fields map[string]string, fileField, contentType string, data []byte, headers map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write field: %v", err)
		}
	}
	if fileField != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+fileField+`"; filename="photo"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("Failed to create part: %v", err)
		}
		part.Write(data)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
