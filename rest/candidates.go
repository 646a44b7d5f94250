// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"

	"github.com/danielhkuo/ballotdesk/editor"
	"github.com/danielhkuo/ballotdesk/models"
)

// ImageField is the multipart field carrying an image file
const ImageField = "image"

// candidateForm encodes candidate fields and an optional image as multipart
func candidateForm(cp models.CandidatePayload, image *editor.ImageFile) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"first_name", cp.FirstName},
		{"last_name", cp.LastName},
		{"party", cp.Party},
		{"slogan", cp.Slogan},
		{"platform", cp.Platform},
		{"image_url", cp.ImageURL},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	if image != nil {
		if err := writeImagePart(w, *image); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func writeImagePart(w *multipart.Writer, f editor.ImageFile) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, ImageField, filepath.Base(f.Name)))
	h.Set("Content-Type", f.DetectContentType())
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(f.Data)
	return err
}

func candidateBody(cp models.CandidatePayload, image *editor.ImageFile) (io.Reader, string, error) {
	if image != nil {
		return candidateForm(cp, image)
	}
	cp.ID = nil
	body, err := jsonBody(cp)
	return body, "application/json", err
}

// CreateCandidate adds a candidate to a position. With an image the
// request is multipart, otherwise JSON. The returned candidate may be nil
// or incomplete when the server omits it; a non-nil warning means the
// server answered 400 but still created the candidate.
func (c *Client) CreateCandidate(ctx context.Context, positionID int64, cp models.CandidatePayload, image *editor.ImageFile) (*models.CandidatePayload, *QualifiedSuccess, error) {
	const op = "create candidate"
	if err := requireID("position id", positionID); err != nil {
		return nil, nil, err
	}
	body, contentType, err := candidateBody(cp, image)
	if err != nil {
		return nil, nil, err
	}
	r, err := c.do(ctx, call{
		op:          op,
		method:      http.MethodPost,
		path:        []string{"ballots", "positions", idPath(positionID), "candidates"},
		body:        body,
		contentType: contentType,
	})
	if err != nil {
		return nil, nil, err
	}

	if c.ambiguous == AcceptCreated && r.status == http.StatusBadRequest {
		if cr, err := jsonUnmarshal[models.CandidateResponse](r.body); err == nil && cr.Candidate != nil && cr.Candidate.ID != nil {
			w := &QualifiedSuccess{Op: op, StatusCode: r.status, Message: extractMessage(r.status, r.body)}
			slog.Warn("candidate created despite error status",
				"candidate_id", *cr.Candidate.ID,
				"position_id", positionID,
				"status", r.status,
				"message", w.Message,
			)
			return cr.Candidate, w, nil
		}
	}

	cr, err := decode[models.CandidateResponse](op, r)
	if err != nil {
		return nil, nil, err
	}
	return cr.Candidate, nil, nil
}

// UpdateCandidate sends the candidate's fields, plus a pending image if any
func (c *Client) UpdateCandidate(ctx context.Context, candidateID int64, cp models.CandidatePayload, image *editor.ImageFile) (*models.CandidatePayload, error) {
	const op = "update candidate"
	if err := requireID("candidate id", candidateID); err != nil {
		return nil, err
	}
	body, contentType, err := candidateBody(cp, image)
	if err != nil {
		return nil, err
	}
	r, err := c.do(ctx, call{
		op:          op,
		method:      http.MethodPut,
		path:        []string{"ballots", "candidates", idPath(candidateID)},
		body:        body,
		contentType: contentType,
	})
	if err != nil {
		return nil, err
	}
	if !r.ok() {
		return nil, statusError(op, r)
	}
	// ack-only bodies are accepted
	cr, err := jsonUnmarshal[models.CandidateResponse](r.body)
	if err != nil {
		return nil, nil
	}
	return cr.Candidate, nil
}

func (c *Client) DeleteCandidate(ctx context.Context, candidateID int64) error {
	const op = "delete candidate"
	if err := requireID("candidate id", candidateID); err != nil {
		return err
	}
	r, err := c.do(ctx, call{op: op, method: http.MethodDelete, path: []string{"ballots", "candidates", idPath(candidateID)}})
	if err != nil {
		return err
	}
	return expectOK(op, r)
}

// UploadCandidateImage uploads a file and returns the stored path
func (c *Client) UploadCandidateImage(ctx context.Context, f editor.ImageFile) (string, error) {
	const op = "upload image"

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := writeImagePart(w, f); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	r, err := c.do(ctx, call{
		op:          op,
		method:      http.MethodPost,
		path:        []string{"ballots", "candidates", "upload-image"},
		body:        &buf,
		contentType: w.FormDataContentType(),
	})
	if err != nil {
		return "", err
	}
	ur, err := decode[models.UploadImageResponse](op, r)
	if err != nil {
		return "", err
	}
	if !ur.Success || ur.FilePath == "" {
		msg := ur.Message
		if msg == "" {
			msg = "upload did not return a file path"
		}
		return "", &MalformedResponseError{Op: op, StatusCode: r.status, Err: errors.New(msg)}
	}
	return ur.FilePath, nil
}
