// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

type response struct {
	status int
	body   []byte
}

// ok accepts every 2xx status; 204 and 202 carry no body worth decoding
func (r *response) ok() bool {
	return r.status >= http.StatusOK && r.status < http.StatusMultipleChoices
}

func jsonUnmarshal[T any](buf []byte) (*T, error) {
	ret := new(T)
	if err := json.Unmarshal(buf, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// decode unmarshals a success body into T, or turns a failure into a StatusError
func decode[T any](op string, r *response) (*T, error) {
	if !r.ok() {
		return nil, statusError(op, r)
	}
	v, err := jsonUnmarshal[T](r.body)
	if err != nil {
		return nil, &MalformedResponseError{Op: op, StatusCode: r.status, Err: err}
	}
	return v, nil
}

// expectOK accepts any success status and ignores the body
func expectOK(op string, r *response) error {
	if !r.ok() {
		return statusError(op, r)
	}
	return nil
}

func statusError(op string, r *response) *StatusError {
	return &StatusError{
		Op:         op,
		StatusCode: r.status,
		Message:    extractMessage(r.status, r.body),
		Body:       r.body,
	}
}

var messagePattern = regexp.MustCompile(`"?(?:message|error)"?\s*[:=]\s*"((?:[^"\\]|\\.)+)"`)

// extractMessage pulls a human message out of an error body: the JSON
// message or error field, then a regex scrape of non-JSON text, then a
// generic status line
func extractMessage(status int, body []byte) string {
	if e, err := jsonUnmarshal[struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}](body); err == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}

	if m := messagePattern.FindSubmatch(body); m != nil {
		return strings.ReplaceAll(string(m[1]), `\"`, `"`)
	}

	if text := http.StatusText(status); text != "" {
		return fmt.Sprintf("request failed with status %d (%s)", status, text)
	}
	return fmt.Sprintf("request failed with status %d", status)
}
