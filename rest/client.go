// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/danielhkuo/ballotdesk/auth"
)

// AmbiguousPolicy decides how a create call that answers 400 together with
// the created resource is treated. It only applies to CreateBallot and
// CreateCandidate.
type AmbiguousPolicy int

const (
	// AcceptCreated returns the resource along with a *QualifiedSuccess warning
	AcceptCreated AmbiguousPolicy = iota
	// Strict reports the response as a *StatusError
	Strict
)

// ParseAmbiguousPolicy maps "accept" and "strict" to a policy
func ParseAmbiguousPolicy(s string) (AmbiguousPolicy, error) {
	switch strings.ToLower(s) {
	case "", "accept":
		return AcceptCreated, nil
	case "strict":
		return Strict, nil
	}
	return 0, fmt.Errorf("unknown ambiguous-create policy %q (want accept or strict)", s)
}

// Client calls the ballot API. Every call except RequestToken carries the
// session token as a bearer credential.
type Client struct {
	httpClient   *http.Client
	api          string
	token        string
	ambiguous    AmbiguousPolicy
	fetchTimeout time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithAmbiguousPolicy(p AmbiguousPolicy) Option {
	return func(c *Client) { c.ambiguous = p }
}

// WithFetchTimeout bounds election, details and results fetches.
// Editor calls are not bounded.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Client) { c.fetchTimeout = d }
}

const DefaultFetchTimeout = 15 * time.Second

func NewClient(apiRoot, token string, opts ...Option) (*Client, error) {
	u, err := url.Parse(apiRoot)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAPIRoot, apiRoot)
	}

	c := &Client{
		httpClient:   new(http.Client),
		api:          strings.TrimSuffix(apiRoot, "/"),
		token:        token,
		ambiguous:    AcceptCreated,
		fetchTimeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) APIRoot() string { return c.api }

// build URL with path
func (c *Client) apipath(path ...string) string {
	parts := make([]string, 0, len(path)+1)
	parts = append(parts, c.api)
	for _, p := range path {
		parts = append(parts, strings.Trim(p, "/"))
	}
	return strings.Join(parts, "/")
}

type call struct {
	op          string
	method      string
	path        []string
	body        io.Reader
	contentType string
	public      bool
	fetch       bool
}

func jsonBody(v any) (io.Reader, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(buf), nil
}

func (c *Client) do(ctx context.Context, cl call) (*response, error) {
	if !cl.public {
		if err := auth.CheckSessionToken(c.token); err != nil {
			return nil, fmt.Errorf("%s: %w", cl.op, err)
		}
	}

	if cl.fetch && c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.apipath(cl.path...), cl.body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	if !cl.public {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, cl.op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ctx, cl.op, err)
	}

	slog.Debug("api call",
		"op", cl.op,
		"method", cl.method,
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	return &response{status: resp.StatusCode, body: body}, nil
}

func transportError(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", ErrRequestTimeout, err)
	}
	return &TransportError{Op: op, Err: err}
}

func idPath(id int64) string {
	return strconv.FormatInt(id, 10)
}

func requireID(name string, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s", ErrMissingParam, name)
	}
	return nil
}
