// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/ballotdesk/editor"
	"github.com/danielhkuo/ballotdesk/session"
)

const (
	OpSetDescription  = "set-description"
	OpAddPosition     = "add-position"
	OpUpdatePosition  = "update-position"
	OpRemovePosition  = "remove-position"
	OpAddCandidate    = "add-candidate"
	OpUpdateCandidate = "update-candidate"
	OpRemoveCandidate = "remove-candidate"
	OpAttachImage     = "attach-image"
)

var (
	ErrUnknownOp  = errors.New("unknown op")
	ErrUnknownRef = errors.New("unknown reference")
)

// Script is a list of edits applied in order to one election's ballot
type Script struct {
	Election int64  `yaml:"election,omitempty"`
	Steps    []Step `yaml:"steps"`
}

// Step is one edit. Position and Candidate are references: "#N" is the
// N-th entry (from 1) in the current tree, a number is a server id and
// anything else is a label given earlier with As.
type Step struct {
	Op         string              `yaml:"op"`
	As         string              `yaml:"as,omitempty"`
	Position   string              `yaml:"position,omitempty"`
	Candidate  string              `yaml:"candidate,omitempty"`
	Value      string              `yaml:"value,omitempty"`
	Fields     map[string]string   `yaml:"fields,omitempty"`
	Candidates []map[string]string `yaml:"candidates,omitempty"`
	File       string              `yaml:"file,omitempty"`
}

// StepError reports which step failed
type StepError struct {
	Index int
	Op    string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index+1, e.Op, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Parse decodes and checks a YAML script
func Parse(data []byte) (*Script, error) {
	var sc Script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}

	labels := map[string]bool{}
	for i, st := range sc.Steps {
		if err := st.check(); err != nil {
			return nil, &StepError{Index: i, Op: st.Op, Err: err}
		}
		if st.As == "" {
			continue
		}
		if labels[st.As] {
			return nil, &StepError{Index: i, Op: st.Op, Err: fmt.Errorf("label %q used twice", st.As)}
		}
		if strings.HasPrefix(st.As, "#") || isNumber(st.As) {
			return nil, &StepError{Index: i, Op: st.Op, Err: fmt.Errorf("label %q looks like an index or id", st.As)}
		}
		labels[st.As] = true
	}
	return &sc, nil
}

// ParseFile reads a script from disk
func ParseFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return Parse(data)
}

func (st Step) check() error {
	switch st.Op {
	case OpSetDescription:
	case OpAddPosition:
	case OpUpdatePosition, OpRemovePosition, OpAddCandidate:
		if st.Position == "" {
			return errors.New("position is required")
		}
	case OpUpdateCandidate, OpRemoveCandidate:
		if st.Candidate == "" {
			return errors.New("candidate is required")
		}
	case OpAttachImage:
		if st.Candidate == "" || st.File == "" {
			return errors.New("candidate and file are required")
		}
	default:
		return fmt.Errorf("%w %q", ErrUnknownOp, st.Op)
	}
	if st.As != "" && st.Op != OpAddPosition && st.Op != OpAddCandidate {
		return errors.New("as is only allowed on add-position and add-candidate")
	}
	return nil
}

// Target is the editing surface a script drives; *session.Session
// implements it
type Target interface {
	Ballot() *editor.Ballot
	SetDescription(ctx context.Context, text string) session.SyncResult
	AddPosition() *editor.Position
	UpdatePositionField(ctx context.Context, posID editor.Identity, field editor.PositionField, value string) (session.SyncResult, error)
	RemovePosition(ctx context.Context, posID editor.Identity) (session.SyncResult, error)
	AddCandidate(posID editor.Identity) (*editor.Candidate, error)
	UpdateCandidateField(ctx context.Context, posID, candID editor.Identity, field editor.CandidateField, value string) (session.SyncResult, error)
	RemoveCandidate(ctx context.Context, posID, candID editor.Identity) (session.SyncResult, error)
	AttachImage(ctx context.Context, posID, candID editor.Identity, f editor.ImageFile) (session.SyncResult, error)
}

// StepResult collects the sync outcomes of one step. Failed syncs do not
// stop a run; the local edits stay applied.
type StepResult struct {
	Index  int
	Op     string
	Target string
	Syncs  []session.SyncResult
}

// Err returns the first failed sync of the step
func (r StepResult) Err() error {
	for _, s := range r.Syncs {
		if s.Err != nil {
			return s.Err
		}
	}
	return nil
}

type labelled struct {
	position  editor.Identity
	candidate editor.Identity
}

type runner struct {
	t       Target
	baseDir string
	labels  map[string]labelled
}

// Run applies the steps in order. Relative image paths are resolved
// against baseDir. It stops at the first step whose local edit fails.
func Run(ctx context.Context, t Target, sc *Script, baseDir string) ([]StepResult, error) {
	r := &runner{t: t, baseDir: baseDir, labels: map[string]labelled{}}

	results := make([]StepResult, 0, len(sc.Steps))
	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := StepResult{Index: i, Op: st.Op}
		if err := r.apply(ctx, st, &res); err != nil {
			return results, &StepError{Index: i, Op: st.Op, Err: err}
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *runner) apply(ctx context.Context, st Step, res *StepResult) error {
	switch st.Op {
	case OpSetDescription:
		res.Syncs = append(res.Syncs, r.t.SetDescription(ctx, st.Value))
		return nil

	case OpAddPosition:
		p := r.t.AddPosition()
		res.Target = p.ID.String()
		if st.As != "" {
			r.labels[st.As] = labelled{position: p.ID}
		}
		if err := r.setPositionFields(ctx, p.ID, st.Fields, res); err != nil {
			return err
		}
		return r.fillCandidates(ctx, p.ID, st.Candidates, res)

	case OpUpdatePosition:
		posID, err := r.position(st.Position)
		if err != nil {
			return err
		}
		res.Target = posID.String()
		fields := st.Fields
		if len(fields) == 0 && st.Value != "" {
			fields = map[string]string{string(editor.FieldName): st.Value}
		}
		return r.setPositionFields(ctx, posID, fields, res)

	case OpRemovePosition:
		posID, err := r.position(st.Position)
		if err != nil {
			return err
		}
		res.Target = posID.String()
		sr, err := r.t.RemovePosition(ctx, posID)
		if err != nil {
			return err
		}
		res.Syncs = append(res.Syncs, sr)
		return nil

	case OpAddCandidate:
		posID, err := r.position(st.Position)
		if err != nil {
			return err
		}
		c, err := r.t.AddCandidate(posID)
		if err != nil {
			return err
		}
		res.Target = c.ID.String()
		if st.As != "" {
			r.labels[st.As] = labelled{position: posID, candidate: c.ID}
		}
		return r.setCandidateFields(ctx, posID, c.ID, st.Fields, res)

	case OpUpdateCandidate:
		posID, candID, err := r.candidate(st.Position, st.Candidate)
		if err != nil {
			return err
		}
		res.Target = candID.String()
		return r.setCandidateFields(ctx, posID, candID, st.Fields, res)

	case OpRemoveCandidate:
		posID, candID, err := r.candidate(st.Position, st.Candidate)
		if err != nil {
			return err
		}
		res.Target = candID.String()
		sr, err := r.t.RemoveCandidate(ctx, posID, candID)
		if err != nil {
			return err
		}
		res.Syncs = append(res.Syncs, sr)
		return nil

	case OpAttachImage:
		posID, candID, err := r.candidate(st.Position, st.Candidate)
		if err != nil {
			return err
		}
		res.Target = candID.String()
		f, err := r.readImage(st.File)
		if err != nil {
			return err
		}
		sr, err := r.t.AttachImage(ctx, posID, candID, f)
		if err != nil {
			return err
		}
		res.Syncs = append(res.Syncs, sr)
		return nil
	}
	return fmt.Errorf("%w %q", ErrUnknownOp, st.Op)
}

func (r *runner) setPositionFields(ctx context.Context, posID editor.Identity, fields map[string]string, res *StepResult) error {
	for _, k := range sortedKeys(fields) {
		field, err := editor.ParsePositionField(k)
		if err != nil {
			return err
		}
		sr, err := r.t.UpdatePositionField(ctx, posID, field, fields[k])
		if err != nil {
			return err
		}
		res.Syncs = append(res.Syncs, sr)
	}
	return nil
}

func (r *runner) setCandidateFields(ctx context.Context, posID, candID editor.Identity, fields map[string]string, res *StepResult) error {
	for _, k := range sortedKeys(fields) {
		field, err := editor.ParseCandidateField(k)
		if err != nil {
			return err
		}
		sr, err := r.t.UpdateCandidateField(ctx, posID, candID, field, fields[k])
		if err != nil {
			return err
		}
		res.Syncs = append(res.Syncs, sr)
	}
	return nil
}

// fillCandidates writes into the placeholders of a new position first and
// adds candidates once they run out
func (r *runner) fillCandidates(ctx context.Context, posID editor.Identity, list []map[string]string, res *StepResult) error {
	for i, fields := range list {
		p, _ := r.t.Ballot().FindPosition(posID)
		if p == nil {
			return editor.ErrPositionNotFound
		}
		var candID editor.Identity
		if i < len(p.Candidates) {
			candID = p.Candidates[i].ID
		} else {
			c, err := r.t.AddCandidate(posID)
			if err != nil {
				return err
			}
			candID = c.ID
		}
		if err := r.setCandidateFields(ctx, posID, candID, fields, res); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) position(ref string) (editor.Identity, error) {
	b := r.t.Ballot()
	switch {
	case strings.HasPrefix(ref, "#"):
		i, err := strconv.Atoi(ref[1:])
		if err != nil || i < 1 || i > len(b.Positions) {
			return editor.Identity{}, fmt.Errorf("%w: position %s", ErrUnknownRef, ref)
		}
		return b.Positions[i-1].ID, nil
	case isNumber(ref):
		id, _ := strconv.ParseInt(ref, 10, 64)
		return editor.Persisted(id), nil
	}
	l, ok := r.labels[ref]
	if !ok || l.position.IsZero() {
		return editor.Identity{}, fmt.Errorf("%w: position %s", ErrUnknownRef, ref)
	}
	return l.position, nil
}

// candidate resolves a candidate reference. A candidate label carries its
// position, so posRef may be empty then; a server id is searched for
// across the whole ballot.
func (r *runner) candidate(posRef, candRef string) (editor.Identity, editor.Identity, error) {
	if l, ok := r.labels[candRef]; ok && !l.candidate.IsZero() {
		return l.position, l.candidate, nil
	}

	if posRef == "" {
		if !isNumber(candRef) {
			return editor.Identity{}, editor.Identity{}, fmt.Errorf("%w: candidate %s needs a position", ErrUnknownRef, candRef)
		}
		id, _ := strconv.ParseInt(candRef, 10, 64)
		want := editor.Persisted(id)
		var posID editor.Identity
		r.t.Ballot().Walk(func(p *editor.Position, c *editor.Candidate) {
			if c.ID == want {
				posID = p.ID
			}
		})
		if posID.IsZero() {
			return editor.Identity{}, editor.Identity{}, fmt.Errorf("%w: candidate %s", ErrUnknownRef, candRef)
		}
		return posID, want, nil
	}

	posID, err := r.position(posRef)
	if err != nil {
		return editor.Identity{}, editor.Identity{}, err
	}
	switch {
	case strings.HasPrefix(candRef, "#"):
		p, _ := r.t.Ballot().FindPosition(posID)
		if p == nil {
			return editor.Identity{}, editor.Identity{}, editor.ErrPositionNotFound
		}
		i, err := strconv.Atoi(candRef[1:])
		if err != nil || i < 1 || i > len(p.Candidates) {
			return editor.Identity{}, editor.Identity{}, fmt.Errorf("%w: candidate %s", ErrUnknownRef, candRef)
		}
		return posID, p.Candidates[i-1].ID, nil
	case isNumber(candRef):
		id, _ := strconv.ParseInt(candRef, 10, 64)
		return posID, editor.Persisted(id), nil
	}
	return editor.Identity{}, editor.Identity{}, fmt.Errorf("%w: candidate %s", ErrUnknownRef, candRef)
}

func (r *runner) readImage(path string) (editor.ImageFile, error) {
	if !filepath.IsAbs(path) && r.baseDir != "" {
		path = filepath.Join(r.baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return editor.ImageFile{}, fmt.Errorf("failed to read image: %w", err)
	}
	return editor.ImageFile{
		Name:        filepath.Base(path),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, nil
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
