// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/ballotdesk/auth"
	"github.com/danielhkuo/ballotdesk/cliparse"
	"github.com/danielhkuo/ballotdesk/editor"
	"github.com/danielhkuo/ballotdesk/live"
	"github.com/danielhkuo/ballotdesk/models"
	"github.com/danielhkuo/ballotdesk/preview"
	"github.com/danielhkuo/ballotdesk/rest"
	"github.com/danielhkuo/ballotdesk/script"
	"github.com/danielhkuo/ballotdesk/session"
)

func parseElectionID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid election id %q", s)
	}
	return id, nil
}

func newClient(cfg cliparse.Config) (*rest.Client, error) {
	if err := cfg.ValidateClient(); err != nil {
		return nil, err
	}

	token := cfg.Token
	if token == "" {
		t, err := auth.LoadSessionToken(cfg.TokenFile)
		if err != nil {
			return nil, err
		}
		token = t
	} else if err := auth.CheckSessionToken(token); err != nil {
		return nil, err
	}

	policy, err := rest.ParseAmbiguousPolicy(cfg.AmbiguousCreate)
	if err != nil {
		return nil, err
	}
	return rest.NewClient(cfg.APIURL, token,
		rest.WithAmbiguousPolicy(policy),
		rest.WithFetchTimeout(cfg.FetchTimeout),
	)
}

// openSession loads the election's ballot with file-backed previews. The
// returned func releases the previews.
func openSession(ctx context.Context, cfg cliparse.Config, electionID int64) (*session.Session, func(), error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	policy, err := editor.PolicyByName(cfg.Workflow)
	if err != nil {
		return nil, nil, err
	}
	staging, err := preview.NewStaging(cfg.PreviewDir)
	if err != nil {
		return nil, nil, err
	}

	s, err := session.Load(ctx, client, electionID, policy,
		session.WithPreviewer(staging),
		session.WithMaxImageBytes(cfg.MaxImageBytes),
	)
	if err != nil {
		staging.Close()
		return nil, nil, err
	}
	return s, func() {
		if err := s.Close(); err != nil {
			slog.Warn("failed to revoke previews", "error", err)
		}
		staging.Close()
	}, nil
}

func assetBase(cfg cliparse.Config) string {
	if cfg.AssetBaseURL != "" {
		return cfg.AssetBaseURL
	}
	return cfg.APIURL
}

func printBallot(w io.Writer, cfg cliparse.Config, e *models.Election, b *editor.Ballot) {
	if e != nil {
		fmt.Fprintf(w, "Election %d: %s (%s, created %s)\n", e.ID, e.Title, e.Status, humanize.Time(e.CreatedAt))
	}
	state := "unsaved"
	if b.ID.IsPersisted() {
		state = "ballot " + b.ID.String()
	}
	fmt.Fprintf(w, "[%s] %s\n", state, b.Description)

	for i, p := range b.Positions {
		fmt.Fprintf(w, "%2d. %s (choose %d) [%s]\n", i+1, p.Name, p.MaxChoices, p.ID)
		for j, c := range p.Candidates {
			name := c.FullName()
			if name == "" {
				name = "(empty)"
			}
			fmt.Fprintf(w, "    %d. %s", j+1, name)
			if c.Party != "" {
				fmt.Fprintf(w, ", %s", c.Party)
			}
			fmt.Fprintf(w, " [%s]\n", c.ID)
			if c.Slogan != "" {
				fmt.Fprintf(w, "       %q\n", c.Slogan)
			}
			fmt.Fprintf(w, "       image: %s\n", rest.ResolveImageURL(assetBase(cfg), c.DisplayImage(), cfg.PlaceholderImage))
		}
	}
}

func printFieldErrors(w io.Writer, errs editor.FieldErrors) {
	for _, k := range errs.Keys() {
		fmt.Fprintf(w, "  %s: %s\n", k, errs[k])
	}
}

func showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <election-id>",
		Short: "Print an election's ballot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			electionID, err := parseElectionID(args[0])
			if err != nil {
				return err
			}
			s, done, err := openSession(cmd.Context(), cfg, electionID)
			if err != nil {
				return err
			}
			defer done()

			printBallot(cmd.OutOrStdout(), cfg, s.Election(), s.Ballot())
			return nil
		},
	}
}

// loadScript reads a script and settles the election it applies to
func loadScript(path string, args []string) (*script.Script, int64, error) {
	var sc *script.Script
	if path != "" {
		var err error
		if sc, err = script.ParseFile(path); err != nil {
			return nil, 0, err
		}
	}

	switch {
	case len(args) > 0:
		id, err := parseElectionID(args[0])
		return sc, id, err
	case sc != nil && sc.Election > 0:
		return sc, sc.Election, nil
	}
	return nil, 0, errors.New("election id required (argument or script election field)")
}

func runScript(ctx context.Context, w io.Writer, s *session.Session, sc *script.Script, path string) error {
	if sc == nil {
		return nil
	}
	results, err := script.Run(ctx, s, sc, filepath.Dir(path))
	for _, r := range results {
		status := "ok"
		if err := r.Err(); err != nil {
			status = "sync failed: " + err.Error()
		}
		fmt.Fprintf(w, "step %d %s %s: %s\n", r.Index+1, r.Op, r.Target, status)
	}
	return err
}

func validateCommand() *cobra.Command {
	var scriptPath string
	cmd := &cobra.Command{
		Use:   "validate [election-id]",
		Short: "Check a ballot, optionally after applying a script, without saving",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			sc, electionID, err := loadScript(scriptPath, args)
			if err != nil {
				return err
			}
			s, done, err := openSession(cmd.Context(), cfg, electionID)
			if err != nil {
				return err
			}
			defer done()

			out := cmd.OutOrStdout()
			if err := runScript(cmd.Context(), out, s, sc, scriptPath); err != nil {
				return err
			}
			if errs := s.Validate(); len(errs) > 0 {
				fmt.Fprintln(out, "ballot has errors:")
				printFieldErrors(out, errs)
				return fmt.Errorf("%d validation errors", len(errs))
			}
			fmt.Fprintln(out, "ballot is valid")
			return nil
		},
	}
	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "edit script to apply first")
	return cmd
}

func applyCommand() *cobra.Command {
	var (
		scriptPath   string
		dryRun       bool
		perCandidate bool
	)
	cmd := &cobra.Command{
		Use:   "apply [election-id] --script edits.yaml",
		Short: "Apply an edit script to a ballot and save it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			if scriptPath == "" {
				return errors.New("--script is required")
			}
			sc, electionID, err := loadScript(scriptPath, args)
			if err != nil {
				return err
			}
			s, done, err := openSession(cmd.Context(), cfg, electionID)
			if err != nil {
				return err
			}
			defer done()

			out := cmd.OutOrStdout()
			if err := runScript(cmd.Context(), out, s, sc, scriptPath); err != nil {
				return err
			}
			if errs := s.Validate(); len(errs) > 0 {
				fmt.Fprintln(out, "ballot has errors:")
				printFieldErrors(out, errs)
				return errs
			}
			if dryRun {
				printBallot(out, cfg, s.Election(), s.Ballot())
				return nil
			}
			return saveSession(cmd.Context(), out, s, perCandidate)
		},
	}
	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "edit script")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and print without saving")
	cmd.Flags().BoolVar(&perCandidate, "per-candidate", false, "save each candidate with its own request before saving the ballot")
	return cmd
}

// saveSession writes the whole tree. With perCandidate a persisted ballot
// first saves each candidate on its own; the final save still sends the
// full tree so edits whose eager sync failed reach the server.
func saveSession(ctx context.Context, w io.Writer, s *session.Session, perCandidate bool) error {
	if perCandidate && s.Ballot().ID.IsPersisted() {
		outcomes, err := s.SaveCandidates(ctx)
		if err != nil {
			return err
		}
		for _, o := range outcomes {
			switch {
			case o.Err != nil:
				fmt.Fprintf(w, "candidate %s: %v\n", o.Candidate, o.Err)
			case o.Warning != nil:
				fmt.Fprintf(w, "candidate %s saved as %s with warning: %s\n", o.Candidate, o.Saved, o.Warning.Message)
			}
		}
		fmt.Fprintf(w, "saved %d of %d candidates individually\n", len(outcomes)-session.Failed(outcomes), len(outcomes))
	}

	res, err := s.Save(ctx)
	if err != nil {
		return err
	}
	verb := "updated"
	if res.Created {
		verb = "created"
	}
	fmt.Fprintf(w, "ballot %s %s\n", res.Ballot.ID, verb)
	if res.Warning != nil {
		fmt.Fprintf(w, "warning: %s\n", res.Warning.Message)
	}
	for id, err := range res.ImageErrors {
		fmt.Fprintf(w, "image for candidate %s not uploaded: %v\n", id, err)
	}
	return nil
}

func uploadImageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "upload-image <file>",
		Short: "Upload a candidate photo and print its stored path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			f := editor.ImageFile{Name: filepath.Base(args[0]), Data: data}
			f.ContentType = f.DetectContentType()
			if err := editor.CheckImage(f, cfg.MaxImageBytes); err != nil {
				return err
			}

			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			path, err := client.UploadCandidateImage(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s (%s)\n%s\n",
				f.Name, humanize.IBytes(uint64(f.Size())), rest.ResolveImageURL(assetBase(cfg), path, ""))
			return nil
		},
	}
}

func watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <election-id>",
		Short: "Show live results, cycling through positions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			electionID, err := parseElectionID(args[0])
			if err != nil {
				return err
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			poller := live.NewPoller(client, electionID,
				live.WithInterval(cfg.PollInterval),
				live.WithTimeout(cfg.FetchTimeout),
			)
			out := cmd.OutOrStdout()
			redraw := false
			if f, ok := out.(*os.File); ok {
				redraw = isatty.IsTerminal(f.Fd())
			}
			live.NewCarousel().Run(ctx, poller.Run(ctx), cfg.RotateInterval, func(f live.Frame) {
				if redraw {
					fmt.Fprint(out, "\033[H\033[2J")
				}
				renderFrame(out, cfg, f)
			})
			return nil
		},
	}
}

func renderFrame(w io.Writer, cfg cliparse.Config, f live.Frame) {
	fmt.Fprintf(w, "%s  (%d/%d)  %s votes, election %s\n",
		f.Position.Name, f.Index+1, f.Total, humanize.Comma(int64(f.VoteCount)), f.Status)
	for _, s := range f.Standings {
		line := fmt.Sprintf("%3d. %-30s %6s  %5.1f%%", s.Rank, s.Name, humanize.Comma(int64(s.Votes)), s.Share*100)
		if s.Party != "" {
			line += "  " + s.Party
		}
		fmt.Fprintln(w, line)
	}
	updated := "never"
	if !f.UpdatedAt.IsZero() {
		updated = humanize.Time(f.UpdatedAt)
	}
	footer := "updated " + updated
	if f.Stale {
		footer += ", connection lost, showing last results"
	}
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintln(w, footer)
}

func tokenCommand() *cobra.Command {
	var subject, role string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Request a session token from a development server and store it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			client, err := rest.NewClient(cfg.APIURL, "")
			if err != nil {
				return err
			}
			resp, err := client.RequestToken(cmd.Context(), subject, role)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cfg.TokenFile == "" {
				fmt.Fprintln(out, resp.Token)
				return nil
			}
			if err := auth.SaveSessionToken(cfg.TokenFile, resp.Token); err != nil {
				return err
			}
			fmt.Fprintf(out, "token saved to %s, expires %s\n", cfg.TokenFile, humanize.Time(resp.ExpiresAt))
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	cmd.Flags().StringVar(&role, "role", models.RoleAdmin, "token role (admin or superadmin)")
	return cmd
}
