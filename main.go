package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/ballotdesk/cliparse"
)

const programName = "ballotdesk"

var (
	configFile string
	debug      bool
)

type configKey struct{}

// newLogger writes text to terminals and JSON everywhere else
func newLogger(w *os.File, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: debug}

	var h slog.Handler
	if isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd()) {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h)
}

func configFrom(cmd *cobra.Command) cliparse.Config {
	cfg, _ := cmd.Context().Value(configKey{}).(cliparse.Config)
	return cfg
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           programName,
		Short:         "Compose election ballots and run the ballot API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cliparse.Load(configFile)
			if err != nil {
				return err
			}
			if err := cliparse.ApplyFlags(cmd.Flags(), &cfg); err != nil {
				return err
			}
			if debug {
				cfg.Debug = true
			}
			slog.SetDefault(newLogger(os.Stderr, cfg.Debug))
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "path to YAML config file")
	pf.BoolVarP(&debug, "debug", "D", false, "enable debug logging")
	cliparse.BindFlags(pf)

	root.AddCommand(
		serveCommand(),
		showCommand(),
		validateCommand(),
		applyCommand(),
		uploadImageCommand(),
		watchCommand(),
		tokenCommand(),
	)
	return root
}

func main() {
	if err := rootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
