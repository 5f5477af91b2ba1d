package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ohan/internal/clinic"
	"github.com/JonMunkholm/ohan/internal/config"
	"github.com/JonMunkholm/ohan/internal/core"
	"github.com/JonMunkholm/ohan/internal/geo"
	"github.com/JonMunkholm/ohan/internal/logging"
	"github.com/JonMunkholm/ohan/internal/relay"
)

// app is the wiring shared by every subcommand. The CLI always reads the
// upstream live; only the cache subcommands touch the relay cache.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	source  relay.Source
	relay   *relay.Relay
	service *core.Service
}

type rootOptions struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "clinicctl",
		Short:        "Inspect the OHAN dental clinic directory",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log upstream requests to stderr")

	cmd.AddCommand(
		newFetchCmd(opts),
		newSearchCmd(opts),
		newZipsCmd(),
		newCacheCmd(opts),
	)
	return cmd
}

// newApp loads configuration and builds the relay and service.
func newApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	logger := logging.SetupWriter(cmd.ErrOrStderr(), level, cfg.Logging.Format)

	source, err := relay.NewSource(cfg)
	if err != nil {
		return nil, err
	}
	rl := relay.New(source, nil, logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		source:  source,
		relay:   rl,
		service: core.NewService(rl, clinic.DefaultNormalizer(), geo.Default(), cfg.Finder.DefaultRadiusMiles, logger),
	}, nil
}

// userFacing logs the technical error and returns the mapped message.
func (a *app) userFacing(err error) error {
	a.logger.Debug("command failed", "error", err)
	return userError{err: err}
}

// userError prints as the mapped user message and unwraps to the cause.
type userError struct {
	err error
}

func (e userError) Error() string { return core.FormatUserError(e.err) }

func (e userError) Unwrap() error { return e.err }
