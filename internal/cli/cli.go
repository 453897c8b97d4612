package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pfrederiksen/fixtures-ics/internal/calendar"
	"github.com/pfrederiksen/fixtures-ics/internal/config"
	"github.com/pfrederiksen/fixtures-ics/internal/logger"
	"github.com/pfrederiksen/fixtures-ics/internal/match"
	"github.com/pfrederiksen/fixtures-ics/internal/server"
	"github.com/pfrederiksen/fixtures-ics/internal/warmer"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// options holds the flags of one root command
type options struct {
	configPath  string
	verbose     bool
	format      string
	sortOrder   string
	eventLength time.Duration
	outputPath  string
	listen      string

	cfg *config.Config
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "fixtures-ics",
		Short: "Turn football fixture listings into iCalendar feeds",
		Long: `A tool that reads the fixtures of a team or competition from OneFootball
and publishes them as an iCalendar (.ics) feed, on the command line or over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("FIXTURES_ICS_CONFIG"), "Path to YAML config file (created with defaults if missing; empty reads the environment only)")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(
		newCalendarCmd(opts),
		newMatchesCmd(opts),
		newServeCmd(opts),
		newWarmCmd(opts),
	)
	return cmd
}

// load reads the config and installs the logger
func (o *options) load() error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	o.cfg = cfg

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	if o.verbose {
		level = logger.LevelDebug
	}
	// Logs go to stderr so calendars and JSON on stdout stay clean
	logger.SetDefault(logger.New(level, os.Stderr))
	return nil
}

// subjectArgs accepts "team atletico-mineiro-1683" or "team/atletico-mineiro-1683"
func subjectArgs(args []string) (match.Subject, error) {
	if len(args) == 1 {
		return match.ParseSubject(args[0])
	}
	kind, err := match.ParseKind(args[0])
	if err != nil {
		return match.Subject{}, err
	}
	return match.NewSubject(kind, args[1])
}

func newCalendarCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar <team|competition> <id>",
		Short: "Write the iCalendar feed for a team or competition",
		Example: `  fixtures-ics calendar team atletico-mineiro-1683 > atletico.ics
  fixtures-ics calendar competition/brasileirao-serie-a-85 --event-length 105m -o serie-a.ics`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, err := subjectArgs(args)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			eventLength := opts.cfg.Calendar.EventLength
			if opts.eventLength > 0 {
				eventLength = opts.eventLength
			}

			cal, err := a.pipeline.Run(cmd.Context(), subject, eventLength, opts.cfg.Cache.Freshness)
			if err != nil {
				return fmt.Errorf("building calendar for %s: %w", subject, err)
			}

			if opts.outputPath == "" || opts.outputPath == "-" {
				return calendar.Write(cmd.OutOrStdout(), cal)
			}
			if err := os.WriteFile(opts.outputPath, []byte(calendar.Serialize(cal)), 0644); err != nil {
				return fmt.Errorf("writing calendar: %w", err)
			}
			logger.Info("Calendar written", logger.Fields{
				"subject": subject.String(),
				"path":    opts.outputPath,
				"events":  len(cal.Events()),
			})
			return nil
		},
	}

	cmd.Flags().DurationVar(&opts.eventLength, "event-length", 0, "Length of each match event (default from config, 120m)")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func newMatchesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matches <team|competition> <id>",
		Short: "List the fixtures of a team or competition",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, err := subjectArgs(args)
			if err != nil {
				return err
			}
			format, err := parseFormat(opts.format)
			if err != nil {
				return err
			}
			order, err := parseSortOrder(opts.sortOrder)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.pipeline.Matches(cmd.Context(), subject, opts.cfg.Cache.Freshness)
			if err != nil {
				return fmt.Errorf("loading matches for %s: %w", subject, err)
			}

			result := &OutputResult{
				CheckedAt:   time.Now().UTC(),
				Subject:     subject.String(),
				LastUpdated: entry.LastUpdated,
				Matches:     sortMatches(entry.Matches, order),
				MatchCount:  len(entry.Matches),
			}
			if err := WriteOutput(cmd.OutOrStdout(), result, format, opts.verbose); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&opts.sortOrder, "sort", "listing", "Sort order: listing, kickoff or competition")
	return cmd
}

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve calendars over HTTP",
		Long: `Serve calendars over HTTP at /team/{id}[/{minutes}] and
/competition/{id}[/{minutes}]. When warm.schedule is set, the configured
warm.subjects are refreshed on that schedule in the background.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			listen := opts.cfg.HTTP.Listen
			if opts.listen != "" {
				listen = opts.listen
			}

			srv := server.New(a.pipeline,
				server.WithEventLength(opts.cfg.Calendar.EventLength),
				server.WithFreshness(opts.cfg.Cache.Freshness),
			)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.ListenAndServe(ctx, listen)
			})

			if opts.cfg.Warm.Schedule != "" {
				w, err := newWarmer(a, opts.cfg)
				if err != nil {
					return err
				}
				g.Go(func() error {
					return w.Run(ctx, opts.cfg.Warm.Schedule)
				})
			}

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.listen, "listen", "", "Listen address (default from config, :5000)")
	return cmd
}

func newWarmCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "warm [subject...]",
		Short: "Refresh cached fixtures once",
		Long: `Refresh the cache for the given subjects (written as team/<id> or
competition/<id>), or for warm.subjects from the config when none are given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *opts.cfg
			if len(args) > 0 {
				cfg.Warm.Subjects = args
			}

			a, err := newApp(cmd.Context(), &cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			w, err := newWarmer(a, &cfg)
			if err != nil {
				return err
			}
			return w.RunOnce(cmd.Context())
		},
	}
}

// newWarmer renews entries once they are half as old as the serving freshness
func newWarmer(a *app, cfg *config.Config) (*warmer.Warmer, error) {
	subjects, err := cfg.Warm.Targets()
	if err != nil {
		return nil, err
	}
	return warmer.New(a.pipeline, subjects,
		warmer.WithFreshness(cfg.Cache.Freshness/2),
		warmer.WithTimeout(cfg.Source.Timeout*2),
	), nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
