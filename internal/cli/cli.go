package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/huh/spinner"
	"github.com/mattn/go-isatty"
	"github.com/pfrederiksen/spbu-timetable/internal/config"
	"github.com/pfrederiksen/spbu-timetable/internal/filter"
	"github.com/pfrederiksen/spbu-timetable/internal/logger"
	"github.com/pfrederiksen/spbu-timetable/internal/scraper"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// runOptions is everything one invocation needs, filled from env and flags.
type runOptions struct {
	cfg         config.Config
	filter      *filter.Filter
	noTLSVerify bool
	verbose     bool
	now         func() time.Time
	// wait runs the fetch, showing progress if it can. Nil picks one for stdout.
	wait func(ctx context.Context, title string, action func()) error
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(time.Now)
}

func newRootCmd(now func() time.Time) *cobra.Command {
	cfg, envErr := config.FromEnv()
	opts := &runOptions{
		cfg:    cfg,
		filter: filter.NewFilter(),
		now:    now,
	}

	cmd := &cobra.Command{
		Use:   "spbu-timetable",
		Short: "Print a week of SPbU classes for a student group",
		Long: `A CLI tool that fetches a student group's weekly timetable from timetable.spbu.ru
and prints its classes with the time left until each one starts.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if envErr != nil {
				return envErr
			}
			return run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.cfg.Date, "date", "", "Week to show as YYYY-MM-DD (default current week)")
	flags.StringVar(&opts.cfg.GroupID, "id", opts.cfg.GroupID, "Group id from the timetable URL, see https://timetable.spbu.ru/")
	flags.BoolVar(&opts.noTLSVerify, "no-tls-verify", false, "Disable TLS certificate verification")
	flags.StringVar(&opts.cfg.BaseURL, "base-url", opts.cfg.BaseURL, "Timetable base URL without the group id")
	flags.DurationVar(&opts.cfg.Timeout, "timeout", opts.cfg.Timeout, "HTTP request timeout")
	flags.StringVar(&opts.cfg.TimeZone, "tz", opts.cfg.TimeZone, "Time zone of the timetable")
	flags.StringVar(&opts.cfg.Format, "format", opts.cfg.Format, "Output format: text, json or ics")
	flags.StringVar(&opts.cfg.Sort, "sort", opts.cfg.Sort, "Sort order: page, start, title or type")
	flags.StringSliceVar(&opts.filter.Types, "type", nil, "Only classes whose type contains this text (repeatable)")
	flags.StringSliceVar(&opts.filter.Titles, "title", nil, "Only classes whose subject contains this text (repeatable)")
	flags.StringSliceVar(&opts.filter.Lecturers, "lecturer", nil, "Only classes with a lecturer matching this text (repeatable)")
	flags.BoolVar(&opts.filter.UpcomingOnly, "upcoming", false, "Hide classes that already started")
	flags.StringVar(&opts.cfg.LogLevel, "log-level", opts.cfg.LogLevel, "Log level: debug, info, warn or error")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging and print run metrics (same as --log-level debug)")

	return cmd
}

// run is the main command logic
func run(ctx context.Context, stdout, stderr io.Writer, opts *runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := opts.cfg
	if opts.noTLSVerify {
		cfg.TLSVerify = false
	}
	if opts.verbose {
		cfg.LogLevel = string(logger.LevelDebug)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.SetDefault(logger.New(level, stderr))

	url := cfg.URL()
	loc := cfg.LoadLocation()
	now := opts.now().In(loc)

	logger.Debug("Fetching timetable", logger.Fields{
		"url":        url,
		"group":      cfg.GroupID,
		"tls_verify": cfg.TLSVerify,
		"filter":     opts.filter.String(),
	})

	sc := scraper.New(scraper.Options{TLSVerify: cfg.TLSVerify, Timeout: cfg.Timeout})
	ec := scraper.ExtractContext{Now: now, Location: loc}

	wait := opts.wait
	if wait == nil {
		wait = waiterFor(stdout, cfg.Format)
	}

	var schedule *scraper.Schedule
	fetch := func() {
		schedule, err = sc.Scrape(ctx, url, ec)
	}

	// On an early return the action may still be running, so neither schedule
	// nor err is read after a wait error.
	if waitErr := wait(ctx, fmt.Sprintf("Fetching timetable for group %s...", cfg.GroupID), fetch); waitErr != nil {
		logger.Error("Timetable fetch interrupted", logger.Fields{"url": url}, waitErr)
		return fmt.Errorf("fetching timetable: %w", waitErr)
	}
	if err == nil && schedule == nil {
		err = errors.New("fetch finished without a schedule")
	}
	if err != nil {
		logger.Error("Timetable run failed", logger.Fields{"url": url}, err)
		return err
	}

	events := opts.filter.Apply(schedule.Events)
	sortEvents(events, SortOrder(cfg.Sort))

	result := &OutputResult{
		WeekStart:   schedule.WeekStart,
		URL:         url,
		GeneratedAt: now,
		Events:      events,
		EventCount:  len(events),
	}

	if err := WriteOutput(stdout, result, OutputFormat(cfg.Format)); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	logger.Debug("Run metrics", logger.Fields{"metrics": logger.GetMetricsSnapshot()})
	return nil
}

// showSpinner reports whether a progress spinner fits: text output going to a terminal.
func showSpinner(stdout io.Writer, format string) bool {
	f, ok := stdout.(*os.File)
	if !ok || OutputFormat(format) != FormatText {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

// waiterFor returns a spinner-backed waiter for terminals and a plain call otherwise.
func waiterFor(stdout io.Writer, format string) func(context.Context, string, func()) error {
	if !showSpinner(stdout, format) {
		return func(_ context.Context, _ string, action func()) error {
			action()
			return nil
		}
	}
	return func(ctx context.Context, title string, action func()) error {
		return spinner.New().
			Context(ctx).
			Title(title).
			Action(action).
			Run()
	}
}

// Execute runs the CLI
func Execute() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}

	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}
