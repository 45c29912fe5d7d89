package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/mestrack/internal/ir"
	"github.com/roach88/mestrack/internal/store"
	"github.com/roach88/mestrack/internal/tracker"
)

// DatabaseEnv overrides the default database path.
const DatabaseEnv = "MESTRACK_DB"

// DefaultDatabase is used when neither --db nor MESTRACK_DB is set.
const DefaultDatabase = "mestrack.db"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string
	Timezone string // IANA zone name; empty means the system zone

	// Clock and IDs override the tracker defaults (for testing).
	Clock tracker.Clock
	IDs   tracker.IDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the mestrack CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "mestrack",
		Version: ir.ToolVersion,
		Short:   "mestrack - hostel attendance and mess-fee reduction tracker",
		Long: `Record when you leave and return to the hostel, and see which days
qualify for a mess-fee reduction.

Every LEAVE must be followed by a RETURN and vice versa. Logging an event in
the middle of the history removes whatever neighbour would break that rule.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if _, err := opts.location(); err != nil {
				return fmt.Errorf("invalid timezone %q: %w", opts.Timezone, err)
			}
			configureLogging(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", defaultDatabase(), "path to SQLite database (env "+DatabaseEnv+")")
	cmd.PersistentFlags().StringVar(&opts.Timezone, "tz", "", "IANA time zone for day boundaries (default: system zone)")

	// Add subcommands
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))
	cmd.AddCommand(NewMonthCommand(opts))
	cmd.AddCommand(NewSettingsCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func defaultDatabase() string {
	if path := os.Getenv(DatabaseEnv); path != "" {
		return path
	}
	return DefaultDatabase
}

// configureLogging routes slog to w at Info level, Debug with --verbose.
func configureLogging(w io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

func (o *RootOptions) location() (*time.Location, error) {
	if o.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(o.Timezone)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// openTracker opens the database and builds a tracker over it.
// The returned close function must be called when the command is done.
func (o *RootOptions) openTracker() (*tracker.Tracker, func(), error) {
	loc, err := o.location()
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "invalid timezone", err)
	}

	slog.Debug("opening database", "path", o.Database)
	st, err := store.Open(o.Database)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	closeFn := func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}

	trackerOpts := []tracker.Option{tracker.WithLocation(loc)}
	if o.Clock != nil {
		trackerOpts = append(trackerOpts, tracker.WithClock(o.Clock))
	}
	if o.IDs != nil {
		trackerOpts = append(trackerOpts, tracker.WithIDGenerator(o.IDs))
	}

	tr, err := tracker.New(st, trackerOpts...)
	if err != nil {
		closeFn()
		return nil, nil, WrapExitError(ExitCommandError, "failed to create tracker", err)
	}
	return tr, closeFn, nil
}
