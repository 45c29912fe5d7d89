package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/mestrack/internal/ir"
)

// NewSettingsCommand creates the settings command group.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the reduction rule",
		Long: `Show or change the three settings of the reduction rule:

  X       minimum run of full days away that earns a mess reduction
  Y_time  leaving before this time makes the departure day a full day away
  Z_time  returning after this time makes the return day a full day away`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsShow(rootOpts, cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "show",
		Short:         "Show the current settings",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsShow(rootOpts, cmd)
		},
	})
	cmd.AddCommand(NewSettingsSetCommand(rootOpts))

	return cmd
}

// SettingsSetOptions holds flags for the settings set command.
type SettingsSetOptions struct {
	*RootOptions
	X     int
	YTime string
	ZTime string
	File  string
}

// settingsFile is the YAML (or JSON) document accepted by --file.
// Absent fields keep their current value.
type settingsFile struct {
	X     *int    `yaml:"x"`
	YTime *string `yaml:"y_time"`
	ZTime *string `yaml:"z_time"`
}

// NewSettingsSetCommand creates the settings set command.
func NewSettingsSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SettingsSetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change one or more settings",
		Long: `Change one or more settings. Values not given keep their current value.
Values from --file are applied first, then flags.

Examples:
  mestrack settings set --x 4
  mestrack settings set --y 08:30 --z 18:00
  mestrack settings set --file settings.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsSet(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.X, "x", ir.DefaultX, "minimum leave block length in days")
	cmd.Flags().StringVar(&opts.YTime, "y", ir.DefaultYTime, "departure cutoff (HH:mm)")
	cmd.Flags().StringVar(&opts.ZTime, "z", ir.DefaultZTime, "return cutoff (HH:mm)")
	cmd.Flags().StringVar(&opts.File, "file", "", "read settings from a YAML or JSON file")

	return cmd
}

func runSettingsShow(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	tr, closeFn, err := opts.openTracker()
	if err != nil {
		return formatter.Fail(err)
	}
	defer closeFn()

	settings, err := tr.Settings(cmd.Context())
	if err != nil {
		return formatter.Fail(err)
	}

	return formatter.Result(settings, func(w io.Writer) {
		writeSettings(w, settings)
	})
}

func runSettingsSet(opts *SettingsSetOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	flags := cmd.Flags()
	if opts.File == "" && !flags.Changed("x") && !flags.Changed("y") && !flags.Changed("z") {
		return formatter.Fail(NewExitError(ExitFailure, "nothing to set: pass --x, --y, --z or --file"))
	}

	tr, closeFn, err := opts.openTracker()
	if err != nil {
		return formatter.Fail(err)
	}
	defer closeFn()

	settings, err := tr.Settings(cmd.Context())
	if err != nil {
		return formatter.Fail(err)
	}

	if opts.File != "" {
		formatter.VerboseLog("Reading settings from %s", opts.File)
		if err := applySettingsFile(&settings, opts.File); err != nil {
			return formatter.Fail(WrapExitError(ExitFailure, "invalid settings file", err))
		}
	}
	if flags.Changed("x") {
		settings.X = opts.X
	}
	if flags.Changed("y") {
		settings.YTime = opts.YTime
	}
	if flags.Changed("z") {
		settings.ZTime = opts.ZTime
	}

	updated, err := tr.UpdateSettings(cmd.Context(), settings)
	if err != nil {
		return formatter.Fail(err)
	}

	return formatter.Result(updated, func(w io.Writer) {
		fmt.Fprintln(w, "Settings updated.")
		writeSettings(w, updated)
	})
}

// applySettingsFile overlays the fields present in the file onto s.
func applySettingsFile(s *ir.Settings, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file settingsFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&file); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if file.X != nil {
		s.X = *file.X
	}
	if file.YTime != nil {
		s.YTime = *file.YTime
	}
	if file.ZTime != nil {
		s.ZTime = *file.ZTime
	}
	return nil
}

func writeSettings(w io.Writer, s ir.Settings) {
	fmt.Fprintf(w, "X:      %d day(s)\n", s.X)
	fmt.Fprintf(w, "Y_time: %s\n", s.YTime)
	fmt.Fprintf(w, "Z_time: %s\n", s.ZTime)
}
