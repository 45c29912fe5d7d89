package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/mestrack/internal/backup"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Out string
}

// ExportResult describes a written backup.
type ExportResult struct {
	Path   string `json:"path"`
	Events int    `json:"events"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup of all events and settings",
		Long: `Write every event and the current settings to a JSON backup file.

The default file name is mestrack-backup-YYYY-MM-DD.json in the current
directory. Use --out - to write to standard output.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output file (- for stdout)")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	tr, closeFn, err := opts.openTracker()
	if err != nil {
		return formatter.Fail(err)
	}
	defer closeFn()

	snap, err := tr.Export(cmd.Context())
	if err != nil {
		return formatter.Fail(err)
	}

	if opts.Out == "-" {
		if err := backup.Encode(cmd.OutOrStdout(), snap); err != nil {
			return formatter.Fail(err)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	}

	path := opts.Out
	if path == "" {
		path = backup.FileName(snap.ExportedAt)
	}
	if err := backup.WriteFile(path, snap); err != nil {
		formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return &ExitError{Code: ExitCommandError, Message: "failed to write backup", Err: err, Reported: true}
	}

	result := ExportResult{Path: path, Events: len(snap.Events)}
	return formatter.Result(result, func(w io.Writer) {
		fmt.Fprintf(w, "Exported %d event(s) to %s\n", result.Events, result.Path)
	})
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all data with a JSON backup",
		Long: `Replace every event and the settings with the contents of a backup file.

The file is checked before anything is written; a rejected file leaves the
current data untouched.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}
}

func runImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	f, err := os.Open(path)
	if err != nil {
		return formatter.Fail(WrapExitError(ExitCommandError, "failed to open backup", err))
	}
	defer f.Close()

	tr, closeFn, err := opts.openTracker()
	if err != nil {
		return formatter.Fail(err)
	}
	defer closeFn()

	if !tr.Import(cmd.Context(), f) {
		formatter.Error(ErrCodeImportFailed, fmt.Sprintf("%s is not a valid backup; nothing was changed", path), nil)
		return &ExitError{Code: ExitFailure, Message: "import failed", Reported: true}
	}

	count := 0
	if events, err := tr.Events(cmd.Context()); err == nil {
		count = len(events)
	}
	return formatter.Result(map[string]int{"events": count}, func(w io.Writer) {
		fmt.Fprintf(w, "Imported %d event(s) from %s\n", count, path)
	})
}
