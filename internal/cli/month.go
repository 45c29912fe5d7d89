package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/mestrack/internal/engine"
	"github.com/roach88/mestrack/internal/ir"
)

// NewMonthCommand creates the month command.
func NewMonthCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "month [YYYY-MM]",
		Short: "Show day-by-day attendance for a month",
		Long: `Classify every day of a month and list the leave blocks that earn a
mess-fee reduction. Defaults to the current month.

Examples:
  mestrack month
  mestrack month 2025-03 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			monthArg := ""
			if len(args) == 1 {
				monthArg = args[0]
			}
			return runMonth(rootOpts, monthArg, cmd)
		},
	}
}

func runMonth(opts *RootOptions, monthArg string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	tr, closeFn, err := opts.openTracker()
	if err != nil {
		return formatter.Fail(err)
	}
	defer closeFn()

	year, month, err := parseMonth(monthArg, tr.Now())
	if err != nil {
		return formatter.Fail(WrapExitError(ExitFailure, "invalid month", err))
	}

	result, err := tr.Month(cmd.Context(), year, month)
	if err != nil {
		return formatter.Fail(err)
	}
	report := result.Report()

	formatter.VerboseLog("Computed %d day(s), %d block(s)", len(report.Days), len(report.Blocks))
	if formatter.Verbose {
		if digest, err := ir.ReportDigest(report); err == nil {
			formatter.VerboseLog("Report digest: %s", digest)
		}
	}
	return formatter.Result(report, func(w io.Writer) {
		writeMonth(w, report, tr.Location())
	})
}

func writeMonth(w io.Writer, r engine.Report, loc *time.Location) {
	fmt.Fprintf(w, "%s %d (%s)\n\n", time.Month(r.Month), r.Year, loc)

	for _, d := range r.Days {
		var marks []string
		if d.IsFullAbsent {
			marks = append(marks, "full day away")
		}
		if d.IsMessReductionEligible {
			marks = append(marks, "mess reduction")
		}
		line := fmt.Sprintf("%3d  %-9s", d.Date, d.Classification)
		if len(marks) > 0 {
			line += "  " + strings.Join(marks, ", ")
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}

	fmt.Fprintln(w)
	if len(r.Blocks) == 0 {
		fmt.Fprintln(w, "No leave blocks.")
	} else {
		fmt.Fprintln(w, "Leave blocks:")
		for _, b := range r.Blocks {
			writeBlock(w, b)
		}
	}

	s := r.Summary
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Present: %d  Absent: %d (full: %d)  No data: %d\n",
		s.PresentDays, s.AbsentDays, s.FullAbsentDays, s.NoDataDays)
	fmt.Fprintf(w, "Mess reduction days: %d\n", s.MessReductionDays)
}

func writeBlock(w io.Writer, b ir.LeaveBlock) {
	span := fmt.Sprintf("%d", b.StartDay)
	if b.EndDay != b.StartDay {
		span = fmt.Sprintf("%d-%d", b.StartDay, b.EndDay)
	}
	verdict := "not eligible"
	if b.IsMessReductionEligible {
		verdict = "eligible"
	}
	fmt.Fprintf(w, "  %-6s %d day(s), %s\n", span, b.Length, verdict)
}
