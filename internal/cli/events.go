package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/mestrack/internal/ir"
	"github.com/roach88/mestrack/internal/tracker"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether you are currently in or out",
		Long: `Show the current presence state, the last logged event and the
type the next event must have.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	tr, closeFn, err := opts.openTracker()
	if err != nil {
		return formatter.Fail(err)
	}
	defer closeFn()

	status, err := tr.Status(cmd.Context())
	if err != nil {
		return formatter.Fail(err)
	}

	return formatter.Result(status, func(w io.Writer) {
		writeStatus(w, status, tr.Location())
	})
}

func writeStatus(w io.Writer, status tracker.Status, loc *time.Location) {
	fmt.Fprintf(w, "State: %s\n", status.State)
	if status.Last != nil {
		fmt.Fprintf(w, "Last:  %s at %s\n", status.Last.Type, status.Last.Timestamp.In(loc).Format(displayLayout))
	}
	if status.Next == ir.EventAny {
		fmt.Fprintln(w, "Next:  LEAVE or RETURN")
	} else {
		fmt.Fprintf(w, "Next:  %s\n", status.Next)
	}
}

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	At string
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log [leave|return]",
		Short: "Log a LEAVE or RETURN",
		Long: `Log a LEAVE or RETURN event, now or at an earlier time.

Without a type, the only type that keeps the history alternating is used.
If the history is empty, the type must be given.

Any later or earlier event that would no longer alternate is removed and
reported.

Examples:
  mestrack log leave
  mestrack log return --at 18:30
  mestrack log --at 2025-03-05T08:00`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			typeArg := ""
			if len(args) == 1 {
				typeArg = args[0]
			}
			return runLog(opts, typeArg, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.At, "at", "", "when it happened (HH:mm, YYYY-MM-DDTHH:mm or RFC 3339; default now)")

	return cmd
}

func runLog(opts *LogOptions, typeArg string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	typ, err := parseOptionalType(typeArg)
	if err != nil {
		return formatter.Fail(WrapExitError(ExitFailure, "invalid type", err))
	}

	tr, closeFn, err := opts.openTracker()
	if err != nil {
		return formatter.Fail(err)
	}
	defer closeFn()

	at, err := parseInstant(opts.At, tr.Now(), tr.Location())
	if err != nil {
		return formatter.Fail(WrapExitError(ExitFailure, "invalid --at", err))
	}

	m, err := tr.LogEvent(cmd.Context(), typ, at)
	if err != nil {
		return formatter.Fail(err)
	}

	return formatter.Result(m, func(w io.Writer) {
		writeMutation(w, "Logged", m, tr.Location())
	})
}

// EditOptions holds flags for the edit command.
type EditOptions struct {
	*RootOptions
	Type string
	At   string
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the type or time of a logged event",
		Long: `Change the type and/or time of an existing event.

Flags that are not given keep their current value. Neighbours that would
no longer alternate are removed, as with log.

Examples:
  mestrack edit 0193... --at 2025-03-05T07:45
  mestrack edit 0193... --type return`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Type, "type", "", "new type (leave|return)")
	cmd.Flags().StringVar(&opts.At, "at", "", "new time (HH:mm, YYYY-MM-DDTHH:mm or RFC 3339)")

	return cmd
}

func runEdit(opts *EditOptions, id string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	typ, err := parseOptionalType(opts.Type)
	if err != nil {
		return formatter.Fail(WrapExitError(ExitFailure, "invalid --type", err))
	}

	tr, closeFn, err := opts.openTracker()
	if err != nil {
		return formatter.Fail(err)
	}
	defer closeFn()

	at, err := parseInstant(opts.At, tr.Now(), tr.Location())
	if err != nil {
		return formatter.Fail(WrapExitError(ExitFailure, "invalid --at", err))
	}

	m, err := tr.EditEvent(cmd.Context(), id, typ, at)
	if err != nil {
		return formatter.Fail(err)
	}

	return formatter.Result(m, func(w io.Writer) {
		writeMutation(w, "Updated", m, tr.Location())
	})
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a logged event",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(rootOpts, args[0], cmd)
		},
	}
}

func runDelete(opts *RootOptions, id string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	tr, closeFn, err := opts.openTracker()
	if err != nil {
		return formatter.Fail(err)
	}
	defer closeFn()

	m, err := tr.DeleteEvent(cmd.Context(), id)
	if err != nil {
		return formatter.Fail(err)
	}

	return formatter.Result(m, func(w io.Writer) {
		writeMutation(w, "Deleted", m, tr.Location())
	})
}

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	Clear bool
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List every logged event",
		Long: `List every logged event in time order.

With --clear, delete the whole history instead. Settings are kept.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Clear, "clear", false, "delete every event")

	return cmd
}

func runEvents(opts *EventsOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	tr, closeFn, err := opts.openTracker()
	if err != nil {
		return formatter.Fail(err)
	}
	defer closeFn()

	if opts.Clear {
		if err := tr.ClearEvents(cmd.Context()); err != nil {
			return formatter.Fail(err)
		}
		return formatter.Result(map[string]bool{"cleared": true}, func(w io.Writer) {
			fmt.Fprintln(w, "All events deleted.")
		})
	}

	events, err := tr.Events(cmd.Context())
	if err != nil {
		return formatter.Fail(err)
	}

	return formatter.Result(events, func(w io.Writer) {
		if len(events) == 0 {
			fmt.Fprintln(w, "No events logged.")
			return
		}
		for _, e := range events {
			writeEventLine(w, e, tr.Location())
		}
		fmt.Fprintf(w, "\n%d event(s)\n", len(events))
	})
}

// parseOptionalType accepts "", leave or return in any of the spellings
// ir.ParseEventType knows.
func parseOptionalType(value string) (ir.EventType, error) {
	if value == "" {
		return "", nil
	}
	return ir.ParseEventType(strings.TrimSpace(value))
}

func writeEventLine(w io.Writer, e ir.Event, loc *time.Location) {
	fmt.Fprintf(w, "%-6s  %s  %s\n", e.Type, e.Timestamp.In(loc).Format(displayLayout), e.ID)
}

func writeMutation(w io.Writer, verb string, m tracker.Mutation, loc *time.Location) {
	fmt.Fprintf(w, "%s: ", verb)
	writeEventLine(w, m.Event, loc)
	if len(m.Deleted) > 0 {
		fmt.Fprintf(w, "Removed %d conflicting event(s):\n", len(m.Deleted))
		for _, e := range m.Deleted {
			fmt.Fprint(w, "  ")
			writeEventLine(w, e, loc)
		}
	}
	fmt.Fprintf(w, "State: %s\n", m.Status.State)
}
