package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mestrack/internal/engine"
	"github.com/roach88/mestrack/internal/ir"
	"github.com/roach88/mestrack/internal/testutil"
)

var testNow = time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)

// newTestOptions returns options over a fresh database with a frozen clock
// and sequential event IDs (e-1, e-2, ...).
func newTestOptions(t *testing.T) *RootOptions {
	t.Helper()
	return &RootOptions{
		Format:   "text",
		Database: filepath.Join(t.TempDir(), "mestrack.db"),
		Timezone: "UTC",
		Clock:    testutil.NewFixedClock(testNow),
		IDs:      testutil.NewSequentialIDGenerator("e"),
	}
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func mustLog(t *testing.T, opts *RootOptions, args ...string) {
	t.Helper()
	_, err := execute(t, NewLogCommand(opts), args...)
	require.NoError(t, err)
}

func TestLogAndStatus(t *testing.T) {
	opts := newTestOptions(t)

	out, err := execute(t, NewLogCommand(opts), "leave", "--at", "2025-03-05T08:00")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged: LEAVE   2025-03-05 08:00  e-1")
	assert.Contains(t, out, "State: ABSENT")

	out, err = execute(t, NewStatusCommand(opts))
	require.NoError(t, err)
	assert.Contains(t, out, "State: ABSENT")
	assert.Contains(t, out, "Last:  LEAVE at 2025-03-05 08:00")
	assert.Contains(t, out, "Next:  RETURN")
}

func TestStatusEmptyLog(t *testing.T) {
	opts := newTestOptions(t)

	out, err := execute(t, NewStatusCommand(opts))
	require.NoError(t, err)
	assert.Contains(t, out, "State: NO_DATA")
	assert.Contains(t, out, "Next:  LEAVE or RETURN")
	assert.NotContains(t, out, "Last:")
}

func TestLogAutoType(t *testing.T) {
	opts := newTestOptions(t)

	// Either type is legal on an empty log.
	out, err := execute(t, NewLogCommand(opts), "--at", "2025-03-05T08:00")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, IsReported(err))
	assert.Contains(t, out, "Error ["+ErrCodeTypeRequired+"]")

	mustLog(t, opts, "leave", "--at", "2025-03-05T08:00")

	out, err = execute(t, NewLogCommand(opts), "--at", "2025-03-10T18:00")
	require.NoError(t, err)
	assert.Contains(t, out, "RETURN  2025-03-10 18:00")
}

func TestLogClockTimeMeansToday(t *testing.T) {
	opts := newTestOptions(t)

	out, err := execute(t, NewLogCommand(opts), "leave", "--at", "07:15")
	require.NoError(t, err)
	assert.Contains(t, out, "LEAVE   2025-03-20 07:15")
}

func TestLogRejectsFuture(t *testing.T) {
	opts := newTestOptions(t)

	out, err := execute(t, NewLogCommand(opts), "leave", "--at", "2025-03-21T08:00")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeFutureTimestamp+"]")
}

func TestLogRejectsBadInput(t *testing.T) {
	opts := newTestOptions(t)

	out, err := execute(t, NewLogCommand(opts), "sideways")
	require.Error(t, err)
	assert.Contains(t, out, "Error ["+ErrCodeInvalidInput+"]")

	out, err = execute(t, NewLogCommand(opts), "leave", "--at", "yesterday")
	require.Error(t, err)
	assert.Contains(t, out, "invalid time")
}

func TestLogRemovesConflicts(t *testing.T) {
	opts := newTestOptions(t)
	mustLog(t, opts, "leave", "--at", "2025-03-01T08:00")
	mustLog(t, opts, "return", "--at", "2025-03-10T08:00")

	out, err := execute(t, NewLogCommand(opts), "return", "--at", "2025-03-04T12:00")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged: RETURN  2025-03-04 12:00  e-3")
	assert.Contains(t, out, "Removed 1 conflicting event(s):")
	assert.Contains(t, out, "RETURN  2025-03-10 08:00  e-2")
}

func TestEditAndDelete(t *testing.T) {
	opts := newTestOptions(t)
	mustLog(t, opts, "leave", "--at", "2025-03-05T08:00")

	out, err := execute(t, NewEditCommand(opts), "e-1", "--at", "2025-03-02T07:00")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated: LEAVE   2025-03-02 07:00  e-1")

	out, err = execute(t, NewEditCommand(opts), "e-1", "--type", "return")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated: RETURN  2025-03-02 07:00  e-1")
	assert.Contains(t, out, "State: PRESENT")

	out, err = execute(t, NewDeleteCommand(opts), "e-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted: RETURN")
	assert.Contains(t, out, "State: NO_DATA")

	out, err = execute(t, NewDeleteCommand(opts), "e-1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeEventNotFound+"]")
}

func TestDeleteUnknownJSON(t *testing.T) {
	opts := newTestOptions(t)
	opts.Format = "json"

	out, err := execute(t, NewDeleteCommand(opts), "missing")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeEventNotFound, resp.Error.Code)
	assert.Equal(t, map[string]any{"id": "missing"}, resp.Error.Details)
}

func TestEventsListAndClear(t *testing.T) {
	opts := newTestOptions(t)

	out, err := execute(t, NewEventsCommand(opts))
	require.NoError(t, err)
	assert.Contains(t, out, "No events logged.")

	mustLog(t, opts, "leave", "--at", "2025-03-05T08:00")
	mustLog(t, opts, "return", "--at", "2025-03-06T20:00")

	out, err = execute(t, NewEventsCommand(opts))
	require.NoError(t, err)
	assert.Contains(t, out, "LEAVE   2025-03-05 08:00  e-1")
	assert.Contains(t, out, "RETURN  2025-03-06 20:00  e-2")
	assert.Contains(t, out, "2 event(s)")

	out, err = execute(t, NewEventsCommand(opts), "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, "All events deleted.")

	out, err = execute(t, NewEventsCommand(opts))
	require.NoError(t, err)
	assert.Contains(t, out, "No events logged.")
}

func TestEventsJSON(t *testing.T) {
	opts := newTestOptions(t)
	mustLog(t, opts, "leave", "--at", "2025-03-05T08:00")
	opts.Format = "json"

	out, err := execute(t, NewEventsCommand(opts))
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   []ir.Event `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "e-1", resp.Data[0].ID)
	assert.Equal(t, ir.EventLeave, resp.Data[0].Type)
	assert.True(t, resp.Data[0].Timestamp.Equal(time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)))
}

func TestMonthText(t *testing.T) {
	opts := newTestOptions(t)
	mustLog(t, opts, "leave", "--at", "2025-03-05T08:00")
	mustLog(t, opts, "return", "--at", "2025-03-10T20:00")

	out, err := execute(t, NewMonthCommand(opts), "2025-03")
	require.NoError(t, err)
	assert.Contains(t, out, "March 2025 (UTC)")
	assert.Contains(t, out, "  5  LEAVING    full day away, mess reduction")
	assert.Contains(t, out, " 10  RETURNING  full day away, mess reduction")
	assert.Contains(t, out, " 11  PRESENT\n")
	assert.Contains(t, out, "5-10   6 day(s), eligible")
	assert.Contains(t, out, "Present: 10  Absent: 6 (full: 6)  No data: 15")
	assert.Contains(t, out, "Mess reduction days: 6")
}

func TestMonthDefaultsToCurrent(t *testing.T) {
	opts := newTestOptions(t)

	out, err := execute(t, NewMonthCommand(opts))
	require.NoError(t, err)
	assert.Contains(t, out, "March 2025")
	assert.Contains(t, out, "No leave blocks.")
}

func TestMonthJSON(t *testing.T) {
	opts := newTestOptions(t)
	mustLog(t, opts, "leave", "--at", "2025-03-05T08:00")
	mustLog(t, opts, "return", "--at", "2025-03-10T20:00")
	opts.Format = "json"

	out, err := execute(t, NewMonthCommand(opts), "2025-03")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   engine.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2025, resp.Data.Year)
	assert.Equal(t, 3, resp.Data.Month)
	assert.Len(t, resp.Data.Days, 31)
	assert.Equal(t, []int{5, 6, 7, 8, 9, 10}, resp.Data.EligibleDays)
	require.Len(t, resp.Data.Blocks, 1)
	assert.Equal(t, 6, resp.Data.Blocks[0].Length)
	assert.Equal(t, 6, resp.Data.Summary.MessReductionDays)
}

func TestMonthInvalidArgument(t *testing.T) {
	opts := newTestOptions(t)

	out, err := execute(t, NewMonthCommand(opts), "March")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "want YYYY-MM")
}

func TestSettingsShowAndSet(t *testing.T) {
	opts := newTestOptions(t)

	out, err := execute(t, NewSettingsCommand(opts), "show")
	require.NoError(t, err)
	assert.Contains(t, out, "X:      3 day(s)")
	assert.Contains(t, out, "Y_time: 09:00")
	assert.Contains(t, out, "Z_time: 17:00")

	out, err = execute(t, NewSettingsCommand(opts), "set", "--x", "4", "--z", "18:00")
	require.NoError(t, err)
	assert.Contains(t, out, "Settings updated.")
	assert.Contains(t, out, "X:      4 day(s)")
	assert.Contains(t, out, "Y_time: 09:00")
	assert.Contains(t, out, "Z_time: 18:00")

	// Bare "settings" shows the stored values.
	out, err = execute(t, NewSettingsCommand(opts))
	require.NoError(t, err)
	assert.Contains(t, out, "X:      4 day(s)")
}

func TestSettingsSetRejectsInvalid(t *testing.T) {
	opts := newTestOptions(t)

	out, err := execute(t, NewSettingsCommand(opts), "set", "--x", "0")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeInvalidSettings+"]")

	out, err = execute(t, NewSettingsCommand(opts), "set", "--y", "25:00")
	require.Error(t, err)
	assert.Contains(t, out, "Error ["+ErrCodeInvalidSettings+"]")

	_, err = execute(t, NewSettingsCommand(opts), "set")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to set")

	out, err = execute(t, NewSettingsCommand(opts), "show")
	require.NoError(t, err)
	assert.Contains(t, out, "X:      3 day(s)")
}

func TestSettingsSetFromFile(t *testing.T) {
	opts := newTestOptions(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("x: 5\ny_time: \"08:30\"\n"), 0o644))

	// Flags win over the file.
	out, err := execute(t, NewSettingsCommand(opts), "set", "--file", path, "--y", "08:45")
	require.NoError(t, err)
	assert.Contains(t, out, "X:      5 day(s)")
	assert.Contains(t, out, "Y_time: 08:45")
	assert.Contains(t, out, "Z_time: 17:00")

	bad := filepath.Join(dir, "typo.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("xx: 5\n"), 0o644))

	out, err = execute(t, NewSettingsCommand(opts), "set", "--file", bad)
	require.Error(t, err)
	assert.Contains(t, out, "field xx not found")
}

func TestExportAndImport(t *testing.T) {
	src := newTestOptions(t)
	mustLog(t, src, "leave", "--at", "2025-03-05T08:00")
	mustLog(t, src, "return", "--at", "2025-03-09T20:00")
	_, err := execute(t, NewSettingsCommand(src), "set", "--x", "2")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "backup.json")
	out, err := execute(t, NewExportCommand(src), "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 event(s) to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var snap ir.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, ir.SnapshotVersion, snap.Version)
	assert.Len(t, snap.Events, 2)
	assert.Equal(t, 2, snap.Settings.X)

	dst := newTestOptions(t)
	mustLog(t, dst, "leave", "--at", "2025-03-01T08:00")

	out, err = execute(t, NewImportCommand(dst), path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 event(s)")

	out, err = execute(t, NewEventsCommand(dst))
	require.NoError(t, err)
	assert.Contains(t, out, "LEAVE   2025-03-05 08:00  e-1")
	assert.Contains(t, out, "RETURN  2025-03-09 20:00  e-2")
	assert.NotContains(t, out, "2025-03-01")

	out, err = execute(t, NewSettingsCommand(dst), "show")
	require.NoError(t, err)
	assert.Contains(t, out, "X:      2 day(s)")
}

func TestExportToStdout(t *testing.T) {
	opts := newTestOptions(t)
	mustLog(t, opts, "leave", "--at", "2025-03-05T08:00")

	out, err := execute(t, NewExportCommand(opts), "--out", "-")
	require.NoError(t, err)

	var snap ir.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Len(t, snap.Events, 1)
	assert.True(t, snap.ExportedAt.Equal(testNow))
}

func TestImportRejectsInvalidBackup(t *testing.T) {
	opts := newTestOptions(t)
	mustLog(t, opts, "leave", "--at", "2025-03-05T08:00")

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"events":null,"settings":{}}`), 0o644))

	out, err := execute(t, NewImportCommand(opts), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeImportFailed+"]")

	out, err = execute(t, NewEventsCommand(opts))
	require.NoError(t, err)
	assert.Contains(t, out, "LEAVE   2025-03-05 08:00  e-1")
}

func TestImportMissingFile(t *testing.T) {
	opts := newTestOptions(t)

	_, err := execute(t, NewImportCommand(opts), filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
