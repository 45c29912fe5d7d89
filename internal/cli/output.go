package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/mestrack/internal/tracker"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected input or failed scenarios
	ExitCommandError = 2 // Command error (invalid paths, database not found, etc.)
)

// Error codes reported in CLIError.Code.
const (
	ErrCodeGeneric         = "E001" // Generic/unknown error
	ErrCodeInvalidInput    = "E002" // Bad argument or flag value
	ErrCodeDatabase        = "E003" // Database could not be opened or read
	ErrCodeEventNotFound   = "E004" // No event with the given ID
	ErrCodeFutureTimestamp = "E005" // Event placed after now
	ErrCodeTypeRequired    = "E006" // Either type is legal, caller must choose
	ErrCodeInvalidSettings = "E007" // Settings failed validation
	ErrCodeImportFailed    = "E008" // Backup rejected
	ErrCodeWriteFailed     = "E009" // File write error
	ErrCodeScenarioFailed  = "E010" // One or more scenarios failed
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set once the error has been written through an
	// OutputFormatter, so main does not print it a second time.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// IsReported returns true if err was already shown to the user.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
// Text output uses the value's default formatting; commands with a richer
// text rendering call Text instead.
func (f *OutputFormatter) Success(data any) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Result writes data as a JSON envelope, or calls text to render it for humans.
func (f *OutputFormatter) Result(data any, text func(w io.Writer)) error {
	if f.JSON() {
		return f.Success(data)
	}
	text(f.Writer)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err through the formatter and returns an ExitError carrying
// the matching exit code.
func (f *OutputFormatter) Fail(err error) error {
	code, exitCode := classifyError(err)

	var details any
	var me *tracker.MutationError
	if errors.As(err, &me) && me.EventID != "" {
		details = map[string]string{"id": me.EventID}
	}

	if writeErr := f.Error(code, err.Error(), details); writeErr != nil {
		return writeErr
	}
	return &ExitError{Code: exitCode, Message: err.Error(), Err: err, Reported: true}
}

// classifyError maps err to a CLI error code and process exit code.
func classifyError(err error) (string, int) {
	switch {
	case tracker.IsNotFoundError(err):
		return ErrCodeEventNotFound, ExitFailure
	case tracker.IsFutureError(err):
		return ErrCodeFutureTimestamp, ExitFailure
	case tracker.IsTypeRequiredError(err):
		return ErrCodeTypeRequired, ExitFailure
	case tracker.IsValidationError(err):
		var me *tracker.MutationError
		if errors.As(err, &me) && me.Code == tracker.ErrCodeInvalidSettings {
			return ErrCodeInvalidSettings, ExitFailure
		}
		return ErrCodeInvalidInput, ExitFailure
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Code == ExitCommandError {
			return ErrCodeDatabase, exitErr.Code
		}
		return ErrCodeInvalidInput, exitErr.Code
	}
	return ErrCodeGeneric, ExitCommandError
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// JSON reports whether output is machine-readable.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}
