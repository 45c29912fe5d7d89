package harness

import (
	"github.com/roach88/mestrack/internal/engine"
	"github.com/roach88/mestrack/internal/ir"
)

// StepOutcome records what one mutation step did.
type StepOutcome struct {
	Kind string `json:"kind"`

	// At is the step instant in the scenario's layout, empty for deletes.
	At string `json:"at,omitempty"`

	// Type is the inserted type, or the answer of a next-type query.
	Type ir.EventType `json:"type,omitempty"`

	// EventID is the inserted or deleted event.
	EventID string `json:"id,omitempty"`

	// Deleted lists conflicting events removed by an insert.
	Deleted []string `json:"deleted,omitempty"`

	// Error is the MutationError code when the step was rejected.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation matched.
	Pass bool `json:"pass"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Steps holds one outcome per mutation, in order.
	Steps []StepOutcome `json:"steps"`

	// Events is the final log.
	Events []ir.Event `json:"events"`

	// State is the current state at now after all mutations.
	State ir.State `json:"state"`

	// Report is the computed month after all mutations.
	Report engine.Report `json:"report"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
		Steps:  []StepOutcome{},
		Events: []ir.Event{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
