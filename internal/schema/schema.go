package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/mestrack/internal/ir"
)

//go:embed mestrack.cue
var schemaCUE string

// ValidationError describes one violation of a record definition.
type ValidationError struct {
	// Definition is the CUE definition that rejected the record, e.g. "#Settings".
	Definition string

	// Field is the dotted path of the offending field, empty for whole-record errors.
	Field string

	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s.%s: %s", e.Definition, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Definition, e.Message)
}

// Validator holds the compiled definitions.
//
// Thread-safety: a cue.Context is not safe for concurrent use, so every
// validation runs under the internal mutex.
type Validator struct {
	mu       sync.Mutex
	ctx      *cue.Context
	settings cue.Value
	event    cue.Value
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(schemaCUE, cue.Filename("mestrack.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	v := &Validator{
		ctx:      ctx,
		settings: root.LookupPath(cue.ParsePath("#Settings")),
		event:    root.LookupPath(cue.ParsePath("#Event")),
	}
	for name, def := range map[string]cue.Value{"#Settings": v.settings, "#Event": v.event} {
		if !def.Exists() {
			return nil, fmt.Errorf("compile schema: definition %s not found", name)
		}
	}
	return v, nil
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
	defaultErr       error
)

// Default returns a process-wide validator, compiling it on first use.
func Default() (*Validator, error) {
	defaultOnce.Do(func() {
		defaultValidator, defaultErr = NewValidator()
	})
	return defaultValidator, defaultErr
}

// ValidateSettings checks s against #Settings.
func (v *Validator) ValidateSettings(s ir.Settings) error {
	return v.validate("#Settings", v.settings, s)
}

// ValidateEvent checks e against #Event.
func (v *Validator) ValidateEvent(e ir.Event) error {
	return v.validate("#Event", v.event, e)
}

// ValidateEvents checks every event and returns the first violation.
func (v *Validator) ValidateEvents(events []ir.Event) error {
	for _, e := range events {
		if err := v.ValidateEvent(e); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) validate(name string, def cue.Value, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	value := v.ctx.CompileBytes(data)
	if err := value.Err(); err != nil {
		return fmt.Errorf("compile %s: %w", name, err)
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return toValidationError(name, err)
	}
	return nil
}

// toValidationError reduces a CUE error list to its first entry.
func toValidationError(name string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{Definition: name, Message: err.Error()}
	}
	first := errs[0]
	path := first.Path()
	if len(path) > 0 && path[0] == name {
		path = path[1:]
	}
	format, args := first.Msg()
	return &ValidationError{
		Definition: name,
		Field:      strings.Join(path, "."),
		Message:    fmt.Sprintf(format, args...),
	}
}
