// Package schema validates records against the CUE definitions in mestrack.cue
// before they are committed to the store.
//
// Records are validated in their wire form: the ir value is encoded to JSON,
// compiled as a CUE value and unified with the closed definition. Any field
// outside the definition, a missing field, or a bound violation is an error.
package schema
