package compiler

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Config error codes (E100-E199)
const (
	ErrWrongType            = "E100" // field has the wrong type
	ErrEmptyPositions       = "E101" // rule names no positions
	ErrNonPositiveLimit     = "E102" // max consecutive slots < 1
	ErrInvertedWindow       = "E103" // start_time not before end_time
	ErrInvalidTime          = "E104" // unparseable clock string
	ErrDuplicatePosition    = "E105" // position listed twice in one rule
	ErrUnknownPosition      = "E106" // position not in the catalogue
	ErrAmbiguousLimit       = "E107" // both limit keys present
	ErrMissingLimit         = "E108" // neither limit key present
	ErrUnknownFocusPosition = "E109" // focus position not in the catalogue
	ErrUnreadableDocument   = "E110" // syntax error, non-concrete value, I/O
	ErrMissingRules         = "E111" // no position_rules section
)

// ConfigError is a malformed or semantically invalid rules document entry.
type ConfigError struct {
	Code    string    `json:"code"`
	Field   string    `json:"field"`
	Message string    `json:"message"`
	Pos     token.Pos `json:"-"`
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
}

// Line returns the source line of the error, or 0 when unknown.
func (e *ConfigError) Line() int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// ConfigErrors collects every problem found in one document. A load that
// returns ConfigErrors produced no rule set.
type ConfigErrors []*ConfigError

// Error implements the error interface.
func (errs ConfigErrors) Error() string {
	switch len(errs) {
	case 0:
		return "no config errors"
	case 1:
		return errs[0].Error()
	}
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.Error()
	}
	return fmt.Sprintf("%d config errors:\n  %s", len(errs), strings.Join(lines, "\n  "))
}

// Unwrap exposes each ConfigError to errors.As and errors.Is.
func (errs ConfigErrors) Unwrap() []error {
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return out
}

// IsConfigError reports whether err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// HasCode reports whether err carries a ConfigError with the given code.
func HasCode(err error, code string) bool {
	var all ConfigErrors
	if errors.As(err, &all) {
		for _, e := range all {
			if e.Code == code {
				return true
			}
		}
		return false
	}
	var ce *ConfigError
	return errors.As(err, &ce) && ce.Code == code
}

// formatCUEError converts a CUE error into ConfigErrors, keeping the
// position of each underlying error.
func formatCUEError(err error, field string) ConfigErrors {
	if err == nil {
		return nil
	}
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return ConfigErrors{{Code: ErrUnreadableDocument, Field: field, Message: err.Error()}}
	}
	out := make(ConfigErrors, 0, len(list))
	for _, e := range list {
		ce := &ConfigError{Code: ErrUnreadableDocument, Field: field, Message: e.Error()}
		if positions := cueerrors.Positions(e); len(positions) > 0 {
			ce.Pos = positions[0]
		}
		out = append(out, ce)
	}
	return out
}
