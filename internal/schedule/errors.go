package schedule

import (
	"errors"
	"fmt"

	"github.com/roach88/rota/internal/ir"
)

// ErrorCode categorizes malformed schedule input.
type ErrorCode string

const (
	// ErrCodeDuplicateSlot means two slots assign the same position at the
	// same time.
	ErrCodeDuplicateSlot ErrorCode = "DUPLICATE_SLOT"

	// ErrCodeDoubleBooked means one individual holds two positions at the
	// same time.
	ErrCodeDoubleBooked ErrorCode = "DOUBLE_BOOKED"

	// ErrCodeOffTimeline means a slot's time is not on the declared
	// timeline.
	ErrCodeOffTimeline ErrorCode = "OFF_TIMELINE"

	// ErrCodeEmptyPosition means a slot names no position.
	ErrCodeEmptyPosition ErrorCode = "EMPTY_POSITION"

	// ErrCodeEmptyIndividual means a slot names no individual.
	ErrCodeEmptyIndividual ErrorCode = "EMPTY_INDIVIDUAL"

	// ErrCodeInvalidTime means a time is outside a single day or could not
	// be parsed.
	ErrCodeInvalidTime ErrorCode = "INVALID_TIME"

	// ErrCodeMalformed means the input document itself could not be read.
	ErrCodeMalformed ErrorCode = "MALFORMED"
)

// Error reports malformed schedule input. A schedule that fails with an
// Error is never validated.
type Error struct {
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Line is the 1-based input line, or 0 when the schedule was built in
	// code.
	Line int

	Position   string
	Time       *ir.ClockTime
	Individual string
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

// IsScheduleError reports whether err is or wraps a schedule Error.
func IsScheduleError(err error) bool {
	var se *Error
	return errors.As(err, &se)
}

// HasCode reports whether err is or wraps a schedule Error with code.
func HasCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}
