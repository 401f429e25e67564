// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrInvalidState indicates that an operation is not allowed
// in the entity's current state (cancelling a paid reservation, drawing
// a winner on a completed round), while ErrConflict signals that an
// operation cannot proceed because conflicting records already exist
// (e.g. initializing squares twice for the same round).
package repository

import (
    "errors"
    "fmt"
    "strings"
)

// ErrRoundNotFound is returned when a round lookup yields no rows.
var ErrRoundNotFound = errors.New("round not found")

// ErrParticipantNotFound is returned when a participant lookup yields no rows.
var ErrParticipantNotFound = errors.New("participant not found")

// ErrSquareNotFound is returned when a square lookup yields no rows.
var ErrSquareNotFound = errors.New("square not found")

// ErrConflict is returned when an insert or update cannot be performed
// because of conflicting existing state. Handlers should translate this
// into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrInvalidState is returned when an operation is rejected because the
// target entity is not in a state that permits it. Handlers should
// translate this into an HTTP 409 response.
var ErrInvalidState = errors.New("invalid state")

// UnavailableError reports the square numbers that blocked a
// reservation. The whole request is rejected when any requested square
// is not available, and clients use the enumerated numbers to deselect
// just the conflicting squares.
type UnavailableError struct {
    Numbers []int
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
    parts := make([]string, 0, len(e.Numbers))
    for _, n := range e.Numbers {
        parts = append(parts, fmt.Sprintf("%d", n))
    }
    return fmt.Sprintf("squares %s are not available", strings.Join(parts, ", "))
}
