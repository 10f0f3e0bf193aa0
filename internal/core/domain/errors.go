package domain

import (
	"errors"
	"fmt"
)

// ErrDegenerateInput is returned when three references cannot define a
// unique trilateration frame.
var ErrDegenerateInput = errors.New("degenerate input")

var (
	// ErrDegenerateBaseline: the first two references coincide in planar space.
	ErrDegenerateBaseline = fmt.Errorf("%w: references 1 and 2 coincide, no baseline direction", ErrDegenerateInput)
	// ErrDegenerateConfiguration: the third reference is collinear with the first two.
	ErrDegenerateConfiguration = fmt.Errorf("%w: reference 3 is collinear with references 1 and 2", ErrDegenerateInput)
)

var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidDistance    = errors.New("invalid distance")
	ErrInvalidArea        = errors.New("invalid area")
	ErrNoCandidates       = errors.New("no candidates found")
	ErrNotFound           = errors.New("not found")
	ErrUpstream           = errors.New("upstream unavailable")
)

// NoCandidatesError carries the lookup that produced no candidates and,
// when one is known, a close amenity tag the caller may have meant.
type NoCandidatesError struct {
	Area       string
	Amenity    string
	Suggestion string
}

func (e *NoCandidatesError) Error() string {
	msg := fmt.Sprintf("no %q amenities found in %s", e.Amenity, e.Area)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

func (e *NoCandidatesError) Unwrap() error { return ErrNoCandidates }
