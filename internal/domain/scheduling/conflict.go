package scheduling

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInvalidRange means the candidate interval has start >= end.
	ErrInvalidRange = errors.New("start time must be before end time")
	// ErrOutsideWorkingHours means the candidate does not fit inside the
	// provider's working interval for that weekday.
	ErrOutsideWorkingHours = errors.New("appointment is outside the provider's working hours")
	// ErrNoScheduleForDay means the provider has no working interval
	// registered for the candidate's weekday.
	ErrNoScheduleForDay = errors.New("provider has no schedule for that day")
	// ErrNotFound means the appointment does not exist.
	ErrNotFound = errors.New("appointment not found")
	// ErrTerminalState means the appointment is completed or missed and
	// admits no further transitions.
	ErrTerminalState = errors.New("appointment is in a terminal state")
	// ErrInvalidTransition means the state machine forbids the requested
	// transition.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// ConflictError reports an overlap with an existing booking.
type ConflictError struct {
	ExistingID uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("provider already has an appointment in that slot (%s)", e.ExistingID)
}

// Overlaps reports whether two half-open intervals [aStart,aEnd) and
// [bStart,bEnd) intersect. Touching boundaries (aEnd == bStart) do not
// overlap, so back-to-back appointments are legal.
func Overlaps(aStart, aEnd, bStart, bEnd ClockTime) bool {
	return aStart < bEnd && aEnd > bStart
}

// CheckConflict decides whether a candidate [start,end) interval may be
// booked against the given same-provider, same-date appointments. Terminal
// appointments never conflict. Returns ErrInvalidRange when start >= end,
// a *ConflictError naming the first overlapping booking, or nil.
func CheckConflict(start, end ClockTime, existing []*Appointment) error {
	if start >= end {
		return ErrInvalidRange
	}
	for _, appt := range existing {
		if appt.Status.IsTerminal() {
			continue
		}
		if Overlaps(appt.StartTime, appt.EndTime, start, end) {
			return &ConflictError{ExistingID: appt.ID}
		}
	}
	return nil
}

// WithinWorkingHours reports whether the candidate [start,end) fits inside
// the working interval: interval.Start <= start < interval.End and
// interval.Start < end <= interval.End. Boundaries are inclusive only at the
// extremes, so a candidate may begin exactly at opening or finish exactly at
// closing, but may not collapse onto either edge.
func WithinWorkingHours(interval *WorkingInterval, start, end ClockTime) bool {
	return interval.StartTime <= start && start < interval.EndTime &&
		interval.StartTime < end && end <= interval.EndTime
}
