package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AppointmentRepository is the authoritative appointment store.
type AppointmentRepository interface {
	// Book atomically validates and inserts an appointment. The guard runs
	// inside a scope serialized per (provider, date) and receives every
	// non-terminal appointment for that provider and date; the insert only
	// happens when the guard returns nil. Two concurrent Book calls for the
	// same provider and date never both see a stale view; calls for
	// different providers or dates proceed independently.
	Book(ctx context.Context, a *Appointment, guard func(existing []*Appointment) error) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	// ListActiveByProvider returns non-terminal appointments for a provider
	// from the given date onward, ordered by date then start time ascending.
	ListActiveByProvider(ctx context.Context, providerID uuid.UUID, from time.Time) ([]*Appointment, error)
	ListByDate(ctx context.Context, date time.Time) ([]*Appointment, error)
}

// WorkingHoursRepository is the per-provider, per-weekday registry of
// working intervals.
type WorkingHoursRepository interface {
	// GetForWeekday returns the provider's interval for the weekday, or nil
	// when none is registered.
	GetForWeekday(ctx context.Context, providerID uuid.UUID, weekday string) (*WorkingInterval, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*WorkingInterval, error)
	// ReplaceForProvider swaps the provider's whole weekly set in one
	// transaction.
	ReplaceForProvider(ctx context.Context, providerID uuid.UUID, intervals []*WorkingInterval) error
}
