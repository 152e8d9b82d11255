package vitals

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists vital-signs measurements.
type Repository interface {
	// CreateForAppointment inserts the measurement and moves the
	// appointment to the waiting state in one transaction. Returns
	// scheduling.ErrNotFound when the appointment does not exist.
	CreateForAppointment(ctx context.Context, v *VitalSigns) error
	ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*VitalSigns, error)
}
