package pharmacy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrMedicationNotFound   = errors.New("medication not found")
	ErrPrescriptionNotFound = errors.New("prescription not found")
	// ErrAlreadyDelivered means the prescription is fully delivered and
	// admits no further authorization.
	ErrAlreadyDelivered = errors.New("prescription already delivered")
)

// OutOfStockError names the medication that blocked a delivery.
type OutOfStockError struct {
	MedicationID uuid.UUID
	Name         string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("%s out of stock", e.Name)
}

// UnknownMedicationError names the prescription line that references a
// medication not in the catalog.
type UnknownMedicationError struct {
	MedicationID uuid.UUID
}

func (e *UnknownMedicationError) Error() string {
	return fmt.Sprintf("unknown medication %s", e.MedicationID)
}

type MedicationRepository interface {
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medication, error)
	List(ctx context.Context, limit, offset int) ([]*Medication, int, error)
	Update(ctx context.Context, m *Medication) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type PrescriptionRepository interface {
	// Create inserts the prescription and its items in one transaction.
	// Fails with *UnknownMedicationError when an item references a
	// medication not in the catalog.
	Create(ctx context.Context, p *Prescription) error
	// GetByID returns the prescription with items enriched with medication
	// name and current stock.
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error)
	// ListPending returns prescriptions still owing items (pending or
	// partial), items enriched.
	ListPending(ctx context.Context) ([]*Prescription, error)
	// Deliver hands out the given undelivered items in one transaction:
	// checks stock, decrements it by the estimated units, marks the items
	// delivered and advances the prescription status (partial, or delivered
	// with DeliveredOn stamped when nothing is left). A nil or empty
	// medicationIDs delivers every remaining item. Fails with
	// *OutOfStockError when any requested item has no stock.
	Deliver(ctx context.Context, prescriptionID uuid.UUID, medicationIDs []uuid.UUID, estimate func(item *PrescriptionItem) int) (*Prescription, error)
}
