package pharmacy

import (
	"time"

	"github.com/google/uuid"
)

// Medication is one stocked pharmacy item.
type Medication struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Description   string    `db:"description" json:"description,omitempty"`
	Concentration string    `db:"concentration" json:"concentration,omitempty"`
	Stock         int       `db:"stock" json:"stock"`
	UnitPrice     float64   `db:"unit_price" json:"unit_price"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// PrescriptionStatus tracks delivery progress. A prescription starts pending,
// becomes partial when some but not all items were handed out, and delivered
// once every item was.
type PrescriptionStatus string

const (
	PrescriptionPending   PrescriptionStatus = "pending"
	PrescriptionPartial   PrescriptionStatus = "partial"
	PrescriptionDelivered PrescriptionStatus = "delivered"
)

// Prescription is issued by the physician of an appointment. One prescription
// per appointment.
type Prescription struct {
	ID            uuid.UUID           `db:"id" json:"id"`
	AppointmentID uuid.UUID           `db:"appointment_id" json:"appointment_id"`
	IssuedOn      time.Time           `db:"issued_on" json:"issued_on"`
	DeliveredOn   *time.Time          `db:"delivered_on" json:"delivered_on,omitempty"`
	Status        PrescriptionStatus  `db:"status" json:"status"`
	Notes         string              `db:"notes" json:"notes,omitempty"`
	Items         []*PrescriptionItem `json:"items"`
}

// PrescriptionItem is one medication line on a prescription. Delivered is
// flipped when the pharmacy hands the item out.
type PrescriptionItem struct {
	PrescriptionID uuid.UUID `db:"prescription_id" json:"prescription_id"`
	MedicationID   uuid.UUID `db:"medication_id" json:"medication_id"`
	Dose           string    `db:"dose" json:"dose"`
	Frequency      string    `db:"frequency" json:"frequency"`
	Duration       string    `db:"duration" json:"duration"`
	Instructions   string    `db:"instructions" json:"instructions,omitempty"`
	Delivered      bool      `db:"delivered" json:"delivered"`

	// Denormalized for pharmacy worklists.
	MedicationName string `db:"-" json:"medication_name,omitempty"`
	Available      bool   `db:"-" json:"available"`
	StockLeft      int    `db:"-" json:"stock"`
}
