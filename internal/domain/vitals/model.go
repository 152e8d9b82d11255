package vitals

import (
	"time"

	"github.com/google/uuid"

	"github.com/sgc/sgc/internal/domain/scheduling"
)

// VitalSigns is one measurement set taken at check-in for an appointment.
type VitalSigns struct {
	ID               uuid.UUID `db:"id" json:"id"`
	AppointmentID    uuid.UUID `db:"appointment_id" json:"appointment_id"`
	BloodPressure    string    `db:"blood_pressure" json:"blood_pressure"`
	Weight           float64   `db:"weight" json:"weight"`
	Height           float64   `db:"height" json:"height"`
	Temperature      float64   `db:"temperature" json:"temperature"`
	OxygenSaturation float64   `db:"oxygen_saturation" json:"oxygen_saturation"`
	RecordedAt       time.Time `db:"recorded_at" json:"recorded_at"`
}

// AppointmentVitals is the appointment together with every measurement set
// recorded for it.
type AppointmentVitals struct {
	Appointment *scheduling.Appointment `json:"appointment"`
	VitalSigns  []*VitalSigns           `json:"vital_signs"`
}
