package records

import (
	"time"

	"github.com/google/uuid"

	"github.com/sgc/sgc/internal/domain/scheduling"
)

// MedicalRecord is the physician's written account of one consultation. A
// record always hangs off the appointment it was written during.
type MedicalRecord struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	Content       string    `db:"content" json:"content"`
	RecordedOn    time.Time `db:"recorded_on" json:"recorded_on"`
}

// MedicalCertificate attests a diagnosis and prescribed rest. At most one
// exists per appointment.
type MedicalCertificate struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	Diagnosis     string    `db:"diagnosis" json:"diagnosis"`
	RestDays      int       `db:"rest_days" json:"rest_days"`
	IssuedOn      time.Time `db:"issued_on" json:"issued_on"`
	Observations  string    `db:"observations" json:"observations,omitempty"`
}

// AttendanceCertificate attests the patient was present at the clinic. Entry
// and exit default to the appointment's own window when not stated. At most
// one exists per appointment.
type AttendanceCertificate struct {
	ID            uuid.UUID            `db:"id" json:"id"`
	AppointmentID uuid.UUID            `db:"appointment_id" json:"appointment_id"`
	Date          time.Time            `db:"date" json:"date"`
	TimeIn        scheduling.ClockTime `db:"time_in_minute" json:"time_in"`
	TimeOut       scheduling.ClockTime `db:"time_out_minute" json:"time_out"`
	Reason        string               `db:"reason" json:"reason,omitempty"`
}

// MedicalCertificateView is the certificate plus the appointment context a
// printed copy carries.
type MedicalCertificateView struct {
	Certificate      *MedicalCertificate  `json:"certificate"`
	PatientName      string               `json:"patient_name"`
	PhysicianName    string               `json:"physician_name"`
	AppointmentDate  time.Time            `json:"appointment_date"`
	AppointmentStart scheduling.ClockTime `json:"appointment_start"`
	AppointmentEnd   scheduling.ClockTime `json:"appointment_end"`
}

// AttendanceCertificateView is the attendance certificate with the same
// appointment context.
type AttendanceCertificateView struct {
	Certificate      *AttendanceCertificate `json:"certificate"`
	PatientName      string                 `json:"patient_name"`
	PhysicianName    string                 `json:"physician_name"`
	AppointmentDate  time.Time              `json:"appointment_date"`
	AppointmentStart scheduling.ClockTime   `json:"appointment_start"`
	AppointmentEnd   scheduling.ClockTime   `json:"appointment_end"`
}
