package records

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrRecordNotFound      = errors.New("medical record not found")
	ErrCertificateNotFound = errors.New("certificate not found")
	// ErrCertificateExists means the appointment already has a certificate
	// of that kind.
	ErrCertificateExists = errors.New("certificate already issued for this appointment")
)

// Repository persists consultation records and certificates.
type Repository interface {
	CreateRecord(ctx context.Context, r *MedicalRecord) error
	// ListRecordsForPatient returns the records of every appointment the
	// patient had with the given physician, oldest first.
	ListRecordsForPatient(ctx context.Context, patientID, physicianID uuid.UUID) ([]*MedicalRecord, error)

	// CreateMedicalCertificate fails with ErrCertificateExists when the
	// appointment already has one.
	CreateMedicalCertificate(ctx context.Context, c *MedicalCertificate) error
	GetMedicalCertificate(ctx context.Context, appointmentID uuid.UUID) (*MedicalCertificate, error)

	// CreateAttendanceCertificate fails with ErrCertificateExists when the
	// appointment already has one.
	CreateAttendanceCertificate(ctx context.Context, c *AttendanceCertificate) error
	GetAttendanceCertificate(ctx context.Context, appointmentID uuid.UUID) (*AttendanceCertificate, error)
}
