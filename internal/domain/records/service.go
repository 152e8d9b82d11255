package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sgc/sgc/internal/domain/identity"
	"github.com/sgc/sgc/internal/domain/scheduling"
	"github.com/sgc/sgc/internal/platform/auth"
)

var (
	// ErrNotAuthor means the caller is not the physician of the appointment
	// the document belongs to.
	ErrNotAuthor = errors.New("only the appointment's physician may write for it")
	// ErrNotAuthorized means the caller may not view the certificate. Only
	// the appointment's physician and its patient may.
	ErrNotAuthorized = errors.New("not authorized to view this certificate")
)

// AppointmentReader resolves the appointment a record or certificate is
// written for.
type AppointmentReader interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)
}

// UserReader resolves the people named on a printed certificate.
type UserReader interface {
	GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

type Service struct {
	repo         Repository
	appointments AppointmentReader
	users        UserReader
}

func NewService(repo Repository, appointments AppointmentReader, users UserReader) *Service {
	return &Service{repo: repo, appointments: appointments, users: users}
}

// authorizedAppointment loads the appointment and checks the physician owns
// it.
func (s *Service) authorizedAppointment(ctx context.Context, appointmentID, physicianID uuid.UUID) (*scheduling.Appointment, error) {
	appt, err := s.appointments.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.ProviderID != physicianID {
		return nil, ErrNotAuthor
	}
	return appt, nil
}

// CreateRecord stores the physician's account of a consultation. Only the
// appointment's own physician may write one.
func (s *Service) CreateRecord(ctx context.Context, r *MedicalRecord, physicianID uuid.UUID) error {
	if r.AppointmentID == uuid.Nil {
		return fmt.Errorf("appointment_id is required")
	}
	if r.Content == "" {
		return fmt.Errorf("content is required")
	}
	if _, err := s.authorizedAppointment(ctx, r.AppointmentID, physicianID); err != nil {
		return err
	}
	return s.repo.CreateRecord(ctx, r)
}

// PatientHistory returns the records of every appointment the patient had
// with the calling physician, oldest first. Appointments with other
// physicians stay invisible.
func (s *Service) PatientHistory(ctx context.Context, patientID, physicianID uuid.UUID) ([]*MedicalRecord, error) {
	out, err := s.repo.ListRecordsForPatient(ctx, patientID, physicianID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*MedicalRecord{}
	}
	return out, nil
}

// IssueMedicalCertificate issues the appointment's medical certificate. The
// appointment admits at most one.
func (s *Service) IssueMedicalCertificate(ctx context.Context, c *MedicalCertificate, physicianID uuid.UUID) error {
	if c.AppointmentID == uuid.Nil {
		return fmt.Errorf("appointment_id is required")
	}
	if c.Diagnosis == "" {
		return fmt.Errorf("diagnosis is required")
	}
	if c.RestDays < 0 {
		return fmt.Errorf("rest_days cannot be negative")
	}
	if _, err := s.authorizedAppointment(ctx, c.AppointmentID, physicianID); err != nil {
		return err
	}
	return s.repo.CreateMedicalCertificate(ctx, c)
}

// IssueAttendanceCertificate issues the appointment's attendance
// certificate. Entry and exit times left at zero value are taken from the
// appointment's own window.
func (s *Service) IssueAttendanceCertificate(ctx context.Context, c *AttendanceCertificate, physicianID uuid.UUID) error {
	if c.AppointmentID == uuid.Nil {
		return fmt.Errorf("appointment_id is required")
	}
	appt, err := s.authorizedAppointment(ctx, c.AppointmentID, physicianID)
	if err != nil {
		return err
	}
	if c.Date.IsZero() {
		c.Date = appt.Date
	}
	if c.TimeIn == 0 {
		c.TimeIn = appt.StartTime
	}
	if c.TimeOut == 0 {
		c.TimeOut = appt.EndTime
	}
	if c.TimeOut <= c.TimeIn {
		return fmt.Errorf("time_out must be after time_in")
	}
	return s.repo.CreateAttendanceCertificate(ctx, c)
}

// canViewCertificate enforces who may read a certificate: the appointment's
// physician and its patient, nobody else. Super admins are deliberately not
// exempt here.
func canViewCertificate(appt *scheduling.Appointment, viewerID uuid.UUID, viewerRole string) bool {
	switch viewerRole {
	case auth.RoleDoctor:
		return appt.ProviderID == viewerID
	case auth.RolePatient:
		return appt.PatientID == viewerID
	default:
		return false
	}
}

func (s *Service) certificateContext(ctx context.Context, appt *scheduling.Appointment) (patient, physician string, err error) {
	p, err := s.users.GetUser(ctx, appt.PatientID)
	if err != nil {
		return "", "", err
	}
	d, err := s.users.GetUser(ctx, appt.ProviderID)
	if err != nil {
		return "", "", err
	}
	return p.FirstName + " " + p.LastName, d.FirstName + " " + d.LastName, nil
}

// MedicalCertificateForAppointment returns the certificate with its printed
// context, after checking the viewer may see it.
func (s *Service) MedicalCertificateForAppointment(ctx context.Context, appointmentID, viewerID uuid.UUID, viewerRole string) (*MedicalCertificateView, error) {
	appt, err := s.appointments.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !canViewCertificate(appt, viewerID, viewerRole) {
		return nil, ErrNotAuthorized
	}
	c, err := s.repo.GetMedicalCertificate(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	patient, physician, err := s.certificateContext(ctx, appt)
	if err != nil {
		return nil, err
	}
	return &MedicalCertificateView{
		Certificate:      c,
		PatientName:      patient,
		PhysicianName:    physician,
		AppointmentDate:  appt.Date,
		AppointmentStart: appt.StartTime,
		AppointmentEnd:   appt.EndTime,
	}, nil
}

// AttendanceCertificateForAppointment is the attendance counterpart of
// MedicalCertificateForAppointment.
func (s *Service) AttendanceCertificateForAppointment(ctx context.Context, appointmentID, viewerID uuid.UUID, viewerRole string) (*AttendanceCertificateView, error) {
	appt, err := s.appointments.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !canViewCertificate(appt, viewerID, viewerRole) {
		return nil, ErrNotAuthorized
	}
	c, err := s.repo.GetAttendanceCertificate(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	patient, physician, err := s.certificateContext(ctx, appt)
	if err != nil {
		return nil, err
	}
	return &AttendanceCertificateView{
		Certificate:      c,
		PatientName:      patient,
		PhysicianName:    physician,
		AppointmentDate:  appt.Date,
		AppointmentStart: appt.StartTime,
		AppointmentEnd:   appt.EndTime,
	}, nil
}
