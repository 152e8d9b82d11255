package vitals

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sgc/sgc/internal/domain/scheduling"
	"github.com/sgc/sgc/internal/platform/websocket"
)

// AppointmentReader is the slice of the scheduling service the vitals flow
// needs: loading the appointment a measurement belongs to.
type AppointmentReader interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)
}

type Service struct {
	repo         Repository
	appointments AppointmentReader
	notifier     websocket.Notifier
}

func NewService(repo Repository, appointments AppointmentReader, notifier websocket.Notifier) *Service {
	return &Service{repo: repo, appointments: appointments, notifier: notifier}
}

// Record stores a measurement set and moves the appointment into the waiting
// queue. The broadcast happens once, after the transaction commits.
func (s *Service) Record(ctx context.Context, v *VitalSigns) error {
	if v.AppointmentID == uuid.Nil {
		return fmt.Errorf("appointment_id is required")
	}
	if v.BloodPressure == "" {
		return fmt.Errorf("blood_pressure is required")
	}
	if v.Weight <= 0 || v.Height <= 0 || v.Temperature <= 0 {
		return fmt.Errorf("weight, height and temperature must be positive")
	}
	if v.OxygenSaturation <= 0 || v.OxygenSaturation > 100 {
		return fmt.Errorf("oxygen_saturation must be between 0 and 100")
	}

	if err := s.repo.CreateForAppointment(ctx, v); err != nil {
		return err
	}

	s.notifier.Notify(websocket.TopicAppointments, websocket.Event{Name: "actualizacion_citas"})
	return nil
}

// ForAppointment returns the appointment and every measurement recorded for
// it.
func (s *Service) ForAppointment(ctx context.Context, appointmentID uuid.UUID) (*AppointmentVitals, error) {
	appt, err := s.appointments.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	signs, err := s.repo.ListByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if signs == nil {
		signs = []*VitalSigns{}
	}
	return &AppointmentVitals{Appointment: appt, VitalSigns: signs}, nil
}
