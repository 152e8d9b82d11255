package pharmacy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sgc/sgc/internal/domain/scheduling"
	"github.com/sgc/sgc/internal/platform/websocket"
)

// ErrNotPrescriber means the caller is not the physician of the appointment
// the prescription belongs to.
var ErrNotPrescriber = errors.New("only the appointment's physician may issue its prescription")

// AppointmentReader resolves the appointment a prescription is issued for.
type AppointmentReader interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)
}

type Service struct {
	medications   MedicationRepository
	prescriptions PrescriptionRepository
	appointments  AppointmentReader
	notifier      websocket.Notifier
}

func NewService(medications MedicationRepository, prescriptions PrescriptionRepository, appointments AppointmentReader, notifier websocket.Notifier) *Service {
	return &Service{
		medications:   medications,
		prescriptions: prescriptions,
		appointments:  appointments,
		notifier:      notifier,
	}
}

func (s *Service) notifyMedications(change string, id uuid.UUID) {
	s.notifier.Notify(websocket.TopicMedications, websocket.Event{
		Name: change,
		Data: map[string]interface{}{"id": id.String()},
	})
}

// -- Medication catalog --

func (s *Service) CreateMedication(ctx context.Context, m *Medication) error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.Stock < 0 {
		return fmt.Errorf("stock cannot be negative")
	}
	m.Active = true
	if err := s.medications.Create(ctx, m); err != nil {
		return err
	}
	s.notifyMedications("crear", m.ID)
	return nil
}

func (s *Service) GetMedication(ctx context.Context, id uuid.UUID) (*Medication, error) {
	return s.medications.GetByID(ctx, id)
}

func (s *Service) ListMedications(ctx context.Context, limit, offset int) ([]*Medication, int, error) {
	return s.medications.List(ctx, limit, offset)
}

func (s *Service) UpdateMedication(ctx context.Context, m *Medication) error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.Stock < 0 {
		return fmt.Errorf("stock cannot be negative")
	}
	if err := s.medications.Update(ctx, m); err != nil {
		return err
	}
	s.notifyMedications("actualizar", m.ID)
	return nil
}

func (s *Service) DeleteMedication(ctx context.Context, id uuid.UUID) error {
	if err := s.medications.Delete(ctx, id); err != nil {
		return err
	}
	s.notifyMedications("eliminar", id)
	return nil
}

// -- Prescriptions --

// CreatePrescription issues a prescription for an appointment. Only the
// physician the appointment belongs to may issue it.
func (s *Service) CreatePrescription(ctx context.Context, p *Prescription, physicianID uuid.UUID) error {
	appt, err := s.appointments.GetAppointment(ctx, p.AppointmentID)
	if err != nil {
		return err
	}
	if appt.ProviderID != physicianID {
		return ErrNotPrescriber
	}
	if len(p.Items) == 0 {
		return fmt.Errorf("prescription needs at least one item")
	}
	return s.prescriptions.Create(ctx, p)
}

func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.prescriptions.GetByID(ctx, id)
}

func (s *Service) GetPrescriptionByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error) {
	return s.prescriptions.GetByAppointment(ctx, appointmentID)
}

// ListPendingPrescriptions is the pharmacy worklist: everything still owing
// items.
func (s *Service) ListPendingPrescriptions(ctx context.Context) ([]*Prescription, error) {
	return s.prescriptions.ListPending(ctx)
}

func estimateItem(it *PrescriptionItem) int {
	return EstimateUnitsNeeded(it.Dose, it.Frequency, it.Duration)
}

// AuthorizeDelivery hands out every remaining item on the prescription,
// decrementing stock by the estimated units per item. Broadcasts once after
// commit.
func (s *Service) AuthorizeDelivery(ctx context.Context, prescriptionID uuid.UUID) (*Prescription, error) {
	p, err := s.prescriptions.Deliver(ctx, prescriptionID, nil, estimateItem)
	if err != nil {
		return nil, err
	}
	s.notifyDelivery(p)
	return p, nil
}

// AuthorizePartialDelivery hands out only the named medications; the
// prescription moves to partial, or delivered once nothing remains.
func (s *Service) AuthorizePartialDelivery(ctx context.Context, prescriptionID uuid.UUID, medicationIDs []uuid.UUID) (*Prescription, error) {
	if len(medicationIDs) == 0 {
		return nil, fmt.Errorf("no medications selected")
	}
	p, err := s.prescriptions.Deliver(ctx, prescriptionID, medicationIDs, estimateItem)
	if err != nil {
		return nil, err
	}
	s.notifyDelivery(p)
	return p, nil
}

func (s *Service) notifyDelivery(p *Prescription) {
	name := "entrega_parcial"
	if p.Status == PrescriptionDelivered {
		name = "entregada"
	}
	s.notifier.Notify(websocket.TopicPrescriptions, websocket.Event{
		Name: name,
		Data: map[string]interface{}{"receta_id": p.ID.String()},
	})
}
