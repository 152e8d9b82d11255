package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sgc/sgc/internal/platform/websocket"
)

type Service struct {
	appointments AppointmentRepository
	hours        WorkingHoursRepository
	notifier     websocket.Notifier
}

func NewService(appointments AppointmentRepository, hours WorkingHoursRepository, notifier websocket.Notifier) *Service {
	return &Service{appointments: appointments, hours: hours, notifier: notifier}
}

// notifyAppointments fires the appointment-updates broadcast. Called only
// after the underlying mutation has committed; delivery failures are
// isolated inside the hub and never surface here.
func (s *Service) notifyAppointments() {
	s.notifier.Notify(websocket.TopicAppointments, websocket.Event{Name: "actualizacion_citas"})
}

// CreateAppointment books a new appointment. The conflict check and the
// insert run inside a repository scope serialized per (provider, date), so
// two concurrent requests cannot both pass the check against a stale view.
func (s *Service) CreateAppointment(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.ProviderID == uuid.Nil {
		return fmt.Errorf("provider_id is required")
	}
	if a.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if a.StartTime >= a.EndTime {
		return ErrInvalidRange
	}
	a.Status = StatusScheduled

	weekday := WeekdayName(a.Date)

	err := s.appointments.Book(ctx, a, func(existing []*Appointment) error {
		if err := CheckConflict(a.StartTime, a.EndTime, existing); err != nil {
			return err
		}
		interval, err := s.hours.GetForWeekday(ctx, a.ProviderID, weekday)
		if err != nil {
			return err
		}
		if interval == nil {
			return ErrNoScheduleForDay
		}
		if !WithinWorkingHours(interval, a.StartTime, a.EndTime) {
			return ErrOutsideWorkingHours
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifyAppointments()
	return nil
}

// ChangeState applies a clinician-driven transition. Terminal appointments
// reject every transition; non-terminal ones follow the transition table.
func (s *Service) ChangeState(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	if !to.IsValid() {
		return nil, fmt.Errorf("invalid appointment status: %s", to)
	}

	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status.IsTerminal() {
		return nil, ErrTerminalState
	}
	if !CanTransition(appt.Status, to) {
		return nil, ErrInvalidTransition
	}

	if err := s.appointments.UpdateStatus(ctx, id, to); err != nil {
		return nil, err
	}
	appt.Status = to

	s.notifyAppointments()
	return appt, nil
}

// MarkAwaitingVitals is the administrative action that queues an appointment
// for vital-signs measurement.
func (s *Service) MarkAwaitingVitals(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.ChangeState(ctx, id, StatusAwaitingVitals)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

// startOfDay resolves t to midnight of its civil date in t's own location.
// Truncating on the UTC epoch grid instead would shift the date near
// midnight in any non-UTC deployment.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ListActiveByProvider returns the provider's future, non-terminal
// appointments ordered by date then start time.
func (s *Service) ListActiveByProvider(ctx context.Context, providerID uuid.UUID) ([]*Appointment, error) {
	return s.appointments.ListActiveByProvider(ctx, providerID, startOfDay(time.Now()))
}

func (s *Service) ListToday(ctx context.Context) ([]*Appointment, error) {
	return s.appointments.ListByDate(ctx, startOfDay(time.Now()))
}

// -- Working-hours registry --

func (s *Service) GetWorkingHours(ctx context.Context, providerID uuid.UUID) ([]*WorkingInterval, error) {
	return s.hours.ListByProvider(ctx, providerID)
}

// ReplaceWorkingHours swaps a provider's weekly working intervals. At most
// one interval per weekday; each interval must have start < end.
func (s *Service) ReplaceWorkingHours(ctx context.Context, providerID uuid.UUID, intervals []*WorkingInterval) error {
	seen := make(map[string]bool, len(intervals))
	for _, iv := range intervals {
		day, ok := NormalizeWeekday(iv.Weekday)
		if !ok {
			return fmt.Errorf("unknown weekday: %s", iv.Weekday)
		}
		if seen[day] {
			return fmt.Errorf("duplicate weekday: %s", day)
		}
		seen[day] = true
		if iv.StartTime >= iv.EndTime {
			return ErrInvalidRange
		}
		iv.Weekday = day
		iv.ProviderID = providerID
	}
	return s.hours.ReplaceForProvider(ctx, providerID, intervals)
}
