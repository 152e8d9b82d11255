package vitals

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/sgc/sgc/internal/domain/scheduling"
	"github.com/sgc/sgc/internal/platform/websocket"
)

type mockRepo struct {
	appointments map[uuid.UUID]*scheduling.Appointment
	signs        map[uuid.UUID][]*VitalSigns
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		appointments: make(map[uuid.UUID]*scheduling.Appointment),
		signs:        make(map[uuid.UUID][]*VitalSigns),
	}
}

func (m *mockRepo) CreateForAppointment(ctx context.Context, v *VitalSigns) error {
	appt, ok := m.appointments[v.AppointmentID]
	if !ok {
		return scheduling.ErrNotFound
	}
	if appt.Status.IsTerminal() {
		return scheduling.ErrTerminalState
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	m.signs[v.AppointmentID] = append(m.signs[v.AppointmentID], v)
	appt.Status = scheduling.StatusWaiting
	return nil
}

func (m *mockRepo) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*VitalSigns, error) {
	return m.signs[appointmentID], nil
}

func (m *mockRepo) GetAppointment(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error) {
	appt, ok := m.appointments[id]
	if !ok {
		return nil, scheduling.ErrNotFound
	}
	return appt, nil
}

type mockNotifier struct {
	events []struct {
		Topic string
		Event websocket.Event
	}
}

func (m *mockNotifier) Notify(topic string, event websocket.Event) {
	m.events = append(m.events, struct {
		Topic string
		Event websocket.Event
	}{topic, event})
}

func validSigns(appointmentID uuid.UUID) *VitalSigns {
	return &VitalSigns{
		AppointmentID:    appointmentID,
		BloodPressure:    "120/80",
		Weight:           72.5,
		Height:           1.75,
		Temperature:      36.6,
		OxygenSaturation: 98,
	}
}

func TestRecord(t *testing.T) {
	repo := newMockRepo()
	notifier := &mockNotifier{}
	svc := NewService(repo, repo, notifier)

	apptID := uuid.New()
	repo.appointments[apptID] = &scheduling.Appointment{ID: apptID, Status: scheduling.StatusAwaitingVitals}

	if err := svc.Record(context.Background(), validSigns(apptID)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	if got := repo.appointments[apptID].Status; got != scheduling.StatusWaiting {
		t.Errorf("appointment status = %s, want waiting", got)
	}
	if len(notifier.events) != 1 {
		t.Fatalf("got %d events, want 1", len(notifier.events))
	}
	if notifier.events[0].Topic != websocket.TopicAppointments {
		t.Errorf("topic = %s, want %s", notifier.events[0].Topic, websocket.TopicAppointments)
	}
	if notifier.events[0].Event.Name != "actualizacion_citas" {
		t.Errorf("event = %s, want actualizacion_citas", notifier.events[0].Event.Name)
	}
}

func TestRecordUnknownAppointment(t *testing.T) {
	repo := newMockRepo()
	notifier := &mockNotifier{}
	svc := NewService(repo, repo, notifier)

	err := svc.Record(context.Background(), validSigns(uuid.New()))
	if !errors.Is(err, scheduling.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(notifier.events) != 0 {
		t.Errorf("no events expected, got %d", len(notifier.events))
	}
}

func TestRecordTerminalAppointment(t *testing.T) {
	repo := newMockRepo()
	notifier := &mockNotifier{}
	svc := NewService(repo, repo, notifier)

	apptID := uuid.New()
	repo.appointments[apptID] = &scheduling.Appointment{ID: apptID, Status: scheduling.StatusCompleted}

	err := svc.Record(context.Background(), validSigns(apptID))
	if !errors.Is(err, scheduling.ErrTerminalState) {
		t.Fatalf("expected ErrTerminalState, got %v", err)
	}
	if len(notifier.events) != 0 {
		t.Errorf("no events expected, got %d", len(notifier.events))
	}
}

func TestRecordValidation(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, repo, &mockNotifier{})

	apptID := uuid.New()
	repo.appointments[apptID] = &scheduling.Appointment{ID: apptID, Status: scheduling.StatusScheduled}

	tests := []struct {
		name   string
		mutate func(*VitalSigns)
	}{
		{"missing appointment id", func(v *VitalSigns) { v.AppointmentID = uuid.Nil }},
		{"missing blood pressure", func(v *VitalSigns) { v.BloodPressure = "" }},
		{"zero weight", func(v *VitalSigns) { v.Weight = 0 }},
		{"zero height", func(v *VitalSigns) { v.Height = 0 }},
		{"zero temperature", func(v *VitalSigns) { v.Temperature = 0 }},
		{"saturation over 100", func(v *VitalSigns) { v.OxygenSaturation = 120 }},
		{"zero saturation", func(v *VitalSigns) { v.OxygenSaturation = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validSigns(apptID)
			tt.mutate(v)
			if err := svc.Record(context.Background(), v); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestForAppointment(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, repo, &mockNotifier{})

	apptID := uuid.New()
	repo.appointments[apptID] = &scheduling.Appointment{ID: apptID, Status: scheduling.StatusAwaitingVitals}

	if err := svc.Record(context.Background(), validSigns(apptID)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	out, err := svc.ForAppointment(context.Background(), apptID)
	if err != nil {
		t.Fatalf("ForAppointment: %v", err)
	}
	if out.Appointment.ID != apptID {
		t.Errorf("appointment id mismatch")
	}
	if len(out.VitalSigns) != 1 {
		t.Errorf("got %d measurements, want 1", len(out.VitalSigns))
	}
}

func TestForAppointmentEmpty(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, repo, &mockNotifier{})

	apptID := uuid.New()
	repo.appointments[apptID] = &scheduling.Appointment{ID: apptID, Status: scheduling.StatusScheduled}

	out, err := svc.ForAppointment(context.Background(), apptID)
	if err != nil {
		t.Fatalf("ForAppointment: %v", err)
	}
	if out.VitalSigns == nil || len(out.VitalSigns) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", out.VitalSigns)
	}
}

func TestForAppointmentUnknown(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, repo, &mockNotifier{})

	_, err := svc.ForAppointment(context.Background(), uuid.New())
	if !errors.Is(err, scheduling.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
