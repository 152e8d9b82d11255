package pharmacy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sgc/sgc/internal/domain/scheduling"
	"github.com/sgc/sgc/internal/platform/websocket"
)

type mockMedicationRepo struct {
	medications map[uuid.UUID]*Medication
}

func newMockMedicationRepo() *mockMedicationRepo {
	return &mockMedicationRepo{medications: make(map[uuid.UUID]*Medication)}
}

func (m *mockMedicationRepo) Create(ctx context.Context, med *Medication) error {
	if med.ID == uuid.Nil {
		med.ID = uuid.New()
	}
	m.medications[med.ID] = med
	return nil
}

func (m *mockMedicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*Medication, error) {
	med, ok := m.medications[id]
	if !ok {
		return nil, ErrMedicationNotFound
	}
	return med, nil
}

func (m *mockMedicationRepo) List(ctx context.Context, limit, offset int) ([]*Medication, int, error) {
	var out []*Medication
	for _, med := range m.medications {
		out = append(out, med)
	}
	return out, len(out), nil
}

func (m *mockMedicationRepo) Update(ctx context.Context, med *Medication) error {
	if _, ok := m.medications[med.ID]; !ok {
		return ErrMedicationNotFound
	}
	m.medications[med.ID] = med
	return nil
}

func (m *mockMedicationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.medications[id]; !ok {
		return ErrMedicationNotFound
	}
	delete(m.medications, id)
	return nil
}

type mockPrescriptionRepo struct {
	meds          *mockMedicationRepo
	prescriptions map[uuid.UUID]*Prescription
}

func newMockPrescriptionRepo(meds *mockMedicationRepo) *mockPrescriptionRepo {
	return &mockPrescriptionRepo{meds: meds, prescriptions: make(map[uuid.UUID]*Prescription)}
}

func (m *mockPrescriptionRepo) Create(ctx context.Context, p *Prescription) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.IssuedOn = time.Now()
	p.Status = PrescriptionPending
	for _, it := range p.Items {
		if _, ok := m.meds.medications[it.MedicationID]; !ok {
			return &UnknownMedicationError{MedicationID: it.MedicationID}
		}
		it.PrescriptionID = p.ID
	}
	m.prescriptions[p.ID] = p
	return nil
}

func (m *mockPrescriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, ok := m.prescriptions[id]
	if !ok {
		return nil, ErrPrescriptionNotFound
	}
	return p, nil
}

func (m *mockPrescriptionRepo) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error) {
	for _, p := range m.prescriptions {
		if p.AppointmentID == appointmentID {
			return p, nil
		}
	}
	return nil, ErrPrescriptionNotFound
}

func (m *mockPrescriptionRepo) ListPending(ctx context.Context) ([]*Prescription, error) {
	var out []*Prescription
	for _, p := range m.prescriptions {
		if p.Status == PrescriptionPending || p.Status == PrescriptionPartial {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPrescriptionRepo) Deliver(ctx context.Context, prescriptionID uuid.UUID, medicationIDs []uuid.UUID, estimate func(item *PrescriptionItem) int) (*Prescription, error) {
	p, ok := m.prescriptions[prescriptionID]
	if !ok {
		return nil, ErrPrescriptionNotFound
	}
	if p.Status == PrescriptionDelivered {
		return nil, ErrAlreadyDelivered
	}

	requested := make(map[uuid.UUID]bool, len(medicationIDs))
	for _, id := range medicationIDs {
		requested[id] = true
	}

	remaining := 0
	for _, it := range p.Items {
		if it.Delivered {
			continue
		}
		if len(medicationIDs) > 0 && !requested[it.MedicationID] {
			remaining++
			continue
		}
		med := m.meds.medications[it.MedicationID]
		if med.Stock <= 0 {
			return nil, &OutOfStockError{MedicationID: med.ID, Name: med.Name}
		}
		med.Stock -= estimate(it)
		if med.Stock < 0 {
			med.Stock = 0
		}
		it.Delivered = true
	}

	if remaining == 0 {
		now := time.Now()
		p.Status = PrescriptionDelivered
		p.DeliveredOn = &now
	} else {
		p.Status = PrescriptionPartial
	}
	return p, nil
}

type mockAppointments struct {
	appointments map[uuid.UUID]*scheduling.Appointment
}

func (m *mockAppointments) GetAppointment(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error) {
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

type fixture struct {
	svc      *Service
	meds     *mockMedicationRepo
	rx       *mockPrescriptionRepo
	appts    *mockAppointments
	notifier *mockNotifier
}

func newFixture() *fixture {
	meds := newMockMedicationRepo()
	rx := newMockPrescriptionRepo(meds)
	appts := &mockAppointments{appointments: make(map[uuid.UUID]*scheduling.Appointment)}
	notifier := &mockNotifier{}
	return &fixture{
		svc:      NewService(meds, rx, appts, notifier),
		meds:     meds,
		rx:       rx,
		appts:    appts,
		notifier: notifier,
	}
}

func (f *fixture) addMedication(name string, stock int) *Medication {
	m := &Medication{ID: uuid.New(), Name: name, Stock: stock, Active: true}
	f.meds.medications[m.ID] = m
	return m
}

func (f *fixture) addAppointment(providerID uuid.UUID) *scheduling.Appointment {
	a := &scheduling.Appointment{ID: uuid.New(), ProviderID: providerID, Status: scheduling.StatusInConsultation}
	f.appts.appointments[a.ID] = a
	return a
}

func TestMedicationLifecycleBroadcasts(t *testing.T) {
	f := newFixture()

	med := &Medication{Name: "Paracetamol 500mg", Stock: 100}
	if err := f.svc.CreateMedication(context.Background(), med); err != nil {
		t.Fatalf("CreateMedication: %v", err)
	}
	med.Stock = 80
	if err := f.svc.UpdateMedication(context.Background(), med); err != nil {
		t.Fatalf("UpdateMedication: %v", err)
	}
	if err := f.svc.DeleteMedication(context.Background(), med.ID); err != nil {
		t.Fatalf("DeleteMedication: %v", err)
	}

	wantNames := []string{"crear", "actualizar", "eliminar"}
	if len(f.notifier.events) != len(wantNames) {
		t.Fatalf("got %d events, want %d", len(f.notifier.events), len(wantNames))
	}
	for i, want := range wantNames {
		e := f.notifier.events[i]
		if e.Topic != websocket.TopicMedications {
			t.Errorf("event %d topic = %s, want %s", i, e.Topic, websocket.TopicMedications)
		}
		if e.Event.Name != want {
			t.Errorf("event %d name = %s, want %s", i, e.Event.Name, want)
		}
		if e.Event.Data["id"] != med.ID.String() {
			t.Errorf("event %d id = %v, want %s", i, e.Event.Data["id"], med.ID)
		}
	}
}

func TestCreateMedicationValidation(t *testing.T) {
	f := newFixture()
	if err := f.svc.CreateMedication(context.Background(), &Medication{Stock: 10}); err == nil {
		t.Error("expected error for missing name")
	}
	if err := f.svc.CreateMedication(context.Background(), &Medication{Name: "x", Stock: -1}); err == nil {
		t.Error("expected error for negative stock")
	}
	if len(f.notifier.events) != 0 {
		t.Errorf("no events expected, got %d", len(f.notifier.events))
	}
}

func TestCreatePrescription(t *testing.T) {
	f := newFixture()
	physician := uuid.New()
	appt := f.addAppointment(physician)
	med := f.addMedication("Amoxicilina", 50)

	p := &Prescription{
		AppointmentID: appt.ID,
		Items: []*PrescriptionItem{
			{MedicationID: med.ID, Dose: "1 tableta", Frequency: "cada 8 horas", Duration: "7 días"},
		},
	}
	if err := f.svc.CreatePrescription(context.Background(), p, physician); err != nil {
		t.Fatalf("CreatePrescription: %v", err)
	}
	if p.Status != PrescriptionPending {
		t.Errorf("status = %s, want pending", p.Status)
	}
	if len(p.Items) != 1 {
		t.Errorf("got %d items, want 1", len(p.Items))
	}
}

func TestCreatePrescriptionUnknownMedication(t *testing.T) {
	f := newFixture()
	physician := uuid.New()
	appt := f.addAppointment(physician)
	med := f.addMedication("Amoxicilina", 50)
	bogus := uuid.New()

	p := &Prescription{
		AppointmentID: appt.ID,
		Items: []*PrescriptionItem{
			{MedicationID: med.ID, Dose: "1 tableta", Frequency: "cada 8 horas", Duration: "7 días"},
			{MedicationID: bogus, Dose: "1", Frequency: "1 vez", Duration: "1 día"},
		},
	}
	err := f.svc.CreatePrescription(context.Background(), p, physician)
	var unknown *UnknownMedicationError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownMedicationError, got %v", err)
	}
	if unknown.MedicationID != bogus {
		t.Errorf("medication id = %s, want %s", unknown.MedicationID, bogus)
	}
}

func TestCreatePrescriptionWrongPhysician(t *testing.T) {
	f := newFixture()
	appt := f.addAppointment(uuid.New())
	med := f.addMedication("Ibuprofeno", 20)

	p := &Prescription{
		AppointmentID: appt.ID,
		Items:         []*PrescriptionItem{{MedicationID: med.ID, Dose: "1", Frequency: "1 vez", Duration: "1 día"}},
	}
	err := f.svc.CreatePrescription(context.Background(), p, uuid.New())
	if !errors.Is(err, ErrNotPrescriber) {
		t.Fatalf("expected ErrNotPrescriber, got %v", err)
	}
}

func TestCreatePrescriptionUnknownAppointment(t *testing.T) {
	f := newFixture()
	med := f.addMedication("Ibuprofeno", 20)

	p := &Prescription{
		AppointmentID: uuid.New(),
		Items:         []*PrescriptionItem{{MedicationID: med.ID, Dose: "1", Frequency: "1 vez", Duration: "1 día"}},
	}
	err := f.svc.CreatePrescription(context.Background(), p, uuid.New())
	if !errors.Is(err, scheduling.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAuthorizeDelivery(t *testing.T) {
	f := newFixture()
	physician := uuid.New()
	appt := f.addAppointment(physician)
	med := f.addMedication("Amoxicilina", 50)

	p := &Prescription{
		AppointmentID: appt.ID,
		Items: []*PrescriptionItem{
			// 1 unit, 3 a day, 7 days = 21 units.
			{MedicationID: med.ID, Dose: "1 tableta", Frequency: "cada 8 horas", Duration: "7 días"},
		},
	}
	if err := f.svc.CreatePrescription(context.Background(), p, physician); err != nil {
		t.Fatalf("CreatePrescription: %v", err)
	}

	out, err := f.svc.AuthorizeDelivery(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("AuthorizeDelivery: %v", err)
	}
	if out.Status != PrescriptionDelivered {
		t.Errorf("status = %s, want delivered", out.Status)
	}
	if out.DeliveredOn == nil {
		t.Error("DeliveredOn should be stamped")
	}
	if med.Stock != 29 {
		t.Errorf("stock = %d, want 29", med.Stock)
	}

	if len(f.notifier.events) != 1 {
		t.Fatalf("got %d events, want 1", len(f.notifier.events))
	}
	e := f.notifier.events[0]
	if e.Topic != websocket.TopicPrescriptions {
		t.Errorf("topic = %s, want %s", e.Topic, websocket.TopicPrescriptions)
	}
	if e.Event.Name != "entregada" {
		t.Errorf("event = %s, want entregada", e.Event.Name)
	}
	if e.Event.Data["receta_id"] != p.ID.String() {
		t.Errorf("receta_id = %v, want %s", e.Event.Data["receta_id"], p.ID)
	}

	// A second authorization is rejected.
	if _, err := f.svc.AuthorizeDelivery(context.Background(), p.ID); !errors.Is(err, ErrAlreadyDelivered) {
		t.Errorf("expected ErrAlreadyDelivered, got %v", err)
	}
}

func TestAuthorizeDeliveryOutOfStock(t *testing.T) {
	f := newFixture()
	physician := uuid.New()
	appt := f.addAppointment(physician)
	med := f.addMedication("Insulina", 0)

	p := &Prescription{
		AppointmentID: appt.ID,
		Items:         []*PrescriptionItem{{MedicationID: med.ID, Dose: "1", Frequency: "1 vez", Duration: "1 día"}},
	}
	if err := f.svc.CreatePrescription(context.Background(), p, physician); err != nil {
		t.Fatalf("CreatePrescription: %v", err)
	}

	_, err := f.svc.AuthorizeDelivery(context.Background(), p.ID)
	var outOfStock *OutOfStockError
	if !errors.As(err, &outOfStock) {
		t.Fatalf("expected OutOfStockError, got %v", err)
	}
	if outOfStock.Name != "Insulina" {
		t.Errorf("Name = %s, want Insulina", outOfStock.Name)
	}
	if len(f.notifier.events) != 0 {
		t.Errorf("no events expected on failed delivery, got %d", len(f.notifier.events))
	}
}

func TestAuthorizePartialDelivery(t *testing.T) {
	f := newFixture()
	physician := uuid.New()
	appt := f.addAppointment(physician)
	medA := f.addMedication("Amoxicilina", 50)
	medB := f.addMedication("Loratadina", 50)

	p := &Prescription{
		AppointmentID: appt.ID,
		Items: []*PrescriptionItem{
			{MedicationID: medA.ID, Dose: "1", Frequency: "1 vez al día", Duration: "5 días"},
			{MedicationID: medB.ID, Dose: "1", Frequency: "1 vez al día", Duration: "10 días"},
		},
	}
	if err := f.svc.CreatePrescription(context.Background(), p, physician); err != nil {
		t.Fatalf("CreatePrescription: %v", err)
	}

	out, err := f.svc.AuthorizePartialDelivery(context.Background(), p.ID, []uuid.UUID{medA.ID})
	if err != nil {
		t.Fatalf("AuthorizePartialDelivery: %v", err)
	}
	if out.Status != PrescriptionPartial {
		t.Errorf("status = %s, want partial", out.Status)
	}
	if medA.Stock != 45 {
		t.Errorf("medA stock = %d, want 45", medA.Stock)
	}
	if medB.Stock != 50 {
		t.Errorf("medB stock = %d, want 50", medB.Stock)
	}
	if f.notifier.events[0].Event.Name != "entrega_parcial" {
		t.Errorf("event = %s, want entrega_parcial", f.notifier.events[0].Event.Name)
	}

	// Delivering the remaining item completes the prescription. Items
	// already delivered are not decremented twice.
	out, err = f.svc.AuthorizePartialDelivery(context.Background(), p.ID, []uuid.UUID{medA.ID, medB.ID})
	if err != nil {
		t.Fatalf("second AuthorizePartialDelivery: %v", err)
	}
	if out.Status != PrescriptionDelivered {
		t.Errorf("status = %s, want delivered", out.Status)
	}
	if medA.Stock != 45 {
		t.Errorf("medA stock decremented twice: %d", medA.Stock)
	}
	if medB.Stock != 40 {
		t.Errorf("medB stock = %d, want 40", medB.Stock)
	}
	if f.notifier.events[1].Event.Name != "entregada" {
		t.Errorf("event = %s, want entregada", f.notifier.events[1].Event.Name)
	}
}

func TestAuthorizePartialDeliveryNoSelection(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.AuthorizePartialDelivery(context.Background(), uuid.New(), nil); err == nil {
		t.Error("expected error for empty selection")
	}
}

func TestListPendingPrescriptions(t *testing.T) {
	f := newFixture()
	physician := uuid.New()
	med := f.addMedication("Amoxicilina", 50)

	mk := func() *Prescription {
		appt := f.addAppointment(physician)
		p := &Prescription{
			AppointmentID: appt.ID,
			Items:         []*PrescriptionItem{{MedicationID: med.ID, Dose: "1", Frequency: "1 vez", Duration: "1 día"}},
		}
		if err := f.svc.CreatePrescription(context.Background(), p, physician); err != nil {
			t.Fatalf("CreatePrescription: %v", err)
		}
		return p
	}

	pending := mk()
	done := mk()
	if _, err := f.svc.AuthorizeDelivery(context.Background(), done.ID); err != nil {
		t.Fatalf("AuthorizeDelivery: %v", err)
	}

	out, err := f.svc.ListPendingPrescriptions(context.Background())
	if err != nil {
		t.Fatalf("ListPendingPrescriptions: %v", err)
	}
	if len(out) != 1 || out[0].ID != pending.ID {
		t.Errorf("expected only the undelivered prescription, got %d", len(out))
	}
}
