package websocket

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func newTestClient(topic string, buffer int) *Client {
	return &Client{
		ID:    topic + "-client",
		Topic: topic,
		Send:  make(chan []byte, buffer),
	}
}

func newTestHub() *Hub {
	return NewHub(zerolog.Nop())
}

func TestRegisterAndBroadcast(t *testing.T) {
	hub := newTestHub()
	client := newTestClient(TopicAppointments, 8)
	hub.Register(client)

	hub.Broadcast(TopicAppointments, Event{Name: "actualizacion_citas"})

	select {
	case msg := <-client.Send:
		var e Event
		if err := json.Unmarshal(msg, &e); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if e.Name != "actualizacion_citas" {
			t.Errorf("evento = %s, want actualizacion_citas", e.Name)
		}
	default:
		t.Fatal("expected a message on the send channel")
	}
}

func TestEventWireFormat(t *testing.T) {
	data, err := json.Marshal(Event{Name: "entregada", Data: map[string]interface{}{"receta_id": "abc"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"evento":"entregada","datos":{"receta_id":"abc"}}`
	if string(data) != want {
		t.Errorf("wire format = %s, want %s", data, want)
	}

	// Events without data omit the datos field entirely.
	data, _ = json.Marshal(Event{Name: "actualizacion_citas"})
	if string(data) != `{"evento":"actualizacion_citas"}` {
		t.Errorf("wire format = %s", data)
	}
}

func TestTopicIsolation(t *testing.T) {
	hub := newTestHub()
	appts := newTestClient(TopicAppointments, 8)
	meds := newTestClient(TopicMedications, 8)
	hub.Register(appts)
	hub.Register(meds)

	hub.Broadcast(TopicAppointments, Event{Name: "actualizacion_citas"})

	if len(appts.Send) != 1 {
		t.Errorf("appointments client should have 1 message, has %d", len(appts.Send))
	}
	if len(meds.Send) != 0 {
		t.Errorf("medications client should have 0 messages, has %d", len(meds.Send))
	}
}

func TestPerTopicOrdering(t *testing.T) {
	hub := newTestHub()
	client := newTestClient(TopicMedications, 16)
	hub.Register(client)

	names := []string{"crear", "actualizar", "eliminar"}
	for _, name := range names {
		hub.Broadcast(TopicMedications, Event{Name: name})
	}

	for i, want := range names {
		var e Event
		if err := json.Unmarshal(<-client.Send, &e); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if e.Name != want {
			t.Errorf("message %d = %s, want %s", i, e.Name, want)
		}
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	hub := newTestHub()
	client := newTestClient(TopicAppointments, 8)
	hub.Register(client)

	hub.Unregister(client)
	// A second unregister must not panic on the closed channel.
	hub.Unregister(client)

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", hub.ClientCount())
	}
}

func TestNoDeliveryAfterUnregister(t *testing.T) {
	hub := newTestHub()
	client := newTestClient(TopicAppointments, 8)
	hub.Register(client)
	hub.Unregister(client)

	hub.Broadcast(TopicAppointments, Event{Name: "actualizacion_citas"})

	// The channel is closed and empty; a receive returns immediately with
	// no value.
	if msg, ok := <-client.Send; ok {
		t.Errorf("unexpected message after unregister: %s", msg)
	}
}

func TestSlowClientIsSkipped(t *testing.T) {
	hub := newTestHub()
	slow := newTestClient(TopicAppointments, 1)
	healthy := newTestClient(TopicAppointments, 8)
	hub.Register(slow)
	hub.Register(healthy)

	// Second broadcast overflows the slow client's buffer; delivery to the
	// healthy client must not block or fail.
	hub.Broadcast(TopicAppointments, Event{Name: "uno"})
	hub.Broadcast(TopicAppointments, Event{Name: "dos"})

	if len(slow.Send) != 1 {
		t.Errorf("slow client should hold 1 message, has %d", len(slow.Send))
	}
	if len(healthy.Send) != 2 {
		t.Errorf("healthy client should hold 2 messages, has %d", len(healthy.Send))
	}
}

func TestCounts(t *testing.T) {
	hub := newTestHub()
	a := newTestClient(TopicAppointments, 1)
	b := newTestClient(TopicAppointments, 1)
	c := newTestClient(TopicPrescriptions, 1)
	hub.Register(a)
	hub.Register(b)
	hub.Register(c)

	if got := hub.ClientCount(); got != 3 {
		t.Errorf("ClientCount = %d, want 3", got)
	}
	if got := hub.TopicCount(TopicAppointments); got != 2 {
		t.Errorf("TopicCount(appointments) = %d, want 2", got)
	}
	if got := hub.TopicCount(TopicMedications); got != 0 {
		t.Errorf("TopicCount(medications) = %d, want 0", got)
	}
}
