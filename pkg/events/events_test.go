package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestEventEnvelope(t *testing.T) {
	e := New(BookingCommitted, 42, map[string]int{"seats": 2})

	if got := string(e.key()); got != "booking.committed:42" {
		t.Fatalf("key = %q", got)
	}

	b, err := e.body()
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["type"] != BookingCommitted || decoded["entity_id"] != float64(42) {
		t.Fatalf("unexpected envelope %v", decoded)
	}
}

func TestNopPublisher(t *testing.T) {
	p := NewNop()
	if err := p.Publish(context.Background(), New(RidePublished, 1, nil)); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestKafkaWriterFlushesPromptly(t *testing.T) {
	w := newKafkaWriter([]string{"k1:9092", "k2:9092"}, "alwahis-events")
	defer w.Close()

	if w.Async {
		t.Fatal("writes must report broker errors to the caller")
	}
	if w.BatchTimeout <= 0 || w.BatchTimeout > 50*time.Millisecond {
		t.Fatalf("BatchTimeout = %v, a synchronous write would wait that long", w.BatchTimeout)
	}
	if w.Topic != "alwahis-events" {
		t.Fatalf("Topic = %q", w.Topic)
	}
}
