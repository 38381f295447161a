package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewBaseEvent(t *testing.T) {
	occurred := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	event := NewBaseEvent("vuln.scored", "CVE-2024-1234", "ScoredRecord", occurred)

	if event.EventID() == uuid.Nil {
		t.Error("expected non-nil event ID")
	}
	if event.EventType() != "vuln.scored" {
		t.Errorf("expected event type %q, got %q", "vuln.scored", event.EventType())
	}
	if event.AggregateID() != "CVE-2024-1234" {
		t.Errorf("expected aggregate ID %q, got %q", "CVE-2024-1234", event.AggregateID())
	}
	if event.AggregateType() != "ScoredRecord" {
		t.Errorf("expected aggregate type %q, got %q", "ScoredRecord", event.AggregateType())
	}
	if !event.OccurredAt().Equal(occurred) {
		t.Errorf("expected occurredAt %v, got %v", occurred, event.OccurredAt())
	}
	if event.OccurredAt().Location() != time.UTC {
		t.Errorf("expected occurredAt in UTC, got %v", event.OccurredAt().Location())
	}
}

func TestNewBaseEventZeroTimeUsesNow(t *testing.T) {
	before := time.Now().UTC()
	event := NewBaseEvent("vuln.scored", "CVE-2024-1234", "ScoredRecord", time.Time{})
	after := time.Now().UTC()

	if event.OccurredAt().Before(before) || event.OccurredAt().After(after) {
		t.Errorf("expected occurredAt between %v and %v, got %v", before, after, event.OccurredAt())
	}
}

func TestBaseEventImplementsDomainEvent(t *testing.T) {
	var _ DomainEvent = BaseEvent{}
}

func TestUniqueEventIDs(t *testing.T) {
	a := NewBaseEvent("vuln.scored", "CVE-1", "ScoredRecord", time.Now())
	b := NewBaseEvent("vuln.scored", "CVE-1", "ScoredRecord", time.Now())
	if a.EventID() == b.EventID() {
		t.Error("expected distinct event IDs")
	}
}

func TestEventCollector(t *testing.T) {
	var c EventCollector
	c.Record(NewBaseEvent("a", "1", "X", time.Now()))
	c.Record(NewBaseEvent("b", "1", "X", time.Now()))

	if len(c.Events()) != 2 {
		t.Fatalf("expected 2 events, got %d", len(c.Events()))
	}

	cleared := c.ClearEvents()
	if len(cleared) != 2 {
		t.Fatalf("expected 2 cleared events, got %d", len(cleared))
	}
	if cleared[0].EventType() != "a" || cleared[1].EventType() != "b" {
		t.Errorf("expected events in record order, got %q, %q", cleared[0].EventType(), cleared[1].EventType())
	}
	if len(c.Events()) != 0 {
		t.Errorf("expected no events after clear, got %d", len(c.Events()))
	}
}
