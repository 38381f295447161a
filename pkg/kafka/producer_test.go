package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
)

type recordingWriter struct {
	mu       sync.Mutex
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func newTestProducer(t *testing.T, w *recordingWriter) *Producer {
	t.Helper()
	p, err := NewProducer(Config{Brokers: []string{"localhost:9092"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.newWriter = func(string) messageWriter { return w }
	return p
}

func TestNewProducer(t *testing.T) {
	p, err := NewProducer(Config{Brokers: []string{"localhost:9092", "localhost:9093"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.brokers) != 2 {
		t.Fatalf("expected 2 brokers, got %d", len(p.brokers))
	}
	if len(p.writers) != 0 {
		t.Errorf("expected empty writers map, got %d entries", len(p.writers))
	}
}

func TestNewProducer_InvalidConfig(t *testing.T) {
	if _, err := NewProducer(Config{}); err == nil {
		t.Error("expected error without brokers")
	}

	_, err := NewProducer(Config{
		Brokers:       []string{"kafka:9092"},
		SASLEnabled:   true,
		SASLMechanism: "GSSAPI",
	})
	if err == nil {
		t.Error("expected error for unsupported SASL mechanism")
	}
}

func TestConfigTransport(t *testing.T) {
	tr, err := Config{Brokers: []string{"kafka:9092"}}.transport()
	if err != nil || tr != nil {
		t.Fatalf("expected default transport, got %v, %v", tr, err)
	}

	tr, err = Config{TLS: true, SASLEnabled: true, SASLMechanism: "SCRAM-SHA-512", SASLUsername: "u", SASLPassword: "p"}.transport()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.TLS == nil || tr.SASL == nil {
		t.Error("expected TLS and SASL to be configured")
	}
	if tr.SASL.Name() != "SCRAM-SHA-512" {
		t.Errorf("unexpected mechanism %s", tr.SASL.Name())
	}
}

func TestPublish(t *testing.T) {
	w := &recordingWriter{}
	p := newTestProducer(t, w)

	err := p.Publish(context.Background(), "vuln.events", Message{
		Key:     []byte("CVE-2024-3400"),
		Value:   []byte(`{"risk":"HIGH"}`),
		Headers: map[string]string{"event_type": "vuln.scored"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(w.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.messages))
	}
	got := w.messages[0]
	if string(got.Key) != "CVE-2024-3400" {
		t.Errorf("unexpected key %s", got.Key)
	}
	if len(got.Headers) != 1 || got.Headers[0].Key != "event_type" || string(got.Headers[0].Value) != "vuln.scored" {
		t.Errorf("unexpected headers %+v", got.Headers)
	}
}

func TestPublish_NoMessages(t *testing.T) {
	w := &recordingWriter{}
	p := newTestProducer(t, w)

	if err := p.Publish(context.Background(), "vuln.events"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.writers) != 0 {
		t.Error("expected no writer to be created for an empty publish")
	}
}

func TestPublish_WriterError(t *testing.T) {
	w := &recordingWriter{err: errors.New("leader not available")}
	p := newTestProducer(t, w)

	err := p.Publish(context.Background(), "vuln.events", Message{Value: []byte("{}")})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, w.err) {
		t.Errorf("expected wrapped writer error, got %v", err)
	}
}

func TestGetOrCreateWriter(t *testing.T) {
	p, err := NewProducer(Config{Brokers: []string{"localhost:9092"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w1 := p.getOrCreateWriter("topic-a")
	w2 := p.getOrCreateWriter("topic-a")
	if w1 != w2 {
		t.Error("expected same writer instance for same topic")
	}
	if w3 := p.getOrCreateWriter("topic-b"); w1 == w3 {
		t.Error("expected different writer instance for different topic")
	}
	if len(p.writers) != 2 {
		t.Errorf("expected 2 writers, got %d", len(p.writers))
	}
}

func TestProducerClose(t *testing.T) {
	w := &recordingWriter{}
	p := newTestProducer(t, w)
	_ = p.getOrCreateWriter("topic-a")

	if err := p.Close(); err != nil {
		t.Fatalf("unexpected error on close: %v", err)
	}
	if !w.closed {
		t.Error("expected writer to be closed")
	}
	if len(p.writers) != 0 {
		t.Errorf("expected 0 writers after close, got %d", len(p.writers))
	}
}
