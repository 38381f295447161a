//go:build integration

package testutil

import (
	"context"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

// KafkaContainer is a single-broker Kafka for event publishing tests.
type KafkaContainer struct {
	Container *kafka.KafkaContainer
	Brokers   []string
}

// NewKafkaContainer starts a broker and creates topics with one partition each,
// so a reader on partition 0 sees every published event in order. The
// container is terminated when the test ends.
func NewKafkaContainer(ctx context.Context, t *testing.T, topics ...string) *KafkaContainer {
	t.Helper()

	kafkaContainer, err := kafka.Run(ctx,
		"confluentinc/confluent-local:7.6.1",
		kafka.WithClusterID("vulntriage-test"),
	)
	if err != nil {
		t.Fatalf("failed to start kafka container: %v", err)
	}
	kc := &KafkaContainer{Container: kafkaContainer}
	t.Cleanup(func() { kc.terminate(t) })

	kc.Brokers, err = kafkaContainer.Brokers(ctx)
	if err != nil {
		t.Fatalf("failed to get kafka brokers: %v", err)
	}

	for _, topic := range topics {
		// Dialing the leader auto-creates the topic on confluent-local.
		conn, err := kafkago.DialLeader(ctx, "tcp", kc.Brokers[0], topic, 0)
		if err != nil {
			t.Fatalf("failed to create topic %s: %v", topic, err)
		}
		_ = conn.Close()
	}
	return kc
}

// ReadMessage returns the next message on partition 0 of topic, failing the
// test if none arrives within timeout.
func (kc *KafkaContainer) ReadMessage(t *testing.T, topic string, timeout time.Duration) kafkago.Message {
	t.Helper()

	reader := kafkago.NewReader(kafkago.ReaderConfig{Brokers: kc.Brokers, Topic: topic, Partition: 0})
	defer reader.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	msg, err := reader.ReadMessage(ctx)
	if err != nil {
		t.Fatalf("no message on %s within %s: %v", topic, timeout, err)
	}
	return msg
}

func (kc *KafkaContainer) terminate(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := kc.Container.Terminate(ctx); err != nil {
		t.Logf("warning: failed to terminate kafka container: %v", err)
	}
}
