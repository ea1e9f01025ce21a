package repository

import (
	"context"

	"TickVault/internal/domain/models"
	domrepo "TickVault/internal/domain/repository"
	pkgkafka "TickVault/pkg/kafka"
)

// KafkaNotifier publishes rollup lifecycle events for downstream consumers
// (schedulers, cache invalidation, audit).
type KafkaNotifier struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaNotifier creates a Kafka-backed notifier.
func NewKafkaNotifier(producer *pkgkafka.Producer, topic string) domrepo.Notifier {
	return &KafkaNotifier{producer: producer, topic: topic}
}

func (n *KafkaNotifier) RollupCompleted(ctx context.Context, ev models.RollupEvent) error {
	// Key by target tier so per-tier ordering is preserved under the hash
	// balancer.
	return n.producer.Publish(ctx, n.topic, []byte(ev.Target), ev)
}

func (n *KafkaNotifier) Close() error {
	if n.producer != nil {
		return n.producer.Close()
	}
	return nil
}
