package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"vitrine/internal/platform/kafka/producer"
)

var publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vitrine_events_published_total",
	Help: "Profile events handed to the broker, by type and outcome",
}, []string{"type", "outcome"})

// KafkaPublisher writes events to a topic keyed by profile ID so that all
// events of one profile land on the same partition in order.
type KafkaPublisher struct {
	producer *producer.Producer
	topic    string
	logger   *slog.Logger
}

func NewKafkaPublisher(p *producer.Producer, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: p, topic: topic, logger: logger}
}

func (k *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := event.Marshal()
	if err != nil {
		publishedTotal.WithLabelValues(string(event.Type), "error").Inc()
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &producer.Message{
		Topic: k.topic,
		Key:   []byte(event.ProfileID.String()),
		Value: payload,
		Headers: map[string]string{
			"event_type": string(event.Type),
		},
	}
	if err := k.producer.Produce(ctx, msg); err != nil {
		publishedTotal.WithLabelValues(string(event.Type), "error").Inc()
		if k.logger != nil {
			k.logger.WarnContext(ctx, "failed to publish profile event",
				"event_type", event.Type,
				"profile_id", event.ProfileID.String(),
				"error", err,
			)
		}
		return err
	}
	publishedTotal.WithLabelValues(string(event.Type), "ok").Inc()
	return nil
}
