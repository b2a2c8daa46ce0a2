package repository

import (
	"context"
	"time"

	"GridPulse/internal/domain/models"
	pkgkafka "GridPulse/pkg/kafka"
	"GridPulse/pkg/util"
)

// BatchProducer is the subset of *kafka.Producer the publisher needs.
type BatchProducer interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaAnomalyPublisher publishes one event per flagged day, keyed by region
// so each region's events stay ordered within a partition.
type KafkaAnomalyPublisher struct {
	producer BatchProducer
	topic    string
	now      func() time.Time
}

// NewKafkaAnomalyPublisher creates Kafka publisher.
func NewKafkaAnomalyPublisher(producer BatchProducer, topic string) *KafkaAnomalyPublisher {
	return &KafkaAnomalyPublisher{producer: producer, topic: topic, now: time.Now}
}

func (p *KafkaAnomalyPublisher) PublishAnomalies(ctx context.Context, events []models.AnomalyEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(events))
	for i, e := range events {
		msgs[i] = pkgkafka.Message{Key: []byte(e.Region), Value: e}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaAnomalyPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// AnomalyEvents converts the flagged rows of a feature table into events.
func AnomalyEvents(runID string, recs []models.DailyFeatureRecord, emittedAt time.Time) []models.AnomalyEvent {
	var out []models.AnomalyEvent
	for _, r := range recs {
		if !r.AnomalyFlag || r.MeanPrice == nil || r.AnomalyScore == nil {
			continue
		}
		direction := "spike"
		if *r.AnomalyScore < 0 {
			direction = "drop"
		}
		out = append(out, models.AnomalyEvent{
			RunID:                  runID,
			Region:                 r.Region,
			Date:                   util.FormatDate(r.Date),
			MeanPrice:              *r.MeanPrice,
			PriceVolatility:        r.PriceVolatility,
			MeanEmissionsIntensity: r.MeanEmissionsIntensity,
			AnomalyScore:           *r.AnomalyScore,
			Direction:              direction,
			EmittedAt:              emittedAt.UTC(),
		})
	}
	return out
}
