package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/wichananm65/marketplace-backend/internal/logger"
)

// Producer delivers one event to the broker.
type Producer interface {
	Publish(ctx context.Context, e Event) error
}

// KafkaProducer publishes events through a sarama sync producer guarded by a
// circuit breaker, so a dead broker fails fast instead of stalling the relay.
type KafkaProducer struct {
	producer sarama.SyncProducer
	breaker  *gobreaker.CircuitBreaker
	log      *zap.Logger
}

func NewKafkaProducer(brokers []string, log *zap.Logger) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	p, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("error creating producer: %w", err)
	}
	return NewKafkaProducerFrom(p, log), nil
}

// NewKafkaProducerFrom wraps an existing sync producer.
func NewKafkaProducerFrom(p sarama.SyncProducer, log *zap.Logger) *KafkaProducer {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "kafka-producer",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &KafkaProducer{producer: p, breaker: cb, log: log}
}

func (p *KafkaProducer) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", e.EventID, err)
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(e.EventType)},
		{Key: []byte("event_id"), Value: []byte(e.EventID.String())},
	}
	for k, v := range carrier {
		headers = append(headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}

	msg := &sarama.ProducerMessage{
		Topic:   e.Topic,
		Key:     sarama.StringEncoder(e.AggregateID),
		Value:   sarama.ByteEncoder(value),
		Headers: headers,
	}

	type sent struct {
		partition int32
		offset    int64
	}
	res, err := ExecuteWithBreaker(p.breaker, func() (sent, error) {
		partition, offset, err := p.producer.SendMessage(msg)
		return sent{partition, offset}, err
	})
	if err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}

	logger.Debug(ctx, p.log, "event published",
		zap.String("topic", e.Topic),
		zap.Int32("partition", res.partition),
		zap.Int64("offset", res.offset),
	)
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}

func ExecuteWithBreaker[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return *new(T), err
	}
	return res.(T), nil
}

// LogProducer stands in for Kafka when no brokers are configured. It logs
// events and reports them delivered.
type LogProducer struct {
	log *zap.Logger
}

func NewLogProducer(log *zap.Logger) *LogProducer {
	return &LogProducer{log: log}
}

func (p *LogProducer) Publish(ctx context.Context, e Event) error {
	logger.Info(ctx, p.log, "event (no broker configured)",
		zap.String("event_type", e.EventType),
		zap.String("aggregate_id", e.AggregateID),
		zap.ByteString("payload", e.Payload),
	)
	return nil
}
