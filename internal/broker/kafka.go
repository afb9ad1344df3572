package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/yyvfuruta/employees/internal/env"
)

type kafkaReader interface {
	FetchMessage(ctx context.Context) (kafkaGo.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkaGo.Message) error
	Close() error
}

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error
	Close() error
}

// Kafka is an Exchange on Kafka topics. Each routing key is a topic and each
// queue is a consumer group; offsets are committed once a message has been
// handled or parked.
type Kafka struct {
	writer    kafkaWriter
	newReader func(groupID, topic string) kafkaReader
	logger    *slog.Logger
	cfg       Config
}

var _ Exchange = (*Kafka)(nil)

func NewKafka(cfg Config, logger *slog.Logger) (*Kafka, error) {
	brokers := env.List("KAFKA_BROKERS", []string{"localhost:9092"})
	if len(brokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS environment variable not set")
	}

	w := &kafkaGo.Writer{
		Addr:                   kafkaGo.TCP(brokers...),
		Balancer:               &kafkaGo.LeastBytes{},
		RequiredAcks:           kafkaGo.RequireAll,
		AllowAutoTopicCreation: true,
	}

	newReader := func(groupID, topic string) kafkaReader {
		return kafkaGo.NewReader(kafkaGo.ReaderConfig{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   topic,
		})
	}

	return &Kafka{writer: w, newReader: newReader, logger: logger, cfg: cfg}, nil
}

func (k *Kafka) Publish(ctx context.Context, routingKey string, body []byte) error {
	err := k.writer.WriteMessages(ctx, kafkaGo.Message{
		Topic: routingKey,
		Value: body,
	})
	if err != nil {
		return fmt.Errorf("kafka publish %s: %w", routingKey, err)
	}
	return nil
}

func (k *Kafka) Subscribe(ctx context.Context, queue string, h Handler) error {
	routingKey, err := RoutingKeyFor(queue)
	if err != nil {
		return err
	}

	reader := k.newReader(queue, routingKey)
	defer reader.Close()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				k.logger.Info("Consumer shutting down", "queue", queue)
				return nil
			}
			return fmt.Errorf("kafka fetch on %s: %w", queue, err)
		}

		d := Delivery{Queue: queue, RoutingKey: routingKey, Body: msg.Value}
		if err := deliver(ctx, h, d, k.cfg.MaxRetries, k.cfg.RetryDelay); err != nil {
			if ctx.Err() != nil {
				// Not committed; the group will see it again.
				return nil
			}
			k.logger.Error("Parking message", "queue", queue, "error", err)
			if perr := k.Publish(ctx, DeadQueue(queue), msg.Value); perr != nil {
				k.logger.Error("Failed to park message", "queue", queue, "error", perr)
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("kafka commit on %s: %w", queue, err)
		}
	}
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
