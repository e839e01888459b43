package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"noisemap/backend/services/laeq-service/internal/models"
)

const writeTimeout = 5 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config selects the brokers and topic receiving LAeq reports.
type Config struct {
	Brokers []string
	Topic   string
}

// ReportEvent is the message value written for each computed report.
type ReportEvent struct {
	Type   string         `json:"type"`
	Report *models.Report `json:"report"`
}

// KafkaPublisher writes computed reports to Kafka keyed by cell id.
type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger
}

// NewKafkaPublisher returns publisher.
func NewKafkaPublisher(cfg Config, logger *zap.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("publisher: at least one broker is required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("publisher: topic must not be empty")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return newWithWriter(w, logger), nil
}

func newWithWriter(w messageWriter, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, logger: logger.With(zap.String("component", "kafka_publisher"))}
}

// Publish writes report synchronously with a bounded timeout.
func (p *KafkaPublisher) Publish(ctx context.Context, report *models.Report) error {
	value, err := json.Marshal(ReportEvent{Type: "laeq.report", Report: report})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(report.Cell.ID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "window", Value: []byte(report.Type)},
		},
		Time: report.ComputedAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}
	p.logger.Debug("report published", zap.String("cell", report.Cell.ID), zap.String("window", string(report.Type)))
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
