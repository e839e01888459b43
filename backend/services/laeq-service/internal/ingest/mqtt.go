package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"noisemap/backend/libs/laeq"
	"noisemap/backend/services/laeq-service/internal/models"
)

const (
	connectTimeout = 10 * time.Second
	pruneInterval  = time.Minute
)

// SampleObserver is notified of every accepted live sample.
type SampleObserver interface {
	LiveSample()
}

// SubscriberConfig selects the broker and topic carrying sensor readings.
type SubscriberConfig struct {
	Broker   string
	Topic    string
	ClientID string
}

// Subscriber feeds MQTT sensor readings into a Buffer.
type Subscriber struct {
	cfg    SubscriberConfig
	client mqtt.Client
	buffer *Buffer
	obs    SampleObserver
	logger *zap.Logger
}

// NewSubscriber builds a subscriber. The connection is opened by Run.
func NewSubscriber(cfg SubscriberConfig, buffer *Buffer, obs SampleObserver, logger *zap.Logger) *Subscriber {
	s := &Subscriber{cfg: cfg, buffer: buffer, obs: obs, logger: logger.With(zap.String("component", "mqtt_ingest"))}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOrderMatters(false).
		SetOnConnectHandler(func(c mqtt.Client) {
			if token := c.Subscribe(cfg.Topic, 1, s.handle); token.Wait() && token.Error() != nil {
				s.logger.Error("subscribe failed", zap.String("topic", cfg.Topic), zap.Error(token.Error()))
				return
			}
			s.logger.Info("subscribed", zap.String("topic", cfg.Topic))
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			s.logger.Warn("connection lost", zap.Error(err))
		})
	s.client = mqtt.NewClient(opts)
	return s
}

// Run connects and consumes until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		s.logger.Warn("broker not reachable yet, retrying in background", zap.String("broker", s.cfg.Broker))
	} else if token.Error() != nil {
		return token.Error()
	}

	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.client.Disconnect(250)
			return nil
		case <-ticker.C:
			s.buffer.Prune()
		}
	}
}

func (s *Subscriber) handle(_ mqtt.Client, msg mqtt.Message) {
	sample, err := decodeSample(msg.Payload(), time.Now())
	if err != nil {
		s.logger.Debug("dropping reading", zap.String("topic", msg.Topic()), zap.Error(err))
		return
	}
	if s.buffer.Add(sample.CellID, laeq.Sample{Time: sample.Time, LevelDb: sample.NoiseLevel}) && s.obs != nil {
		s.obs.LiveSample()
	}
}

func decodeSample(payload []byte, now time.Time) (models.LiveSample, error) {
	var sample models.LiveSample
	if err := json.Unmarshal(payload, &sample); err != nil {
		return sample, err
	}
	sample.CellID = strings.TrimSpace(sample.CellID)
	if sample.CellID == "" {
		return sample, errors.New("missing cellId")
	}
	if math.IsNaN(sample.NoiseLevel) || math.IsInf(sample.NoiseLevel, 0) {
		return sample, errors.New("non-finite noiseLevel")
	}
	if sample.Time.IsZero() {
		sample.Time = now
	}
	return sample, nil
}
