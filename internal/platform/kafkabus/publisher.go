package kafkabus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/yungbote/autocrm-backend/internal/platform/envutil"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
)

type Config struct {
	Brokers      []string
	Topic        string
	ClientID     string
	BatchTimeout time.Duration
	WriteTimeout time.Duration
	// Compression is one of none, gzip, snappy, lz4, zstd.
	Compression string
}

func ConfigFromEnv() Config {
	var brokers []string
	for _, b := range strings.Split(envutil.String("KAFKA_BROKERS", ""), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return Config{
		Brokers:      brokers,
		Topic:        envutil.String("KAFKA_TICKET_TOPIC", "autocrm.ticket-events"),
		ClientID:     envutil.String("KAFKA_CLIENT_ID", "autocrm-backend"),
		BatchTimeout: envutil.Duration("KAFKA_BATCH_TIMEOUT", 50*time.Millisecond),
		WriteTimeout: envutil.Duration("KAFKA_WRITE_TIMEOUT", 10*time.Second),
		Compression:  envutil.String("KAFKA_COMPRESSION", "snappy"),
	}
}

// Publisher writes JSON-encoded events to a single topic.
type Publisher interface {
	Publish(ctx context.Context, key string, headers map[string]string, value any) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type publisher struct {
	log   *logger.Logger
	w     messageWriter
	topic string
}

func New(log *logger.Logger, cfg Config) (Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker is required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, fmt.Errorf("kafka: topic is required")
	}
	codec, err := parseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		RequiredAcks:           kafka.RequireOne,
		Compression:            codec,
		AllowAutoTopicCreation: true,
		Transport:              &kafka.Transport{ClientID: cfg.ClientID},
	}
	return newPublisher(log, w, cfg.Topic), nil
}

func newPublisher(log *logger.Logger, w messageWriter, topic string) *publisher {
	return &publisher{log: log.With("client", "kafka", "topic", topic), w: w, topic: topic}
}

// Publish keys the message so every event for one entity lands on the same partition.
func (p *publisher) Publish(ctx context.Context, key string, headers map[string]string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kafka: encode event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now().UTC(),
	}
	for k, v := range headers {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write to %s: %w", p.topic, err)
	}
	p.log.Debug("Event published", "key", key, "bytes", len(payload))
	return nil
}

func (p *publisher) Close() error {
	return p.w.Close()
}

func parseCompression(name string) (kafka.Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return 0, nil
	case "gzip":
		return kafka.Gzip, nil
	case "snappy":
		return kafka.Snappy, nil
	case "lz4":
		return kafka.Lz4, nil
	case "zstd":
		return kafka.Zstd, nil
	default:
		return 0, fmt.Errorf("kafka: unknown compression %q", name)
	}
}
