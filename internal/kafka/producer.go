package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	kgo "github.com/segmentio/kafka-go"
)

type Writer interface {
	WriteJSON(ctx context.Context, key string, v any) error
	Close() error
}

type WriterConfig struct {
	Brokers      string // comma separated host:port list
	Topic        string
	RequiredAcks string // "none" | "one" | "all"
	Async        bool
}

type writer struct {
	w *kgo.Writer
}

// NewWriter creates a Kafka writer for one topic. Messages sharing a key land
// on the same partition, so events for one post stay ordered.
func NewWriter(cfg WriterConfig) (Writer, error) {
	var brokers []string
	for _, b := range strings.Split(cfg.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka: no topic configured")
	}
	w := &kgo.Writer{
		Addr:         kgo.TCP(brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kgo.Hash{},
		RequiredAcks: requiredAcks(cfg.RequiredAcks),
		Async:        cfg.Async,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &writer{w: w}, nil
}

func requiredAcks(s string) kgo.RequiredAcks {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return kgo.RequireNone
	case "all":
		return kgo.RequireAll
	default:
		return kgo.RequireOne
	}
}

func (wr *writer) WriteJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	msg := kgo.Message{Key: []byte(key), Value: b, Time: time.Now()}
	return wr.w.WriteMessages(ctx, msg)
}

func (wr *writer) Close() error { return wr.w.Close() }
