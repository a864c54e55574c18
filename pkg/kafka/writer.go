// Package kafka publishes ledger events to Kafka topics.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer sends messages keyed by aggregate so one aggregate stays on one partition.
type Writer struct {
	writer  messageWriter
	brokers []string
	topic   string
}

// NewWriter builds a writer for the configured brokers and checks that one is reachable.
func NewWriter(ctx context.Context, cfg config.KafkaConfig, logg *logger.Logger) (*Writer, error) {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, b := range cfg.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if strings.TrimSpace(cfg.LedgerTopic) == "" {
		return nil, errors.New("kafka ledger topic is required")
	}

	w := &Writer{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireAll,
			WriteTimeout: cfg.WriteTimeout,
		},
		brokers: brokers,
		topic:   cfg.LedgerTopic,
	}
	if err := w.Ping(ctx); err != nil {
		_ = w.Close()
		return nil, err
	}
	logg.Info(logg.WithFields(ctx, map[string]any{"brokers": brokers, "topic": cfg.LedgerTopic}), "kafka writer initialized")
	return w, nil
}

// Publish writes one message and returns once the brokers acknowledged it.
func (w *Writer) Publish(ctx context.Context, topic, key string, data []byte, attrs map[string]string) error {
	if w == nil || w.writer == nil {
		return errors.New("kafka writer not initialized")
	}
	return w.writer.WriteMessages(ctx, message(topic, key, data, attrs))
}

func message(topic, key string, data []byte, attrs map[string]string) kafkago.Message {
	names := make([]string, 0, len(attrs))
	for k := range attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	headers := make([]kafkago.Header, 0, len(names))
	for _, k := range names {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(attrs[k])})
	}
	return kafkago.Message{
		Topic:   topic,
		Key:     []byte(key),
		Value:   data,
		Headers: headers,
	}
}

// Ping dials the first reachable broker.
func (w *Writer) Ping(ctx context.Context) error {
	var lastErr error
	for _, b := range w.brokers {
		conn, err := kafkago.DialContext(ctx, "tcp", b)
		if err != nil {
			lastErr = err
			continue
		}
		return conn.Close()
	}
	return fmt.Errorf("no kafka broker reachable: %w", lastErr)
}

func (w *Writer) Close() error {
	if w == nil || w.writer == nil {
		return nil
	}
	return w.writer.Close()
}
