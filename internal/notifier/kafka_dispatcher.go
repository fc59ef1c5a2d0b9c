package notifier

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/inkdesk/storefront/internal/logger"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "order-notifications"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaDispatcher publishes notifications on background goroutines so the
// request that triggered them never waits on the broker.
type KafkaDispatcher struct {
	writer  messageWriter
	timeout time.Duration
	log     zerolog.Logger
	wg      sync.WaitGroup
}

func NewKafkaDispatcher(log zerolog.Logger, topic string, brokers ...string) *KafkaDispatcher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return newKafkaDispatcher(w, log)
}

func newKafkaDispatcher(w messageWriter, log zerolog.Logger) *KafkaDispatcher {
	return &KafkaDispatcher{writer: w, timeout: 5 * time.Second, log: log}
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, n Notification) {
	l := logger.FromContext(ctx, d.log).With().
		Str("kind", string(n.Kind)).
		Str("order_number", n.OrderNumber).
		Logger()

	payload, err := json.Marshal(n)
	if err != nil {
		l.Error().Err(err).Msg("failed to encode notification")
		return
	}

	msg := kafka.Message{
		Key:   []byte(n.OrderNumber),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(n.Kind)},
		},
	}

	// The request context is cancelled as soon as the response is written.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		if err := d.writer.WriteMessages(pubCtx, msg); err != nil {
			l.Error().Err(err).Msg("failed to publish notification")
			return
		}
		l.Debug().Msg("notification published")
	}()
}

// Close waits for in-flight publishes and closes the writer.
func (d *KafkaDispatcher) Close() error {
	d.wg.Wait()
	return d.writer.Close()
}
