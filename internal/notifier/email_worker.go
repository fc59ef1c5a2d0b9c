package notifier

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const ConsumerGroup = "storefront-mailer"

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// EmailWorker consumes order notifications and delivers them as email.
type EmailWorker struct {
	reader messageReader
	mailer Mailer
	log    zerolog.Logger
}

func NewEmailWorker(mailer Mailer, log zerolog.Logger, topic string, brokers ...string) *EmailWorker {
	if topic == "" {
		topic = DefaultTopic
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  ConsumerGroup,
		MaxBytes: 10e6, // 10MB
	})
	return &EmailWorker{reader: reader, mailer: mailer, log: log}
}

func (w *EmailWorker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		w.processMessage(ctx)
	}
}

func (w *EmailWorker) Close() {
	if err := w.reader.Close(); err != nil {
		w.log.Error().Err(err).Msg("error closing kafka reader")
	}
}

func (w *EmailWorker) processMessage(ctx context.Context) {
	m, err := w.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		w.log.Error().Err(err).Msg("error reading message")
		return
	}

	var n Notification
	if err := json.Unmarshal(m.Value, &n); err != nil {
		w.log.Warn().Err(err).Int64("offset", m.Offset).Msg("skipping malformed notification")
		return
	}

	l := w.log.With().Str("kind", string(n.Kind)).Str("order_number", n.OrderNumber).Logger()
	if n.Email == "" {
		l.Warn().Msg("notification has no recipient, skipping")
		return
	}

	content, err := Render(n)
	if err != nil {
		l.Warn().Err(err).Msg("skipping notification")
		return
	}

	if err := w.mailer.Send(ctx, Message{To: n.Email, Subject: content.Subject, Body: content.Body}); err != nil {
		l.Error().Err(err).Msg("failed to deliver notification")
		return
	}
	l.Info().Msg("notification delivered")
}
