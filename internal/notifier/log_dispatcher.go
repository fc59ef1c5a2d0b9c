package notifier

import (
	"context"

	"github.com/inkdesk/storefront/internal/logger"
	"github.com/rs/zerolog"
)

// LogDispatcher only records notifications. Used when no brokers are configured.
type LogDispatcher struct {
	log zerolog.Logger
}

func NewLogDispatcher(log zerolog.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, n Notification) {
	l := logger.FromContext(ctx, d.log)
	l.Info().
		Str("kind", string(n.Kind)).
		Str("order_number", n.OrderNumber).
		Str("user_id", n.UserID).
		Msg("notification not delivered: no broker configured")
}
