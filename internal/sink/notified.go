package sink

import (
	"context"
	"log/slog"

	"cargotag/internal/logging"
)

// Notifier announces completed deliveries.
type Notifier interface {
	NotifyDelivered(ctx context.Context, cargoID, location string, sizeBytes int) error
}

// Notified announces every successful delivery of Sink through Notifier.
// Notification failures are logged only.
type Notified struct {
	Sink     Sink
	Notifier Notifier
	Logger   *slog.Logger
}

func (n *Notified) Deliver(ctx context.Context, name string, data []byte) (string, error) {
	location, err := n.Sink.Deliver(ctx, name, data)
	if err != nil || n.Notifier == nil {
		return location, err
	}
	meta, _ := MetadataFromContext(ctx)
	if err := n.Notifier.NotifyDelivered(ctx, meta.CargoID, location, len(data)); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, logging.NewComponentLogger(n.Logger, "notifications")),
			"delivery notification failed", "notification_failed",
			logging.String("location", location),
			logging.Error(err),
			logging.String(logging.FieldImpact, "artifact delivered without a push notice"),
		)
	}
	return location, nil
}
