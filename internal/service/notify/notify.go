package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockscan/internal/domain/models"
)

// Notifier receives user-facing notifications. Implementations must not block the caller
// for long and never report failures back: delivery is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, n models.Notification)

// Notify implements Notifier.
func (f Func) Notify(ctx context.Context, n models.Notification) { f(ctx, n) }

// Fanout forwards every notification to all wrapped notifiers in order.
type Fanout []Notifier

// Notify implements Notifier.
func (f Fanout) Notify(ctx context.Context, n models.Notification) {
	for _, target := range f {
		if target != nil {
			target.Notify(ctx, n)
		}
	}
}

// Close waits on every wrapped notifier that has pending deliveries.
func (f Fanout) Close() {
	for _, target := range f {
		if c, ok := target.(interface{ Close() }); ok {
			c.Close()
		}
	}
}

// LogNotifier writes notifications as structured log lines.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier builds a notifier backed by logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (l *LogNotifier) Notify(_ context.Context, n models.Notification) {
	fields := []zap.Field{
		zap.String("kind", string(n.Kind)),
		zap.String("title", n.Title),
		zap.String("message", n.Message),
	}
	if n.Destructive() {
		l.logger.Warn("notification", fields...)
		return
	}
	l.logger.Info("notification", fields...)
}
