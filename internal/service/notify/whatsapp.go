package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockscan/internal/domain/models"
	client "github.com/mamadbah2/stockscan/pkg/clients/whatsapp"
)

const whatsappSendTimeout = 10 * time.Second

// WhatsAppNotifier forwards selected notification kinds to a WhatsApp recipient.
// Sends run in the background so the scanning workflow never waits on the network;
// Close waits for the ones still in flight.
type WhatsAppNotifier struct {
	client client.Client
	to     string
	kinds  map[models.NotificationKind]bool
	logger *zap.Logger
	async  bool
	wg     sync.WaitGroup
}

// NewWhatsAppNotifier builds a notifier sending to the recipient phone number. With no
// kinds given, every notification is forwarded.
func NewWhatsAppNotifier(c client.Client, to string, logger *zap.Logger, kinds ...models.NotificationKind) *WhatsAppNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	var filter map[models.NotificationKind]bool
	if len(kinds) > 0 {
		filter = make(map[models.NotificationKind]bool, len(kinds))
		for _, k := range kinds {
			filter[k] = true
		}
	}
	return &WhatsAppNotifier{client: c, to: to, kinds: filter, logger: logger, async: true}
}

// Notify implements Notifier.
func (w *WhatsAppNotifier) Notify(_ context.Context, n models.Notification) {
	if w.kinds != nil && !w.kinds[n.Kind] {
		return
	}

	body := fmt.Sprintf("%s\n%s", n.Title, n.Message)
	if w.async {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.send(n.Kind, body)
		}()
		return
	}
	w.send(n.Kind, body)
}

// Close blocks until every background send has finished.
func (w *WhatsAppNotifier) Close() {
	w.wg.Wait()
}

func (w *WhatsAppNotifier) send(kind models.NotificationKind, body string) {
	// Detached from the caller's context: the request that triggered the
	// notification may already be finished.
	ctx, cancel := context.WithTimeout(context.Background(), whatsappSendTimeout)
	defer cancel()

	if _, err := w.client.SendTextMessage(ctx, client.SendTextMessageRequest{To: w.to, Body: body}); err != nil {
		w.logger.Error("failed to send whatsapp notification", zap.String("kind", string(kind)), zap.Error(err))
		return
	}
	w.logger.Debug("whatsapp notification sent", zap.String("kind", string(kind)))
}
