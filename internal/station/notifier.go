package station

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mamadbah2/stockscan/internal/domain/models"
)

// ChannelNotifier hands notifications to the UI loop. When the buffer is full the
// notification is dropped rather than blocking the controller.
type ChannelNotifier struct {
	ch chan models.Notification
}

// NewChannelNotifier creates a notifier with the given buffer size.
func NewChannelNotifier(size int) *ChannelNotifier {
	if size <= 0 {
		size = 16
	}
	return &ChannelNotifier{ch: make(chan models.Notification, size)}
}

// Notify implements notify.Notifier.
func (c *ChannelNotifier) Notify(_ context.Context, n models.Notification) {
	select {
	case c.ch <- n:
	default:
	}
}

type notificationMsg models.Notification

func waitForNotification(ch <-chan models.Notification) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return notificationMsg(n)
	}
}
