package scanning

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockscan/internal/domain/models"
	"github.com/mamadbah2/stockscan/internal/service/decoder"
	"github.com/mamadbah2/stockscan/internal/service/notify"
)

// DefaultTimeout is how long a pending session waits for commit or cancel.
const DefaultTimeout = 5 * time.Second

// Recorder stores committed adjustments.
type Recorder interface {
	Append(entry models.HistoryEntry)
}

// Controller owns the single scan session. Every transition runs under one mutex, so
// events are applied one at a time in arrival order. Calls that do not fit the current
// state are ignored and report false.
type Controller struct {
	resolver decoder.Resolver
	history  Recorder
	notifier notify.Notifier
	logger   *zap.Logger
	timeout  time.Duration
	clock    Clock
	newID    func() string

	mu         sync.Mutex
	status     models.SessionStatus
	item       models.ItemReference
	delta      int
	openedAt   time.Time
	timer      Timer
	generation uint64
}

// NewController wires a controller. A non-positive timeout falls back to DefaultTimeout.
func NewController(resolver decoder.Resolver, history Recorder, notifier notify.Notifier, timeout time.Duration, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.Fanout{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Controller{
		resolver: resolver,
		history:  history,
		notifier: notifier,
		logger:   logger,
		timeout:  timeout,
		clock:    systemClock{},
		newID:    uuid.NewString,
		status:   models.SessionIdle,
	}
}

// Timeout returns the configured session countdown.
func (c *Controller) Timeout() time.Duration {
	return c.timeout
}

// OnDecode opens a pending session for payload. Ignored unless the controller is idle
// and the payload carries more than whitespace.
func (c *Controller) OnDecode(ctx context.Context, payload string) (models.ScanSession, bool) {
	c.mu.Lock()
	if strings.TrimSpace(payload) == "" {
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		c.logger.Debug("decode ignored, blank payload")
		return snapshot, false
	}
	if c.status != models.SessionIdle {
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		c.logger.Debug("decode ignored, session already pending", zap.String("payload", payload))
		return snapshot, false
	}

	item := c.resolver.Resolve(ctx, payload)

	c.generation++
	gen := c.generation
	c.status = models.SessionPending
	c.item = item
	c.delta = 1
	c.openedAt = c.clock.Now()
	c.timer = c.clock.AfterFunc(c.timeout, func() { c.expire(gen) })

	snapshot := c.snapshotLocked()
	note := c.notification(models.NotifyScanAcknowledged, "Item Scanned", fmt.Sprintf("%s (%s)", item.DisplayName, item.Identifier))
	c.mu.Unlock()

	c.logger.Info("scan session opened",
		zap.String("identifier", item.Identifier),
		zap.String("item", item.DisplayName),
		zap.Bool("unknown", item.IsUnknown()))
	c.notifier.Notify(ctx, note)
	return snapshot, true
}

// SetDelta updates the pending quantity. Values below 1 are clamped to 1 and reported
// as invalid input.
func (c *Controller) SetDelta(ctx context.Context, n int) bool {
	return c.applyDelta(ctx, n, strconv.Itoa(n))
}

// SetDeltaInput parses quantity text typed by an operator. Non-numeric text is clamped
// to 1 like a non-positive number.
func (c *Controller) SetDeltaInput(ctx context.Context, raw string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		n = 0
	}
	return c.applyDelta(ctx, n, raw)
}

func (c *Controller) applyDelta(ctx context.Context, n int, raw string) bool {
	c.mu.Lock()
	if c.status != models.SessionPending {
		c.mu.Unlock()
		c.logger.Debug("set delta ignored, no pending session", zap.String("input", raw))
		return false
	}

	if n >= 1 {
		c.delta = n
		c.mu.Unlock()
		return true
	}

	c.delta = 1
	note := c.notification(models.NotifyInvalidInput, "Invalid Quantity",
		fmt.Sprintf("%q is not a positive whole number, using 1", raw))
	c.mu.Unlock()

	c.notifier.Notify(ctx, note)
	return true
}

// Commit applies the pending delta in the given direction and records it in the history.
func (c *Controller) Commit(ctx context.Context, direction models.Direction) (models.HistoryEntry, bool) {
	if direction != models.DirectionAdd && direction != models.DirectionRemove {
		c.logger.Debug("commit ignored, unknown direction", zap.String("direction", string(direction)))
		return models.HistoryEntry{}, false
	}

	c.mu.Lock()
	if c.status != models.SessionPending {
		c.mu.Unlock()
		c.logger.Debug("commit ignored, no pending session")
		return models.HistoryEntry{}, false
	}

	c.status = models.SessionCommitting
	entry := models.HistoryEntry{
		ID:           c.newID(),
		Item:         c.item,
		AppliedDelta: direction.Sign() * c.delta,
		Direction:    direction,
		Timestamp:    c.clock.Now(),
	}
	c.history.Append(entry)

	var note models.Notification
	if direction == models.DirectionAdd {
		note = c.notification(models.NotifyStockAdded, "Stock Added", fmt.Sprintf("Added %d units to %s", c.delta, c.item.DisplayName))
	} else {
		note = c.notification(models.NotifyStockRemoved, "Stock Removed", fmt.Sprintf("Removed %d units from %s", c.delta, c.item.DisplayName))
	}
	c.closeLocked()
	c.mu.Unlock()

	c.logger.Info("stock adjustment committed",
		zap.String("id", entry.ID),
		zap.String("identifier", entry.Item.Identifier),
		zap.Int("applied_delta", entry.AppliedDelta))
	c.notifier.Notify(ctx, note)
	return entry, true
}

// Cancel discards the pending session without recording anything.
func (c *Controller) Cancel(ctx context.Context) bool {
	c.mu.Lock()
	if c.status != models.SessionPending {
		c.mu.Unlock()
		c.logger.Debug("cancel ignored, no pending session")
		return false
	}

	identifier := c.item.Identifier
	c.closeLocked()
	note := c.notification(models.NotifySessionCancelled, "Scan Cancelled", "Ready for next scan")
	c.mu.Unlock()

	c.logger.Info("scan session cancelled", zap.String("identifier", identifier))
	c.notifier.Notify(ctx, note)
	return true
}

// Snapshot returns a copy of the current session.
func (c *Controller) Snapshot() models.ScanSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close stops any pending countdown. The session itself is left untouched.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++
}

func (c *Controller) expire(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.status != models.SessionPending {
		c.mu.Unlock()
		return
	}

	identifier := c.item.Identifier
	c.timer = nil
	c.closeLocked()
	note := c.notification(models.NotifySessionExpired, "Scanner Reset", "Ready for next scan")
	c.mu.Unlock()

	c.logger.Info("scan session expired", zap.String("identifier", identifier), zap.Duration("timeout", c.timeout))
	c.notifier.Notify(context.Background(), note)
}

// closeLocked returns to Idle and invalidates the running countdown.
func (c *Controller) closeLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++
	c.status = models.SessionIdle
	c.item = models.ItemReference{}
	c.delta = 0
	c.openedAt = time.Time{}
}

func (c *Controller) snapshotLocked() models.ScanSession {
	if c.status == models.SessionIdle {
		return models.ScanSession{Status: models.SessionIdle}
	}
	item := c.item
	return models.ScanSession{
		Status:       c.status,
		Item:         &item,
		PendingDelta: c.delta,
		OpenedAt:     c.openedAt,
		ExpiresAt:    c.openedAt.Add(c.timeout),
	}
}

func (c *Controller) notification(kind models.NotificationKind, title, message string) models.Notification {
	return models.Notification{Kind: kind, Title: title, Message: message, Timestamp: c.clock.Now()}
}
