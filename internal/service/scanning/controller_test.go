package scanning

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/stockscan/internal/catalog"
	"github.com/mamadbah2/stockscan/internal/domain/models"
	"github.com/mamadbah2/stockscan/internal/service/decoder"
	"github.com/mamadbah2/stockscan/internal/service/history"
)

var testEpoch = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

type fakeTimer struct {
	clock   *manualClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

// manualClock only moves when Advance is called; due timers run synchronously.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newManualClock() *manualClock {
	return &manualClock{now: testEpoch}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func (c *manualClock) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type recorder struct {
	mu    sync.Mutex
	notes []models.Notification
}

func (r *recorder) Notify(_ context.Context, n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) count(kind models.NotificationKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, note := range r.notes {
		if note.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}

type fixture struct {
	ctrl    *Controller
	clock   *manualClock
	history *history.Log
	notes   *recorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	cache := catalog.NewCache(catalog.NewStaticSource(nil), nil)
	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh catalog: %v", err)
	}

	log := history.NewLog(0)
	notes := &recorder{}
	clock := newManualClock()
	ctrl := NewController(decoder.NewAdapter(cache, nil), log, notes, DefaultTimeout, zaptest.NewLogger(t))
	ctrl.clock = clock
	seq := 0
	ctrl.newID = func() string {
		seq++
		return fmt.Sprintf("entry-%d", seq)
	}

	return fixture{ctrl: ctrl, clock: clock, history: log, notes: notes}
}

func TestCommitAddScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, ok := f.ctrl.OnDecode(ctx, "WDG-001")
	if !ok {
		t.Fatal("decode while idle should open a session")
	}
	if session.Status != models.SessionPending || session.Item.DisplayName != "Widget A" || session.Item.KnownQuantity != 150 {
		t.Fatalf("session = %+v", session)
	}
	if session.PendingDelta != 1 {
		t.Fatalf("initial delta = %d, want 1", session.PendingDelta)
	}
	if !session.ExpiresAt.Equal(testEpoch.Add(DefaultTimeout)) {
		t.Fatalf("expires at %v", session.ExpiresAt)
	}

	if !f.ctrl.SetDelta(ctx, 25) {
		t.Fatal("SetDelta should apply while pending")
	}

	entry, ok := f.ctrl.Commit(ctx, models.DirectionAdd)
	if !ok {
		t.Fatal("commit while pending should succeed")
	}

	head, _ := f.history.Latest()
	if head != entry {
		t.Fatalf("history head = %+v, want %+v", head, entry)
	}
	if head.Item.DisplayName != "Widget A" || head.AppliedDelta != 25 || head.Direction != models.DirectionAdd {
		t.Fatalf("history head = %+v", head)
	}
	if head.ID != "entry-1" || !head.Timestamp.Equal(testEpoch) {
		t.Fatalf("history head metadata = %+v", head)
	}
	if got := f.ctrl.Snapshot(); got.Status != models.SessionIdle || got.Item != nil {
		t.Fatalf("snapshot after commit = %+v", got)
	}
	if f.notes.count(models.NotifyScanAcknowledged) != 1 || f.notes.count(models.NotifyStockAdded) != 1 {
		t.Fatalf("notifications = %+v", f.notes.notes)
	}
	if f.clock.active() != 0 {
		t.Fatal("commit must stop the countdown")
	}
}

func TestCommitRemoveUnknownItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, _ := f.ctrl.OnDecode(ctx, "ZZZ-999")
	if session.Item.DisplayName != models.UnknownItemName || session.Item.KnownQuantity != 0 || session.Item.Identifier != "ZZZ-999" {
		t.Fatalf("session item = %+v", session.Item)
	}

	entry, ok := f.ctrl.Commit(ctx, models.DirectionRemove)
	if !ok {
		t.Fatal("commit against unknown item should be permitted")
	}
	if entry.AppliedDelta != -1 || entry.Direction != models.DirectionRemove {
		t.Fatalf("entry = %+v", entry)
	}
	if f.notes.count(models.NotifyStockRemoved) != 1 {
		t.Fatalf("expected one stock removed notification, got %+v", f.notes.notes)
	}
}

func TestTimeoutExpiresSessionOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.ctrl.OnDecode(ctx, "TOL-003")
	f.clock.Advance(DefaultTimeout - time.Millisecond)
	if f.ctrl.Snapshot().Status != models.SessionPending {
		t.Fatal("session expired early")
	}

	f.clock.Advance(time.Millisecond)
	if f.ctrl.Snapshot().Status != models.SessionIdle {
		t.Fatal("session should be idle after the timeout")
	}
	f.clock.Advance(time.Hour)

	if f.history.Len() != 0 {
		t.Fatalf("history length = %d, want 0", f.history.Len())
	}
	if got := f.notes.count(models.NotifySessionExpired); got != 1 {
		t.Fatalf("expired notifications = %d, want 1", got)
	}
	if f.notes.count(models.NotifySessionCancelled) != 0 {
		t.Fatal("expiry must be distinguishable from cancel")
	}
}

func TestDecodeWhilePendingIsIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.ctrl.OnDecode(ctx, "WDG-001")
	f.ctrl.SetDelta(ctx, 7)
	before := f.ctrl.Snapshot()
	notesBefore := f.notes.total()

	for _, payload := range []string{"GDG-002", "WDG-001", "ZZZ-999", ""} {
		if _, ok := f.ctrl.OnDecode(ctx, payload); ok {
			t.Fatalf("decode %q while pending should be ignored", payload)
		}
	}

	after := f.ctrl.Snapshot()
	if *after.Item != *before.Item || after.PendingDelta != 7 {
		t.Fatalf("session changed: before %+v, after %+v", before, after)
	}
	if f.notes.total() != notesBefore {
		t.Fatal("ignored decodes must not notify")
	}
	if f.clock.active() != 1 {
		t.Fatalf("active timers = %d, want 1", f.clock.active())
	}
}

func TestSetDeltaClampsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		apply func(ctx context.Context, c *Controller) bool
		want  int
		warns int
	}{
		{name: "zero", apply: func(ctx context.Context, c *Controller) bool { return c.SetDelta(ctx, 0) }, want: 1, warns: 1},
		{name: "negative", apply: func(ctx context.Context, c *Controller) bool { return c.SetDelta(ctx, -12) }, want: 1, warns: 1},
		{name: "positive", apply: func(ctx context.Context, c *Controller) bool { return c.SetDelta(ctx, 40) }, want: 40},
		{name: "numeric text", apply: func(ctx context.Context, c *Controller) bool { return c.SetDeltaInput(ctx, " 12 ") }, want: 12},
		{name: "non-numeric text", apply: func(ctx context.Context, c *Controller) bool { return c.SetDeltaInput(ctx, "a dozen") }, want: 1, warns: 1},
		{name: "empty text", apply: func(ctx context.Context, c *Controller) bool { return c.SetDeltaInput(ctx, "") }, want: 1, warns: 1},
		{name: "fraction text", apply: func(ctx context.Context, c *Controller) bool { return c.SetDeltaInput(ctx, "2.5") }, want: 1, warns: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.ctrl.OnDecode(ctx, "GDG-002")
			f.ctrl.SetDelta(ctx, 5)

			if !tt.apply(ctx, f.ctrl) {
				t.Fatal("delta update while pending should apply")
			}
			if got := f.ctrl.Snapshot().PendingDelta; got != tt.want {
				t.Fatalf("pending delta = %d, want %d", got, tt.want)
			}
			if got := f.notes.count(models.NotifyInvalidInput); got != tt.warns {
				t.Fatalf("invalid input notifications = %d, want %d", got, tt.warns)
			}
		})
	}
}

func TestCallsWhileIdleAreNoOps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if f.ctrl.SetDelta(ctx, 3) || f.ctrl.SetDeltaInput(ctx, "x") {
		t.Fatal("SetDelta while idle should be ignored")
	}
	if _, ok := f.ctrl.Commit(ctx, models.DirectionAdd); ok {
		t.Fatal("Commit while idle should be ignored")
	}
	if f.ctrl.Cancel(ctx) {
		t.Fatal("Cancel while idle should be ignored")
	}
	if f.history.Len() != 0 || f.notes.total() != 0 {
		t.Fatal("no-ops must not record or notify")
	}
}

func TestBlankDecodeIsIgnored(t *testing.T) {
	f := newFixture(t)

	for _, payload := range []string{"", "   ", "\t\n"} {
		if session, ok := f.ctrl.OnDecode(context.Background(), payload); ok || session.Status != models.SessionIdle {
			t.Fatalf("OnDecode(%q) = %+v, %v; want idle no-op", payload, session, ok)
		}
	}
	if f.notes.total() != 0 || len(f.clock.timers) != 0 {
		t.Fatal("blank decode must not notify or start a countdown")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.ctrl.OnDecode(ctx, "PRT-004")
	if !f.ctrl.Cancel(ctx) {
		t.Fatal("first cancel should apply")
	}
	if f.ctrl.Cancel(ctx) {
		t.Fatal("second cancel should be a no-op")
	}

	if f.ctrl.Snapshot().Status != models.SessionIdle {
		t.Fatal("controller should be idle")
	}
	if f.history.Len() != 0 {
		t.Fatal("cancel must not record history")
	}
	if got := f.notes.count(models.NotifySessionCancelled); got != 1 {
		t.Fatalf("cancel notifications = %d, want 1", got)
	}
}

func TestStaleTimerDoesNotExpireNextSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.ctrl.OnDecode(ctx, "WDG-001")
	first := f.clock.timers[0]
	f.clock.Advance(3 * time.Second)
	f.ctrl.Cancel(ctx)

	f.ctrl.OnDecode(ctx, "GDG-002")

	// Simulate the old timer firing anyway, as time.AfterFunc may after Stop races.
	first.f()
	if got := f.ctrl.Snapshot(); got.Status != models.SessionPending || got.Item.Identifier != "GDG-002" {
		t.Fatalf("stale timer affected the new session: %+v", got)
	}

	f.clock.Advance(3 * time.Second)
	if f.ctrl.Snapshot().Status != models.SessionPending {
		t.Fatal("new session has its own full countdown")
	}
	f.clock.Advance(2 * time.Second)
	if f.ctrl.Snapshot().Status != models.SessionIdle {
		t.Fatal("new session should expire after its own countdown")
	}
	if got := f.notes.count(models.NotifySessionExpired); got != 1 {
		t.Fatalf("expired notifications = %d, want 1", got)
	}
}

func TestCommitRejectsUnknownDirection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.ctrl.OnDecode(ctx, "WDG-001")
	if _, ok := f.ctrl.Commit(ctx, models.Direction("sideways")); ok {
		t.Fatal("unknown direction should be ignored")
	}
	if f.ctrl.Snapshot().Status != models.SessionPending {
		t.Fatal("session should stay pending")
	}
}

func TestHistoryAccumulatesNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.ctrl.OnDecode(ctx, "WDG-001")
	f.ctrl.Commit(ctx, models.DirectionAdd)
	f.ctrl.OnDecode(ctx, "GDG-002")
	f.ctrl.SetDelta(ctx, 4)
	f.ctrl.Commit(ctx, models.DirectionRemove)

	entries := f.history.Entries()
	if len(entries) != 2 {
		t.Fatalf("history length = %d, want 2", len(entries))
	}
	if entries[0].Item.Identifier != "GDG-002" || entries[0].AppliedDelta != -4 {
		t.Fatalf("head = %+v", entries[0])
	}
	if entries[1].Item.Identifier != "WDG-001" || entries[1].AppliedDelta != 1 {
		t.Fatalf("tail = %+v", entries[1])
	}
}

func TestNewControllerDefaults(t *testing.T) {
	ctrl := NewController(decoder.NewAdapter(nil, nil), history.NewLog(0), nil, 0, nil)
	if ctrl.Timeout() != DefaultTimeout {
		t.Fatalf("timeout = %v, want %v", ctrl.Timeout(), DefaultTimeout)
	}

	session, ok := ctrl.OnDecode(context.Background(), "ABC")
	defer ctrl.Close()
	if !ok || !session.Item.IsUnknown() {
		t.Fatalf("session = %+v", session)
	}
}

func TestRealClockExpiry(t *testing.T) {
	notes := &recorder{}
	ctrl := NewController(decoder.NewAdapter(nil, nil), history.NewLog(0), notes, 20*time.Millisecond, zaptest.NewLogger(t))

	ctrl.OnDecode(context.Background(), "TOL-003")

	deadline := time.Now().Add(2 * time.Second)
	for notes.count(models.NotifySessionExpired) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("session never expired")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if ctrl.Snapshot().Status != models.SessionIdle {
		t.Fatal("controller should be idle after expiry")
	}
}
