package scheduler

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingRefresher struct {
	calls int
	err   error
}

func (c *countingRefresher) Refresh(context.Context) error {
	c.calls++
	return c.err
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler("every tuesday", &countingRefresher{}, nil)
	if err := s.Start(); err == nil {
		t.Fatal("expected invalid cron expression to fail")
	}
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler("*/15 * * * *", &countingRefresher{}, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if len(s.cron.Entries()) != 1 {
		t.Fatalf("entries = %d, want 1", len(s.cron.Entries()))
	}
	s.Stop()
}

func TestRefreshCatalogLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := &countingRefresher{err: errors.New("sheet not found")}
	s := NewScheduler("@hourly", r, zap.New(core))

	s.refreshCatalog()

	if r.calls != 1 {
		t.Fatalf("refresh calls = %d, want 1", r.calls)
	}
	if logs.FilterMessage("failed to refresh catalog").Len() != 1 {
		t.Fatalf("expected failure log, got %v", logs.All())
	}
}
