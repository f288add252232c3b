package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"

	jobmetrics "github.com/fleetgrid/fleetgrid/internal/jobs"
)

type stubScanner struct {
	count int64
	err   error
}

func (s *stubScanner) CountInconsistent(context.Context) (int64, error) {
	return s.count, s.err
}

type stubSweeper struct {
	pruned int64
	err    error
}

func (s *stubSweeper) SweepExpired(context.Context, time.Time) (int64, error) {
	return s.pruned, s.err
}

func TestIntegrityScanHandler(t *testing.T) {
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	handler := NewIntegrityScanHandler(&stubScanner{count: 3}, metrics, nil)

	task, err := NewIntegrityScanTask(time.Now())
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := handler(context.Background(), task); err != nil {
		t.Fatalf("handler: %v", err)
	}
}

func TestIntegrityScanHandlerPropagatesError(t *testing.T) {
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	wantErr := errors.New("db down")
	handler := NewIntegrityScanHandler(&stubScanner{err: wantErr}, metrics, nil)

	task, err := NewIntegrityScanTask(time.Now())
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := handler(context.Background(), task); !errors.Is(err, wantErr) {
		t.Fatalf("expected scan error, got %v", err)
	}
}

func TestIntegrityScanHandlerSkipsBadPayload(t *testing.T) {
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	handler := NewIntegrityScanHandler(&stubScanner{}, metrics, nil)

	task := asynq.NewTask(TaskIntegrityScan, []byte("not-json"))
	if err := handler(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestSessionSweepHandler(t *testing.T) {
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	handler := NewSessionSweepHandler(&stubSweeper{pruned: 12}, metrics, nil)

	task, err := NewSessionSweepTask(time.Now())
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := handler(context.Background(), task); err != nil {
		t.Fatalf("handler: %v", err)
	}
}
