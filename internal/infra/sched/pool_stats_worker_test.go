//go:build !integration

package sched

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"telegram-vpn-subscription/internal/infra/logging"
)

func TestPoolStatsWorker_ReportsUntilCancelled(t *testing.T) {
	var calls atomic.Int32
	stat := func() PoolStats {
		calls.Add(1)
		return PoolStats{Total: 4, Idle: 3, InUse: 1, Acquires: 10}
	}
	w := NewPoolStatsWorker(5*time.Millisecond, stat, logging.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	err := w.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if calls.Load() < 2 {
		t.Fatalf("expected an immediate report plus ticks, got %d", calls.Load())
	}
}

func TestPoolStatsWorker_DefaultInterval(t *testing.T) {
	w := NewPoolStatsWorker(0, func() PoolStats { return PoolStats{} }, logging.Nop())
	if w.interval != 15*time.Second {
		t.Fatalf("expected default interval, got %v", w.interval)
	}
}
