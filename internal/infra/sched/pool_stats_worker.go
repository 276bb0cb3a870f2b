package sched

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"telegram-vpn-subscription/internal/infra/metrics"
)

// PoolStater is the part of *pgxpool.Pool the reporter reads.
type PoolStater interface {
	Stat() *pgxpool.Stat
}

// PoolStats is a snapshot of connection pool gauges.
type PoolStats struct {
	Total, Idle, InUse int32
	Acquires           int64
}

// StatFunc produces a pool snapshot.
type StatFunc func() PoolStats

// PgxStats adapts a pgx pool to StatFunc.
func PgxStats(p PoolStater) StatFunc {
	return func() PoolStats {
		s := p.Stat()
		return PoolStats{
			Total:    s.TotalConns(),
			Idle:     s.IdleConns(),
			InUse:    s.AcquiredConns(),
			Acquires: s.AcquireCount(),
		}
	}
}

// PoolStatsWorker periodically publishes database pool gauges.
type PoolStatsWorker struct {
	interval time.Duration
	stat     StatFunc
	log      *zerolog.Logger
}

func NewPoolStatsWorker(interval time.Duration, stat StatFunc, logger *zerolog.Logger) *PoolStatsWorker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	wl := logger.With().Str("component", "PoolStatsWorker").Logger()
	return &PoolStatsWorker{
		interval: interval,
		stat:     stat,
		log:      &wl,
	}
}

// Run reports once immediately, then on every tick until ctx is done.
func (w *PoolStatsWorker) Run(ctx context.Context) error {
	w.log.Debug().Dur("interval", w.interval).Msg("starting pool stats worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.report()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug().Msg("stopping pool stats worker")
			return ctx.Err()
		case <-ticker.C:
			w.report()
		}
	}
}

func (w *PoolStatsWorker) report() {
	s := w.stat()
	metrics.SetDBPoolStats(s.Total, s.Idle, s.InUse, s.Acquires)
	if s.Total > 0 && s.InUse == s.Total {
		w.log.Warn().Int32("in_use", s.InUse).Msg("database pool saturated")
	}
}
