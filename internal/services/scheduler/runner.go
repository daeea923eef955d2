package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/hsinyuc/linecast/internal/config"
)

// Runner drives Usecase.Tick on a fixed interval. Ticks never overlap: if one
// outlives the interval, the colliding tick is skipped and counted.
type Runner struct {
	Log *zap.Logger
	UC  *Usecase
	Cfg *config.SchedCfg

	mu sync.Mutex

	mTicks     prometheus.Counter
	mOverlap   prometheus.Counter
	mDelivered prometheus.Counter
	mPartial   prometheus.Counter
	mFailed    prometheus.Counter
	mSkipped   prometheus.Counter
	mErr       prometheus.Counter
	mTickDur   prometheus.Histogram
}

func New(log *zap.Logger, uc *Usecase, cfg *config.SchedCfg) *Runner {
	return &Runner{
		Log: log,
		UC:  uc,
		Cfg: cfg,
		mTicks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_ticks_total", Help: "Scheduler ticks run",
		}),
		mOverlap: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_ticks_skipped_total", Help: "Ticks skipped because the previous one was still running",
		}),
		mDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_messages_delivered_total", Help: "Messages fully delivered",
		}),
		mPartial: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_messages_partial_total", Help: "Messages with at least one failed target",
		}),
		mFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_messages_failed_total", Help: "Messages with zero deliverable targets",
		}),
		mSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_messages_excluded_total", Help: "Messages excluded for malformed schedule data",
		}),
		mErr: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_errors_total", Help: "Errors in the dispatch loop",
		}),
		mTickDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "dispatcher_tick_duration_seconds", Help: "Tick duration",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (r *Runner) tick(ctx context.Context) {
	if !r.mu.TryLock() {
		r.mOverlap.Inc()
		r.Log.Warn("previous tick still running, skipping")
		return
	}
	defer r.mu.Unlock()

	start := time.Now()
	r.mTicks.Inc()

	st, err := r.UC.Tick(ctx)
	if err != nil {
		r.mErr.Inc()
		r.Log.Warn("tick error", zap.Error(err))
	}
	r.mDelivered.Add(float64(st.Delivered))
	r.mPartial.Add(float64(st.Partial))
	r.mFailed.Add(float64(st.Failed))
	r.mSkipped.Add(float64(st.Skipped))

	if st.Due > 0 || st.Skipped > 0 {
		r.Log.Info("tick done",
			zap.Int("evaluated", st.Evaluated),
			zap.Int("due", st.Due),
			zap.Int("delivered", st.Delivered),
			zap.Int("partial", st.Partial),
			zap.Int("failed", st.Failed),
			zap.Int("excluded", st.Skipped),
		)
	}
	r.mTickDur.Observe(time.Since(start).Seconds())
}

func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.Cfg.Tick)
	defer ticker.Stop()

	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}
