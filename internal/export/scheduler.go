package export

import (
	"context"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"
)

// Scheduler reruns an exporter on a fixed interval with a little jitter
// so parallel deployments don't hammer the platform in lockstep.
type Scheduler struct {
	exporter *Exporter
	interval time.Duration
	log      *zap.SugaredLogger
}

func NewScheduler(exporter *Exporter, interval time.Duration, log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{exporter: exporter, interval: interval, log: log}
}

// Start runs an export immediately, then on every tick until the context
// is canceled. A failed scheduled run is logged and the next tick still
// fires; only cancellation stops the loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.runOnce(ctx)

	ticker := jitterbug.New(s.interval, &jitterbug.Norm{Stdev: 30 * time.Millisecond, Mean: 0})
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.exporter.Run(ctx); err != nil {
		s.log.Errorw("scheduled export failed", "error", err)
	}
}
