package account

import (
	"context"
	"time"

	"fxgate/internal/adapters"
	"fxgate/internal/metrics"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultCleanupInterval = time.Hour

type Scheduler struct {
	sessions adapters.SessionRepository
	metrics  *metrics.ExchangeMetrics
	// -----
	sched           gocron.Scheduler
	cleanupInterval time.Duration
}

func (s *Scheduler) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	s.sched = scheduler

	job := func(jobCtx context.Context) {
		execID := uuid.NewString()
		if purgeErr := PurgeExpiredSessions(jobCtx, execID, s.sessions, s.metrics, time.Now()); purgeErr != nil {
			logrus.Errorf("Purge expired sessions job %s failed: %v", execID, purgeErr)
		}
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.cleanupInterval),
		gocron.NewTask(job),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	scheduler.Start()

	// Stop scheduler when the provided context is canceled.
	go func() {
		<-ctx.Done()
		if sdErr := s.Shutdown(); sdErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", sdErr)
		}
	}()
	return nil
}

func (s *Scheduler) Shutdown() error {
	if s.sched == nil {
		return nil
	}
	err := s.sched.Shutdown()
	s.sched = nil
	return err
}

func NewScheduler(sessions adapters.SessionRepository, m *metrics.ExchangeMetrics, cleanupInterval time.Duration) *Scheduler {
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}
	return &Scheduler{sessions: sessions, metrics: m, cleanupInterval: cleanupInterval}
}
