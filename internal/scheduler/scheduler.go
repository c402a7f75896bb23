package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/hanzi/internal/logger"
	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// DefaultAuditInterval is used when no interval is configured
const DefaultAuditInterval = 15 * time.Minute

// Auditor repairs cached viewed counts that drifted from user progress
type Auditor interface {
	VerifyViewedCounts(ctx context.Context) (int, error)
}

// Scheduler runs the periodic viewed count audit
type Scheduler struct {
	scheduler *gocron.Scheduler
	auditor   Auditor
	interval  time.Duration
	log       *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
	watching chan struct{}

	mu       sync.Mutex
	runs     int
	repaired int
	lastErr  error
}

// Stats summarizes the audits run so far
type Stats struct {
	Runs     int
	Repaired int
	LastErr  error
}

// New creates a new scheduler instance
func New(auditor Auditor, interval time.Duration, log *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultAuditInterval
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		auditor:   auditor,
		interval:  interval,
		stop:      make(chan struct{}),
		log:       logger.OrNop(log).Named("scheduler"),
	}
}

// Start schedules the audit and runs it in the background. The first audit
// runs immediately. It stops when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.Every(s.interval).Tag("viewed-count-audit").Do(func() {
		if _, err := s.RunNow(ctx); err != nil {
			s.log.Error("viewed count audit failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule audit: %w", err)
	}

	s.scheduler.StartAsync()
	s.log.Info("audit scheduled", zap.Duration("interval", s.interval))

	s.watching = make(chan struct{})
	go func() {
		defer close(s.watching)
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.stop:
		}
	}()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	if s.scheduler.IsRunning() {
		s.scheduler.Stop()
	}
}

// RunNow runs one audit synchronously and returns how many users were
// repaired.
func (s *Scheduler) RunNow(ctx context.Context) (int, error) {
	repaired, err := s.auditor.VerifyViewedCounts(ctx)

	s.mu.Lock()
	s.runs++
	s.repaired += repaired
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		return repaired, err
	}
	if repaired > 0 {
		s.log.Warn("repaired viewed counts", zap.Int("users", repaired))
	} else {
		s.log.Debug("viewed counts consistent")
	}
	return repaired, nil
}

// Stats returns the audit counters
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Runs: s.runs, Repaired: s.repaired, LastErr: s.lastErr}
}
