package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Ticker advances the dashboard clock.
type Ticker interface {
	Tick()
}

// Sweeper drops idle session state and reports how much was removed.
type Sweeper interface {
	Sweep() int
}

// Scheduler runs the background jobs of the dashboard: the once-a-second
// clock tick and the periodic sweep of idle sessions.
type Scheduler struct {
	cron          *cron.Cron
	clock         Ticker
	sweeper       Sweeper
	logger        *zap.Logger
	tickSpec      string
	sweepInterval time.Duration

	mu         sync.Mutex
	running    bool
	sweepEntry cron.EntryID
	lastSweep  time.Time
	sweptTotal int
}

func NewScheduler(clock Ticker, sweeper Sweeper, sweepInterval time.Duration, logger *zap.Logger) *Scheduler {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	return &Scheduler{
		cron:          cron.New(),
		clock:         clock,
		sweeper:       sweeper,
		logger:        logger,
		tickSpec:      "@every 1s",
		sweepInterval: sweepInterval,
	}
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if _, err := s.cron.AddFunc(s.tickSpec, s.clock.Tick); err != nil {
		return fmt.Errorf("schedule clock tick: %w", err)
	}
	id, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.sweepInterval), s.runSweep)
	if err != nil {
		return fmt.Errorf("schedule session sweep: %w", err)
	}
	s.sweepEntry = id

	s.cron.Start()
	s.running = true

	s.logger.Info("Scheduler started",
		zap.String("tick", s.tickSpec),
		zap.Duration("sweep_interval", s.sweepInterval))
	return nil
}

func (s *Scheduler) runSweep() {
	removed := s.sweeper.Sweep()

	s.mu.Lock()
	s.lastSweep = time.Now()
	s.sweptTotal += removed
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Info("Idle sessions swept", zap.Int("removed", removed))
	}
}

// ForceSweep runs the sweep job right away.
func (s *Scheduler) ForceSweep() {
	s.logger.Info("Manually triggering session sweep")
	s.runSweep()
}

// Stop halts the schedule and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":        s.running,
		"tick":           s.tickSpec,
		"sweep_interval": s.sweepInterval.String(),
		"last_sweep":     s.lastSweep,
		"swept_total":    s.sweptTotal,
	}
	if s.running {
		status["next_sweep"] = s.cron.Entry(s.sweepEntry).Next
	}
	return status
}
