package services

import (
	"context"
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/store"
	"go.uber.org/zap"
)

// Dashboard hands out started shells per session and keeps service-level
// counters for the health endpoint.
type Dashboard struct {
	registry *Registry
	logger   *zap.Logger

	mu            sync.RWMutex
	startCount    int
	failureCount  int
	lastStartTime time.Time
}

type DashboardConfig struct {
	Shell   ShellOptions
	IdleTTL time.Duration
	MaxSize int
}

func NewDashboard(cfg DashboardConfig, weather WeatherClient, st Store, clock Clock, logger *zap.Logger) *Dashboard {
	factory := func(session store.Session) *Shell {
		return NewShell(session, weather, st, clock, cfg.Shell, logger)
	}
	return &Dashboard{
		registry: NewRegistry(factory, cfg.IdleTTL, cfg.MaxSize, logger),
		logger:   logger,
	}
}

// Shell returns the session's shell, running the startup sequence the first
// time the session is seen. A failed startup still yields the shell, showing
// the error banner, together with the error.
func (d *Dashboard) Shell(ctx context.Context, session store.Session, prefersDark bool) (*Shell, error) {
	shell, created := d.registry.Get(session)
	if !created {
		// Another request may still be running the startup sequence.
		select {
		case <-shell.Started():
		case <-ctx.Done():
			return shell, ctx.Err()
		}
		return shell, nil
	}

	err := shell.Start(ctx, prefersDark)

	d.mu.Lock()
	d.startCount++
	d.lastStartTime = time.Now()
	if err != nil {
		d.failureCount++
	}
	d.mu.Unlock()

	if err != nil {
		d.logger.Warn("Dashboard startup failed",
			zap.String("session_id", session.ID),
			zap.Error(err))
	}
	return shell, err
}

func (d *Dashboard) Registry() *Registry {
	return d.registry
}

func (d *Dashboard) GetLastStartTime() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastStartTime
}

func (d *Dashboard) GetStats() map[string]interface{} {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return map[string]interface{}{
		"last_start_time": d.lastStartTime,
		"start_count":     d.startCount,
		"failure_count":   d.failureCount,
		"registry":        d.registry.GetStats(),
	}
}

func (d *Dashboard) Close() {
	d.registry.CloseAll()
}
