package services

import (
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/store"
	"go.uber.org/zap"
)

type registryItem struct {
	shell    *Shell
	lastSeen time.Time
}

// ShellFactory builds the shell for a session seen for the first time.
type ShellFactory func(session store.Session) *Shell

// Registry keeps one Shell per active session and drops idle ones.
type Registry struct {
	mu      sync.Mutex
	shells  map[string]*registryItem
	factory ShellFactory
	logger  *zap.Logger
	idleTTL time.Duration
	maxSize int
	now     func() time.Time
}

func NewRegistry(factory ShellFactory, idleTTL time.Duration, maxSize int, logger *zap.Logger) *Registry {
	return &Registry{
		shells:  make(map[string]*registryItem),
		factory: factory,
		logger:  logger,
		idleTTL: idleTTL,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get returns the session's shell. created reports whether it was built by
// this call, in which case the caller is expected to Start it.
func (r *Registry) Get(session store.Session) (shell *Shell, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item, ok := r.shells[session.ID]; ok {
		item.lastSeen = r.now()
		return item.shell, false
	}

	if r.maxSize > 0 && len(r.shells) >= r.maxSize {
		r.evictOldestLocked()
	}

	shell = r.factory(session)
	r.shells[session.ID] = &registryItem{shell: shell, lastSeen: r.now()}

	r.logger.Debug("Shell created", zap.String("session_id", session.ID))
	return shell, true
}

func (r *Registry) evictOldestLocked() {
	var oldestKey string
	var oldestTime time.Time

	for key, item := range r.shells {
		if oldestKey == "" || item.lastSeen.Before(oldestTime) {
			oldestKey = key
			oldestTime = item.lastSeen
		}
	}

	if oldestKey != "" {
		go r.shells[oldestKey].shell.Close()
		delete(r.shells, oldestKey)
		r.logger.Debug("Evicted oldest shell", zap.String("session_id", oldestKey))
	}
}

// Sweep closes shells idle for longer than the idle TTL and returns how
// many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	cutoff := r.now().Add(-r.idleTTL)
	var idle []*Shell
	for key, item := range r.shells {
		if item.lastSeen.Before(cutoff) {
			idle = append(idle, item.shell)
			delete(r.shells, key)
		}
	}
	r.mu.Unlock()

	for _, shell := range idle {
		shell.Close()
	}

	if len(idle) > 0 {
		r.logger.Debug("Swept idle shells", zap.Int("count", len(idle)))
	}
	return len(idle)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shells)
}

func (r *Registry) GetStats() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	return map[string]interface{}{
		"active_shells": len(r.shells),
		"max_size":      r.maxSize,
		"idle_ttl":      r.idleTTL.String(),
	}
}

// CloseAll closes every shell, used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	shells := r.shells
	r.shells = make(map[string]*registryItem)
	r.mu.Unlock()

	for _, item := range shells {
		item.shell.Close()
	}
}
