package services

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"go.uber.org/zap"
)

var (
	// ErrSuperseded is returned to a suggestion request abandoned because a
	// newer input arrived.
	ErrSuperseded = errors.New("suggestion superseded by newer input")

	ErrSuggesterClosed = errors.New("suggester closed")
)

type SearchFunc func(ctx context.Context, query string) ([]models.Place, error)

// Suggester debounces search-box input. Each input restarts the delay and
// cancels the previous pending or in-flight search.
type Suggester struct {
	search SearchFunc
	delay  time.Duration
	minLen int
	logger *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
}

func NewSuggester(search SearchFunc, delay time.Duration, minLen int, logger *zap.Logger) *Suggester {
	return &Suggester{
		search: search,
		delay:  delay,
		minLen: minLen,
		logger: logger,
	}
}

// Suggest blocks for the debounce delay, then searches for query. Queries
// shorter than the minimum length return no suggestions without searching.
func (s *Suggester) Suggest(ctx context.Context, query string) ([]models.Place, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSuggesterClosed
	}
	if utf8.RuneCountInString(query) < s.minLen {
		s.mu.Unlock()
		return []models.Place{}, nil
	}
	taskCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-taskCtx.Done():
		return nil, s.abandoned(ctx)
	case <-timer.C:
	}

	places, err := s.search(taskCtx, query)
	if taskCtx.Err() != nil {
		return nil, s.abandoned(ctx)
	}
	if err != nil {
		s.logger.Error("Search error", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	return places, nil
}

func (s *Suggester) abandoned(parent context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	return ErrSuperseded
}

// Close abandons any pending search and rejects further input.
func (s *Suggester) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.closed = true
}
