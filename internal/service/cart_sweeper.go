package service

import (
	"context"
	"sync"
	"time"

	"modamarket/internal/repository"

	"github.com/rs/zerolog"
)

// CartSweeper periodically deletes expired carts.
type CartSweeper struct {
	repo     repository.CartRepository
	interval time.Duration
	logger   zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCartSweeper creates a sweeper running every interval.
func NewCartSweeper(repo repository.CartRepository, interval time.Duration, logger zerolog.Logger) *CartSweeper {
	return &CartSweeper{
		repo:     repo,
		interval: interval,
		logger:   logger.With().Str("component", "cart_sweeper").Logger(),
	}
}

// Start launches the sweep loop. Calling Start on a running sweeper is a no-op.
func (s *CartSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)

	s.logger.Info().Dur("interval", s.interval).Msg("cart sweeper started")
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (s *CartSweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info().Msg("cart sweeper stopped")
}

// Sweep deletes carts that expired before now.
func (s *CartSweeper) Sweep(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to delete expired carts")
		return 0, err
	}
	if n > 0 {
		s.logger.Info().Int64("deleted", n).Msg("expired carts deleted")
	}
	return n, nil
}

func (s *CartSweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			_, _ = s.Sweep(ctx, now)
		}
	}
}
