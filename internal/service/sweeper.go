package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically removes expired invites. The invite store never
// sweeps on its own; this worker is how the service schedules it.
type Sweeper struct {
	invites  InviteService
	logger   *zap.Logger
	interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewSweeper creates a sweeper. If interval is 0 or negative, defaults to 1 hour.
func NewSweeper(invites InviteService, logger *zap.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		invites:  invites,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background loop. Call Stop to shut it down.
func (s *Sweeper) Start() {
	go s.run()
	s.logger.Info("invite sweeper started", zap.Duration("interval", s.interval))
}

// Stop blocks until the loop has exited.
func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.logger.Info("invite sweeper stopped")
}

func (s *Sweeper) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := s.invites.Sweep(context.Background()); removed > 0 {
				s.logger.Info("expired invites removed", zap.Int("removed", removed))
			}
		case <-s.stopCh:
			return
		}
	}
}
