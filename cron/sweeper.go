package cron

import (
	"context"
	"time"

	"beautybook/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const sweepTimeout = time.Minute

// Sweeper is the part of the scheduling engine the completion job drives.
type Sweeper interface {
	SweepCompleted(ctx context.Context) (int, error)
}

// CompletionSweeper moves confirmed bookings that have ended to completed on a schedule.
type CompletionSweeper struct {
	engine Sweeper
	cron   *cron.Cron
}

// NewCompletionSweeper registers the sweep under spec, e.g. "@every 5m".
func NewCompletionSweeper(engine Sweeper, spec string) (*CompletionSweeper, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	s := &CompletionSweeper{engine: engine, cron: c}
	if _, err := c.AddFunc(spec, s.RunOnce); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CompletionSweeper) Start() {
	utils.GetLogger().Info("Starting completion sweeper")
	s.cron.Start()
}

// Stop blocks until a running sweep finishes.
func (s *CompletionSweeper) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce performs a single sweep.
func (s *CompletionSweeper) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	logger := utils.GetLogger()
	n, err := s.engine.SweepCompleted(ctx)
	if err != nil {
		logger.Error("Completion sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info("Completion sweep finished", zap.Int("completed", n))
	}
}
