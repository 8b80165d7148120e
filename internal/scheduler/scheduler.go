// Package scheduler fires the daily sweep at a fixed civil time in the
// engine's fixed timezone. Invocation is at-least-once: a tick that fails is
// retried on the next day's schedule, and a sweep can always be invoked
// manually through the API.
package scheduler

import (
	"context"
	"sync"
	"time"

	"inventory-alert-service/internal/engine"
	"inventory-alert-service/internal/logging"
	"inventory-alert-service/internal/models"
)

type Scheduler struct {
	engine *engine.Engine
	logger *logging.Logger
	loc    *time.Location
	hour   int
	minute int
}

func New(eng *engine.Engine, logger *logging.Logger, loc *time.Location, hour, minute int) *Scheduler {
	return &Scheduler{engine: eng, logger: logger, loc: loc, hour: hour, minute: minute}
}

// next returns the next occurrence of the configured wall-clock time.
func (s *Scheduler) next(now time.Time) time.Time {
	local := now.In(s.loc)
	at := time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, 0, 0, s.loc)
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}

// Start runs the daily loop until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			at := s.next(time.Now())
			s.logger.Infof("Next sweep scheduled at %s", at.Format(time.RFC3339))
			timer := time.NewTimer(time.Until(at))
			select {
			case <-ctx.Done():
				timer.Stop()
				s.logger.Infof("Scheduler stopped")
				return
			case now := <-timer.C:
				if _, err := s.engine.HandleSweepTick(ctx, models.SweepTick{AsOf: now}); err != nil {
					s.logger.Errorf("Sweep failed: %v", err)
				}
			}
		}
	}()
}
