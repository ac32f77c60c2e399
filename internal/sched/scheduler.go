// Package sched fires autonomous_cron intents through the dispatcher on
// their registered schedules.
package sched

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/whyhi/wos/internal/brain"
	"github.com/whyhi/wos/internal/logger"
	"github.com/whyhi/wos/internal/registry"
)

// cronParser is configured for standard 5-field cron expressions
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

const pollInterval = 30 * time.Second

// Scheduler polls the intent catalog for cron-mode intents and
// dispatches each when its schedule comes due. The catalog is re-read
// every cycle so newly registered intents get picked up without a
// restart.
type Scheduler struct {
	brain   *brain.Brain
	intents *registry.Store

	nextRun map[string]time.Time
}

func New(b *brain.Brain, intents *registry.Store) *Scheduler {
	return &Scheduler{
		brain:   b,
		intents: intents,
		nextRun: make(map[string]time.Time),
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	logger.Info("scheduler started", "poll_interval", pollInterval)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	intents, err := s.intents.ListIntentsByMode(ctx, registry.ModeAutonomousCron)
	if err != nil {
		logger.Error("scheduler intent list failed", "error", err)
		return
	}

	now := time.Now()
	seen := make(map[string]bool, len(intents))

	for _, intent := range intents {
		seen[intent.IntentID] = true

		if intent.Schedule == "" {
			continue
		}

		sched, err := cronParser.Parse(intent.Schedule)
		if err != nil {
			logger.Warn("invalid intent schedule", "intent_id", intent.IntentID, "schedule", intent.Schedule, "error", err)
			continue
		}

		next, ok := s.nextRun[intent.IntentID]
		if !ok {
			// First sighting: arm for the next occurrence, don't
			// fire retroactively.
			s.nextRun[intent.IntentID] = sched.Next(now)
			continue
		}

		if now.Before(next) {
			continue
		}

		s.nextRun[intent.IntentID] = sched.Next(now)
		s.fire(ctx, intent)
	}

	// Drop state for intents removed from the catalog.
	for id := range s.nextRun {
		if !seen[id] {
			delete(s.nextRun, id)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, intent *registry.Intent) {
	logger.Info("scheduled intent firing", "intent_id", intent.IntentID, "name", intent.Name)

	resp := s.brain.ProcessRequest(ctx, brain.Request{
		Intent: intent.Name,
		Input:  map[string]any{"triggered_by": "scheduler"},
	})

	if resp.OK {
		logger.Info("scheduled intent completed", "intent_id", intent.IntentID, "execution_id", resp.ExecutionID)
	} else {
		logger.Error("scheduled intent failed", "intent_id", intent.IntentID, "status", resp.Status)
	}
}
