// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

type SchedulerConfig struct {
	StandingsInterval       time.Duration
	RoundActivationInterval time.Duration
	ReconcileInterval       time.Duration
}

// StartScheduler registers the periodic maintenance jobs and starts them.
// Callers own the returned scheduler and must shut it down.
func StartScheduler(ctx context.Context, db *gorm.DB, standings *StandingsService, reconcile *ReconcileService, cfg SchedulerConfig) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	jobs := []struct {
		name     string
		interval time.Duration
		run      func()
	}{
		{
			name:     "standings",
			interval: cfg.StandingsInterval,
			run: func() {
				if err := standings.RecomputeStandings(ctx); err != nil {
					log.Printf("[Scheduler] Standings recompute failed: %v", err)
				}
			},
		},
		{
			name:     "round-activation",
			interval: cfg.RoundActivationInterval,
			run: func() {
				changed, err := ActivateRounds(ctx, db, time.Now())
				if err != nil {
					log.Printf("[Scheduler] Round activation failed: %v", err)
					return
				}
				if changed > 0 {
					log.Printf("✅ Updated is_active on %d rounds", changed)
				}
			},
		},
		{
			name:     "reconcile-points",
			interval: cfg.ReconcileInterval,
			run: func() {
				if _, err := reconcile.ReconcilePoints(ctx); err != nil {
					log.Printf("[Scheduler] Points reconciliation failed: %v", err)
				}
			},
		},
	}

	for _, j := range jobs {
		if j.interval <= 0 {
			continue
		}
		if _, err := sched.NewJob(
			gocron.DurationJob(j.interval),
			gocron.NewTask(j.run),
			gocron.WithName(j.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		); err != nil {
			_ = sched.Shutdown()
			return nil, fmt.Errorf("schedule %s job: %w", j.name, err)
		}
	}

	sched.Start()
	return sched, nil
}
