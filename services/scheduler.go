// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
)

// ParseSweepTime reads an "HH:MM" UTC wall time.
func ParseSweepTime(s string) (hour, minute uint, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid sweep time %q: %w", s, err)
	}
	return uint(t.Hour()), uint(t.Minute()), nil
}

// StartStreakSweep schedules the daily reset of stale streaks. bumpStreak only
// runs on activity, so decay for idle users happens here.
func (s *StreakTracker) StartStreakSweep(clock clockwork.Clock, at string) (gocron.Scheduler, error) {
	hour, minute, err := ParseSweepTime(at)
	if err != nil {
		return nil, err
	}

	sched, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithClock(clock),
	)
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(hour, minute, 0))),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if _, err := s.ResetStale(ctx, clock.Now()); err != nil {
				log.Printf("[Scheduler] streak sweep failed: %v", err)
			}
		}),
		gocron.WithName("streak-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	log.Printf("✅ Streak sweep scheduled daily at %02d:%02d UTC", hour, minute)
	return sched, nil
}
