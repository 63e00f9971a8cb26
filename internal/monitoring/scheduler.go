package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Optimizer refreshes store statistics.
type Optimizer interface {
	Optimize(ctx context.Context) error
}

// Scheduler runs periodic store maintenance and logs a stats snapshot.
type Scheduler struct {
	cron    *cron.Cron
	store   Optimizer
	stats   *Stats
	timeout time.Duration
}

// NewScheduler parses spec (standard cron syntax or descriptors such as
// "@every 1h") and prepares the maintenance job.
func NewScheduler(spec string, store Optimizer, stats *Stats) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		store:   store,
		stats:   stats,
		timeout: time.Minute,
	}
	if _, err := s.cron.AddFunc(spec, s.runMaintenance); err != nil {
		return nil, fmt.Errorf("invalid maintenance schedule %q: %w", spec, err)
	}
	return s, nil
}

// Run starts the scheduler in its own goroutine.
func (s *Scheduler) Run() {
	log.Info().Msg("Starting background scheduler...")
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped background scheduler.")
}

func (s *Scheduler) runMaintenance() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.store.Optimize(ctx); err != nil {
		log.Error().Err(err).Msg("Scheduler: store maintenance failed")
		return
	}

	evt := log.Info().Dur("took", time.Since(start))
	if s.stats != nil {
		snap, err := s.stats.Snapshot(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Scheduler: failed to collect stats")
		}
		evt = evt.Int64("users", snap.UsersTotal).
			Int64("tasks", snap.TasksTotal).
			Int64("tasks_completed", snap.TasksCompleted).
			Uint64("rss_bytes", snap.ProcessRSSBytes)
	}
	evt.Msg("Scheduler: store maintenance completed")
}
