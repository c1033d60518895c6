package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"

	"github.com/i474232898/house-display/internal/timetable"
)

const (
	minInterval     = time.Minute
	defaultInterval = 5 * time.Minute
)

// Searcher runs one train search.
type Searcher interface {
	Search(ctx context.Context, route timetable.RouteConfig) ([]timetable.TrainTime, error)
}

// Scheduler periodically searches the configured route and logs the upcoming trains.
type Scheduler struct {
	scheduler *gocron.Scheduler
	agent     Searcher
	route     timetable.RouteConfig
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler.
func New(route timetable.RouteConfig, interval, timeout time.Duration, agent Searcher) *Scheduler {
	s := gocron.NewScheduler(time.Local)
	return &Scheduler{
		scheduler: s,
		agent:     agent,
		route:     route,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first search runs immediately.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.Interval()).StartImmediately().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Interval returns the period between searches. Values under a minute fall
// back to five minutes.
func (s *Scheduler) Interval() time.Duration {
	if s.interval >= minInterval {
		return s.interval
	}
	log.Warn().
		Dur("requested", s.interval).
		Dur("using", defaultInterval).
		Msg("scheduler: interval below one minute, using default")
	return defaultInterval
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) run() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	records, err := s.agent.Search(ctx, s.route)
	if err != nil {
		log.Error().Err(err).Str("from", s.route.Origin.Name).Msg("scheduler: train search failed")
		return
	}

	log.Info().
		Str("from", s.route.Origin.Name).
		Str("to", s.route.Destination.Name).
		Int("trains", len(records)).
		Msg("scheduler: upcoming trains")
	for _, r := range records {
		log.Info().Str("departure", r.From).Str("arrival", r.To).Msg("scheduler: train")
	}
}
