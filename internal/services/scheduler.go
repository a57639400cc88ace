package services

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Scheduler triggers the daily full run. Manual runs through the API may
// overlap a scheduled one; that is safe because novelty bookkeeping relies
// on the store's unique constraints, not in-process state.
type Scheduler struct {
	runner *AlertRunner
	cron   *cron.Cron
}

func NewScheduler(runner *AlertRunner, schedule string) (*Scheduler, error) {

	s := &Scheduler{runner: runner, cron: cron.New()}

	_, err := s.cron.AddFunc(schedule, func() {
		log.Info("starting scheduled run")
		summary := s.runner.RunAll(context.Background(), true)
		log.Infof("scheduled run finished: %v alerts, %v errors", summary.AlertsProcessed, len(summary.Errors))
	})
	if err != nil {
		return nil, err
	}

	s.cron.Start()
	log.Infof("scheduler started with schedule %q", schedule)
	return s, nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}
