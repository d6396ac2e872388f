// Package jobs holds the scheduled background work.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stagebill/stagebill-server/internal/repository"
)

// PastDueSweeper periodically flips sent invoices whose due date has
// passed to past_due. The sweep is a single idempotent statement, so
// overlapping or redundant runs are harmless.
type PastDueSweeper struct {
	repo repository.Repository
	log  zerolog.Logger
	cron *cron.Cron
}

// NewPastDueSweeper creates the sweeper.
func NewPastDueSweeper(repo repository.Repository, log zerolog.Logger) *PastDueSweeper {
	return &PastDueSweeper{
		repo: repo,
		log:  log,
		cron: cron.New(),
	}
}

// Start schedules the sweep. Runs hourly and once immediately so a
// restart never delays overdue marking by a full interval.
func (s *PastDueSweeper) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.Run); err != nil {
		return err
	}
	s.cron.Start()
	go s.Run()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *PastDueSweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Run executes one sweep.
func (s *PastDueSweeper) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.repo.MarkInvoicesPastDue(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error().Err(err).Msg("past-due sweep failed")
		return
	}
	if n > 0 {
		s.log.Info().Int64("invoices", n).Msg("invoices marked past due")
	}
}
