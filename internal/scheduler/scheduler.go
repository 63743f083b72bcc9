// Package scheduler runs the bot's periodic maintenance: an hourly sweep of
// stale sessions and a daily submission report.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"voicebank/internal/store"
)

type Scheduler struct {
	cron       *cron.Cron
	store      *store.Store
	sessionTTL time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
}

func New(st *store.Store, sessionTTL time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		store:      st,
		sessionTTL: sessionTTL,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 * * * *", s.sweepSessions); err != nil {
		return err
	}
	// Daily at 21:00 UTC
	if _, err := s.cron.AddFunc("0 21 * * *", s.dailyReport); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("scheduler started: hourly session sweep (ttl=%s), daily report at 21:00 UTC", s.sessionTTL)
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Println("scheduler stopped")
}

func (s *Scheduler) sweepSessions() {
	cutoff := time.Now().Add(-s.sessionTTL)
	n, err := s.store.DeleteSessionsOlderThan(s.ctx, cutoff)
	if err != nil {
		log.Printf("session sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("session sweep: removed %d session(s) older than %s", n, s.sessionTTL)
	}
}

func (s *Scheduler) dailyReport() {
	accepted, rejected, err := s.store.SubmissionStats(s.ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		log.Printf("daily report failed: %v", err)
		return
	}
	log.Printf("daily report: %d accepted, %d rejected submission(s) in the last 24h", accepted, rejected)
}
