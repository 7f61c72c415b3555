package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/xuxiaoleilancy/ai-codehub/internal/config"
	"github.com/xuxiaoleilancy/ai-codehub/internal/session"
)

// Scheduler runs the periodic session check for every stored browser
// session, so tokens are refreshed even while no page is being loaded.
type Scheduler struct {
	cron     *cron.Cron
	sessions *session.Factory
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger
}

func NewScheduler(sessions *session.Factory, cfg config.SessionConfig, log zerolog.Logger) *Scheduler {
	log = log.With().Str("component", "scheduler").Logger()
	cronLog := cronLogger{log: log}
	c := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(
			cron.Recover(cronLog),
			cron.SkipIfStillRunning(cronLog),
		),
	)
	return &Scheduler{
		cron:     c,
		sessions: sessions,
		interval: cfg.CheckInterval,
		timeout:  cfg.CheckTimeout,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if s.sessions == nil {
		return nil
	}

	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, func() {
		s.SweepSessions(context.Background())
	}); err != nil {
		return fmt.Errorf("schedule session sweep: %w", err)
	}

	s.cron.Start()
	s.log.Info().Dur("interval", s.interval).Msg("session sweeper started")
	return nil
}

// Stop prevents new runs and waits for a running sweep until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn().Msg("session sweep still running at shutdown")
	}
}

// SweepReport counts what one sweep did.
type SweepReport struct {
	Checked   int
	Refreshed int
	Cleared   int
	Skipped   int
}

// SweepSessions checks every stored client in turn. Clients without a
// token are skipped; everything else gets the same check a page load runs.
func (s *Scheduler) SweepSessions(ctx context.Context) SweepReport {
	var report SweepReport

	clients, err := s.sessions.Clients(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("list clients failed")
		return report
	}

	for _, clientID := range clients {
		if ctx.Err() != nil {
			break
		}
		s.checkClient(ctx, clientID, &report)
	}

	if report.Refreshed > 0 || report.Cleared > 0 {
		s.log.Info().
			Int("checked", report.Checked).
			Int("refreshed", report.Refreshed).
			Int("cleared", report.Cleared).
			Int("skipped", report.Skipped).
			Msg("session sweep finished")
	}
	return report
}

func (s *Scheduler) checkClient(ctx context.Context, clientID string, report *SweepReport) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	m := s.sessions.For(clientID)
	if m.State(ctx) == session.Anonymous {
		report.Skipped++
		return
	}

	report.Checked++
	result := m.PeriodicCheck(ctx, "")
	if result.Refreshed {
		report.Refreshed++
	}
	if result.Cleared {
		report.Cleared++
	}
}

// cronLogger routes cron's own messages into zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
