// Package scheduler runs meetings on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"
)

// Runner forces a meeting. *boardroom.Service satisfies it.
type Runner interface {
	RunMeeting(ctx context.Context, t models.MeetingType) (*models.MeetingReport, error)
}

// Entry schedules one meeting type with a standard five-field cron spec
// or a descriptor such as "@daily" or "@every 1h".
type Entry struct {
	Type models.MeetingType `yaml:"type"`
	Spec string             `yaml:"spec"`
}

// ParseSchedules parses "daily=0 9 * * *;weekly=0 9 * * 1".
func ParseSchedules(s string) ([]Entry, error) {
	var entries []Entry
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, spec, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("schedule %q: expected type=spec", part)
		}
		entries = append(entries, Entry{
			Type: models.MeetingType(strings.TrimSpace(name)),
			Spec: strings.TrimSpace(spec),
		})
	}
	return entries, Validate(entries)
}

// Validate checks every entry names a known meeting type and a valid spec.
func Validate(entries []Entry) error {
	seen := make(map[models.MeetingType]bool)
	for _, e := range entries {
		if _, ok := models.ParseMeetingType(string(e.Type)); !ok {
			return fmt.Errorf("schedule: unknown meeting type %q", e.Type)
		}
		if seen[e.Type] {
			return fmt.Errorf("schedule: %s scheduled twice", e.Type)
		}
		seen[e.Type] = true
		if _, err := cron.ParseStandard(e.Spec); err != nil {
			return fmt.Errorf("schedule %s: %w", e.Type, err)
		}
	}
	return nil
}

// Scheduler triggers RunMeeting for each configured entry.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	timeout time.Duration
	logger  zerolog.Logger
}

// New builds a scheduler. A run still in progress when its next tick fires
// is not started twice.
func New(runner Runner, entries []Entry, timeout time.Duration, logger zerolog.Logger) (*Scheduler, error) {
	if err := Validate(entries); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	logger = logger.With().Str("component", "scheduler").Logger()
	cronLogger := cron.PrintfLogger(&logger)
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		runner:  runner,
		timeout: timeout,
		logger:  logger,
	}

	for _, e := range entries {
		t := e.Type
		if _, err := s.cron.AddFunc(e.Spec, func() { s.run(t) }); err != nil {
			return nil, fmt.Errorf("schedule %s: %w", t, err)
		}
		s.logger.Info().Str("type", string(t)).Str("spec", e.Spec).Msg("Meeting scheduled")
	}
	return s, nil
}

func (s *Scheduler) run(t models.MeetingType) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	report, err := s.runner.RunMeeting(ctx, t)
	if err != nil {
		s.logger.Error().Err(err).Str("type", string(t)).Msg("Scheduled meeting failed")
		return
	}
	s.logger.Info().Str("type", string(t)).Str("report_id", report.ID).Dur("took", time.Since(start)).Msg("Scheduled meeting completed")
}

// Start begins running schedules in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running meetings up to ctx's deadline.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn().Msg("Scheduler stop timed out with meetings in flight")
	}
}

// Len returns the number of scheduled entries.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}
