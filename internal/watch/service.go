// Package watch drives the calendar poll cycle: fetch rows, normalize them,
// decide which notifications are due, and hand them to the notifier with
// at-most-once bookkeeping.
package watch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"fxnewsbot/internal/calendar"
	"fxnewsbot/internal/config"
	"fxnewsbot/internal/dedup"
	kit "fxnewsbot/internal/transport"
	logx "fxnewsbot/pkg/logx"
)

// Fetcher produces raw calendar rows for the current day.
type Fetcher interface {
	Fetch(ctx context.Context) ([]calendar.RawRow, error)
}

// Notifier accepts outbound notifications. A non-nil error means the
// notification was not accepted and its OnDone will never fire.
type Notifier interface {
	Notify(ctx context.Context, n kit.Notification) error
}

// Registrar is the scheduling surface the watcher needs.
type Registrar interface {
	AddInterval(name string, every, timeout time.Duration, job func(ctx context.Context) error) (string, error)
	AddDaily(name, atHHMM string, timeout time.Duration, job func(ctx context.Context) error) (string, error)
	Remove(name string) bool
}

type Session struct {
	At          string // "HH:MM" local
	Name        string
	Description string
}

type Config struct {
	Currency     string
	Timezone     string
	PollInterval time.Duration
	PreAlertLead time.Duration
	Sessions     []Session

	Target kit.ChatTarget
	// ChannelTag is appended to messages when the target is a public
	// channel, mirroring how the channel brands its posts.
	ChannelTag string
}

const pollJobName = "calendar.poll"

type Service struct {
	log     logx.Logger
	fetcher Fetcher
	nf      Notifier
	marks   *dedup.Store

	mu           sync.Mutex
	cfg          Config
	loc          *time.Location
	sessionNames []string
}

func New(cfg Config, fetcher Fetcher, nf Notifier, marks *dedup.Store, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		log:     log,
		fetcher: fetcher,
		nf:      nf,
		marks:   marks,
	}
	s.setConfigLocked(cfg)
	return s
}

func (s *Service) setConfigLocked(cfg Config) {
	if cfg.Currency == "" {
		cfg.Currency = config.DefaultCurrency
	}
	// The page renders event times in this zone, so the pre-alert window
	// math must use it too; host-local time is never correct here.
	if strings.TrimSpace(cfg.Timezone) == "" {
		cfg.Timezone = config.DefaultTimezone
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = config.DefaultPollInterval
	}
	if cfg.PreAlertLead <= 0 {
		cfg.PreAlertLead = config.DefaultPreAlertLead
	}
	s.cfg = cfg
	s.loc = loadLocation(cfg.Timezone, s.log)
}

func loadLocation(tz string, log logx.Logger) *time.Location {
	tz = strings.TrimSpace(tz)
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warn("invalid watch timezone; falling back to UTC", logx.String("tz", tz), logx.Err(err))
		return time.UTC
	}
	return loc
}

// Register installs the poll job and the daily session jobs. Safe to call
// again after Apply; schedules are upserted by name and stale session jobs
// are removed.
func (s *Service) Register(reg Registrar) error {
	s.mu.Lock()
	cfg := s.cfg
	old := s.sessionNames
	s.mu.Unlock()

	if _, err := reg.AddInterval(pollJobName, cfg.PollInterval, cfg.PollInterval, s.RunCycle); err != nil {
		return fmt.Errorf("register poll job: %w", err)
	}

	var names []string
	for _, sess := range cfg.Sessions {
		sess := sess
		name := "session." + sess.At
		if _, err := reg.AddDaily(name, sess.At, 30*time.Second, func(ctx context.Context) error {
			return s.runSession(ctx, sess)
		}); err != nil {
			return fmt.Errorf("register session %q: %w", sess.At, err)
		}
		names = append(names, name)
	}

	// Drop sessions that disappeared from config.
	keep := map[string]bool{}
	for _, n := range names {
		keep[n] = true
	}
	for _, n := range old {
		if !keep[n] {
			reg.Remove(n)
		}
	}

	s.mu.Lock()
	s.sessionNames = names
	s.mu.Unlock()

	s.log.Info("calendar watch registered",
		logx.String("currency", cfg.Currency),
		logx.Duration("poll_interval", cfg.PollInterval),
		logx.Duration("pre_alert_lead", cfg.PreAlertLead),
		logx.Int("sessions", len(cfg.Sessions)),
	)
	return nil
}

// Apply swaps the config and re-registers schedules.
func (s *Service) Apply(cfg Config, reg Registrar) error {
	s.mu.Lock()
	s.setConfigLocked(cfg)
	s.mu.Unlock()
	return s.Register(reg)
}

func (s *Service) snapshot() (Config, *time.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg, s.loc
}
