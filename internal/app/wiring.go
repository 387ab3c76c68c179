package app

import (
	"strconv"
	"strings"

	"fxnewsbot/internal/calendar/forexfactory"
	"fxnewsbot/internal/config"
	"fxnewsbot/internal/notifier"
	"fxnewsbot/internal/scheduler"
	"fxnewsbot/internal/storage"
	kit "fxnewsbot/internal/transport"
	"fxnewsbot/internal/watch"
	logx "fxnewsbot/pkg/logx"
)

// chatTarget interprets the configured destination: "@name" style public
// channels keep their username, anything numeric is a chat ID.
func chatTarget(raw string) kit.ChatTarget {
	s := strings.TrimSpace(raw)
	if id, err := strconv.ParseInt(s, 10, 64); err == nil && id != 0 {
		return kit.ChatTarget{ChatID: id}
	}
	return kit.ChatTarget{Channel: s}
}

// channelTag derives the "@name" footer appended to channel posts.
// Numeric chat IDs get no footer.
func channelTag(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "@") {
		return s
	}
	return ""
}

func openStorage(cfg *config.Config, log logx.Logger) (storage.Store, error) {
	if cfg.Storage == nil {
		return nil, nil
	}
	busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return nil, err
	}
	return storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, log.With(logx.String("comp", "storage")))
}

// mapScheduler translates the optional config section. A missing section
// means "enabled with defaults": the scheduler drives every alert the bot
// exists to send.
func mapScheduler(cfg *config.Config) (scheduler.Config, error) {
	sc := cfg.Scheduler
	if sc == nil {
		sc = &config.SchedulerConfig{Enabled: true}
	}
	timeout, err := config.ParseDurationField("scheduler.default_timeout", sc.DefaultTimeout)
	if err != nil {
		return scheduler.Config{}, err
	}
	tz := strings.TrimSpace(sc.Timezone)
	if tz == "" {
		tz = strings.TrimSpace(cfg.Calendar.Timezone)
	}
	if tz == "" {
		tz = config.DefaultTimezone
	}
	return scheduler.Config{
		Enabled:        sc.Enabled,
		Workers:        sc.Workers,
		DefaultTimeout: timeout,
		Timezone:       tz,
	}, nil
}

// mapNotifier translates the optional config section. A missing section means
// "enabled with defaults": alerts are the whole point of the process.
func mapNotifier(nc *config.NotifierConfig) (notifier.Config, error) {
	if nc == nil {
		return notifier.Config{Enabled: true}, nil
	}
	out := notifier.Config{
		Enabled:         nc.Enabled,
		Workers:         nc.Workers,
		QueueSize:       nc.QueueSize,
		RatePerSec:      nc.RatePerSec,
		RetryMax:        nc.RetryMax,
		DedupMaxEntries: nc.DedupMaxEntries,
		PersistDedup:    nc.PersistDedup,
	}
	var err error
	if out.RetryBase, err = config.ParseDurationField("notifier.retry_base", nc.RetryBase); err != nil {
		return notifier.Config{}, err
	}
	if out.RetryMaxDelay, err = config.ParseDurationField("notifier.retry_max_delay", nc.RetryMaxDelay); err != nil {
		return notifier.Config{}, err
	}
	if out.DedupWindow, err = config.ParseDurationField("notifier.dedup_window", nc.DedupWindow); err != nil {
		return notifier.Config{}, err
	}
	return out, nil
}

// mapPprof translates the optional debug-server section; nil means off.
func mapPprof(cfg *config.Config) pprofConfig {
	pc := cfg.Pprof
	if pc == nil {
		return pprofConfig{}
	}
	return pprofConfig{
		Enabled:              pc.Enabled,
		Addr:                 pc.Addr,
		BlockProfileRate:     pc.BlockProfileRate,
		MutexProfileFraction: pc.MutexProfileFraction,
	}
}

func mapFetcher(cfg *config.Config) (forexfactory.Config, error) {
	timeout, err := config.ParseDurationOrDefault("calendar.request_timeout", cfg.Calendar.RequestTimeout, config.DefaultRequestTimeout)
	if err != nil {
		return forexfactory.Config{}, err
	}
	return forexfactory.Config{
		URL:       cfg.Calendar.URL,
		UserAgent: cfg.Calendar.UserAgent,
		Timeout:   timeout,
	}, nil
}

func mapWatch(cfg *config.Config) (watch.Config, error) {
	poll, err := config.ParseDurationOrDefault("calendar.poll_interval", cfg.Calendar.PollInterval, config.DefaultPollInterval)
	if err != nil {
		return watch.Config{}, err
	}
	lead, err := config.ParseDurationOrDefault("calendar.pre_alert_lead", cfg.Calendar.PreAlertLead, config.DefaultPreAlertLead)
	if err != nil {
		return watch.Config{}, err
	}

	sessions := cfg.Sessions
	if sessions == nil {
		sessions = config.DefaultSessions()
	}
	ws := make([]watch.Session, 0, len(sessions))
	for _, s := range sessions {
		ws = append(ws, watch.Session{
			At:          s.At,
			Name:        s.Name,
			Description: s.Description,
		})
	}

	return watch.Config{
		Currency:     cfg.Calendar.Currency,
		Timezone:     cfg.Calendar.Timezone,
		PollInterval: poll,
		PreAlertLead: lead,
		Sessions:     ws,
		Target:       chatTarget(cfg.Telegram.Channel),
		ChannelTag:   channelTag(cfg.Telegram.Channel),
	}, nil
}
