package config

import (
	"fmt"
	"net"
	"strings"
	"time"
)

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`

	// Calendar controls the economic-calendar poller: which page to fetch,
	// which currency to track, and how alert timing is computed.
	Calendar CalendarConfig `json:"calendar"`

	// Sessions are fixed-time daily announcements (market session opens).
	// If omitted, DefaultSessions() applies.
	Sessions []SessionConfig `json:"sessions,omitempty"`

	// Scheduler and Notifier default to enabled when their section is
	// omitted; the bot is useless with either one off.
	Scheduler *SchedulerConfig `json:"scheduler,omitempty"`
	Notifier  *NotifierConfig  `json:"notifier,omitempty"`
	Storage   *StorageConfig   `json:"storage,omitempty"`
	Pprof     *PprofConfig     `json:"pprof,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// Channel is the alert destination: "@channelname" or a numeric chat ID.
	Channel string `json:"channel"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// CalendarConfig controls the calendar watcher.
//
// All durations are Go duration strings (e.g. "30s", "1m").
//
// Defaults (when fields are omitted/zero):
//   - url: "https://www.forexfactory.com/calendar"
//   - currency: "USD"
//   - timezone: "Asia/Baghdad"
//   - poll_interval: "1m"
//   - pre_alert_lead: "30m"
//   - request_timeout: "20s"
type CalendarConfig struct {
	URL      string `json:"url,omitempty"`
	Currency string `json:"currency,omitempty"`
	Timezone string `json:"timezone,omitempty"`

	PollInterval   string `json:"poll_interval,omitempty"`
	PreAlertLead   string `json:"pre_alert_lead,omitempty"`
	RequestTimeout string `json:"request_timeout,omitempty"`

	// UserAgent overrides the browser identity sent with calendar requests.
	UserAgent string `json:"user_agent,omitempty"`
}

const (
	DefaultCalendarURL      = "https://www.forexfactory.com/calendar"
	DefaultCurrency         = "USD"
	DefaultTimezone         = "Asia/Baghdad"
	DefaultPollInterval     = time.Minute
	DefaultPreAlertLead     = 30 * time.Minute
	DefaultRequestTimeout   = 20 * time.Second
	DefaultCalendarUA       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	DefaultTelegramPollWait = 10 * time.Second
)

// SessionConfig is one fixed-time daily announcement.
type SessionConfig struct {
	// At is local wall-clock time "HH:MM" in the calendar timezone.
	At   string `json:"at"`
	Name string `json:"name"`
	// Description is free text appended to the announcement.
	Description string `json:"description,omitempty"`
}

// DefaultSessions returns the built-in session schedule used when the
// config omits the sessions list entirely.
func DefaultSessions() []SessionConfig {
	return []SessionConfig{
		{At: "09:00", Name: "جلسة آسيا 🇯🇵🇦🇺", Description: "🌅 بداية اليوم التجاري، تحضر للحركة"},
		{At: "13:00", Name: "جلسة أوروبا 🇬🇧", Description: "🌍 جلسة قوية - السيولة تبدأ بالارتفاع"},
		{At: "20:00", Name: "جلسة نيويورك 🇺🇸", Description: "🔥 أقوى الجلسات - السيولة في الذروة!"},
	}
}

// NotifierConfig controls the async notification pipeline.
//
// All durations are Go duration strings. If the whole section is omitted,
// the notifier defaults to enabled=true.
type NotifierConfig struct {
	Enabled         bool   `json:"enabled"`
	Workers         int    `json:"workers"`
	QueueSize       int    `json:"queue_size"`
	RatePerSec      int    `json:"rate_per_sec"`
	RetryMax        int    `json:"retry_max"`
	RetryBase       string `json:"retry_base"`
	RetryMaxDelay   string `json:"retry_max_delay"`
	DedupWindow     string `json:"dedup_window"`
	DedupMaxEntries int    `json:"dedup_max_entries"`
	PersistDedup    bool   `json:"persist_dedup,omitempty"`
}

// SchedulerConfig tunes the task scheduler. An omitted section means
// enabled with defaults; set "enabled": false to switch all schedules off.
type SchedulerConfig struct {
	Enabled bool `json:"enabled"`

	Workers int `json:"workers,omitempty"`
	// DefaultTimeout is a Go duration string. "0s" disables the global cap.
	DefaultTimeout string `json:"default_timeout,omitempty"`

	// Timezone for cron/daily triggers. Falls back to calendar.timezone.
	Timezone string `json:"timezone,omitempty"`
}

// PprofConfig controls the optional pprof HTTP server. It has no auth, so
// Validate refuses non-loopback binds.
type PprofConfig struct {
	Enabled              bool   `json:"enabled"`
	Addr                 string `json:"addr,omitempty"` // default 127.0.0.1:6060
	BlockProfileRate     int    `json:"block_profile_rate,omitempty"`
	MutexProfileFraction int    `json:"mutex_profile_fraction,omitempty"`
}

// StorageConfig controls the optional persistence layer.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./fxnewsbot_store" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// Validate rejects configs that cannot possibly run. Duration fields are
// validated here so a bad reload is caught before commit.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if strings.TrimSpace(cfg.Telegram.Channel) == "" {
		return fmt.Errorf("telegram.channel is required")
	}
	fields := []struct{ path, raw string }{
		{"telegram.poll_timeout", cfg.Telegram.PollTimeout},
		{"calendar.poll_interval", cfg.Calendar.PollInterval},
		{"calendar.pre_alert_lead", cfg.Calendar.PreAlertLead},
		{"calendar.request_timeout", cfg.Calendar.RequestTimeout},
	}
	if cfg.Scheduler != nil {
		fields = append(fields, struct{ path, raw string }{"scheduler.default_timeout", cfg.Scheduler.DefaultTimeout})
	}
	for _, f := range fields {
		if _, err := ParseDurationField(f.path, f.raw); err != nil {
			return err
		}
	}
	if tz := strings.TrimSpace(cfg.Calendar.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("calendar.timezone: %w", err)
		}
	}
	for i, s := range cfg.Sessions {
		if _, _, err := ParseClock(s.At); err != nil {
			return fmt.Errorf("sessions[%d].at: %w", i, err)
		}
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("sessions[%d].name is required", i)
		}
	}
	if cfg.Storage != nil {
		switch strings.TrimSpace(cfg.Storage.Driver) {
		case "", "file", "sqlite":
		default:
			return fmt.Errorf("storage.driver: unknown driver %q", cfg.Storage.Driver)
		}
	}
	if pc := cfg.Pprof; pc != nil {
		if pc.BlockProfileRate < 0 {
			return fmt.Errorf("pprof.block_profile_rate must be >= 0")
		}
		if pc.MutexProfileFraction < 0 {
			return fmt.Errorf("pprof.mutex_profile_fraction must be >= 0")
		}
		if pc.Enabled {
			addr := strings.TrimSpace(pc.Addr)
			if addr == "" {
				addr = "127.0.0.1:6060"
			}
			if _, _, err := net.SplitHostPort(addr); err != nil {
				return fmt.Errorf("pprof.addr: invalid %q (expected host:port): %w", pc.Addr, err)
			}
			if !isLoopbackAddr(addr) {
				return fmt.Errorf("pprof.addr: refusing non-loopback bind %q (no auth on this endpoint)", addr)
			}
		}
	}
	return nil
}

func isLoopbackAddr(addr string) bool {
	h, _, err := net.SplitHostPort(addr)
	if err != nil || h == "" {
		return false
	}
	if strings.EqualFold(h, "localhost") {
		return true
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}

// ParseClock parses "HH:MM" (24h) returning hour and minute.
func ParseClock(raw string) (hour, minute int, err error) {
	s := strings.TrimSpace(raw)
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("invalid time %q (want HH:MM)", raw)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time %q (want HH:MM)", raw)
	}
	return hour, minute, nil
}
