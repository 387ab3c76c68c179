package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestParseStrictJSON(t *testing.T) {
	t.Parallel()

	p := writeFile(t, "config.json", `{
		"telegram": {"token": "123:abc", "channel": "@alerts"},
		"logging": {"level": "debug", "console": true,
			"file": {"enabled": false, "path": ""},
			"telegram": {"enabled": false, "min_level": "", "rate_per_sec": 0}},
		"calendar": {"currency": "USD", "poll_interval": "30s"},
		"scheduler": {"enabled": true}
	}`)

	m := NewManager(p)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Channel != "@alerts" {
		t.Fatalf("channel = %q", cfg.Telegram.Channel)
	}
	if cfg.Calendar.PollInterval != "30s" {
		t.Fatalf("poll_interval = %q", cfg.Calendar.PollInterval)
	}
	if got := m.Get(); got != cfg {
		t.Fatalf("Get returned a different pointer")
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	p := writeFile(t, "config.json", `{
		"telegram": {"token": "t", "channel": "@c", "chat_id": 5},
		"logging": {"level": "info", "console": true,
			"file": {"enabled": false, "path": ""},
			"telegram": {"enabled": false, "min_level": "", "rate_per_sec": 0}},
		"calendar": {},
		"scheduler": {"enabled": true}
	}`)

	if _, err := NewManager(p).Parse(); err == nil {
		t.Fatal("expected unknown-field error, got nil")
	}
}

func TestParseYAML(t *testing.T) {
	t.Parallel()

	p := writeFile(t, "config.yaml", strings.Join([]string{
		"telegram:",
		"  token: 123:abc",
		"  channel: \"@alerts\"",
		"logging:",
		"  level: info",
		"  console: true",
		"  file: {enabled: false, path: \"\"}",
		"  telegram: {enabled: false, min_level: \"\", rate_per_sec: 0}",
		"calendar:",
		"  currency: USD",
		"  pre_alert_lead: 15m",
		"sessions:",
		"  - {at: \"09:00\", name: london}",
		"scheduler:",
		"  enabled: true",
	}, "\n"))

	cfg, err := NewManager(p).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Calendar.PreAlertLead != "15m" {
		t.Fatalf("pre_alert_lead = %q", cfg.Calendar.PreAlertLead)
	}
	if len(cfg.Sessions) != 1 || cfg.Sessions[0].At != "09:00" {
		t.Fatalf("sessions = %+v", cfg.Sessions)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := func() *Config {
		return &Config{
			Telegram: TelegramConfig{Token: "t", Channel: "@c"},
			Calendar: CalendarConfig{Timezone: "Asia/Baghdad"},
			Sessions: []SessionConfig{{At: "09:00", Name: "london"}},
		}
	}

	if err := Validate(base()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing token", func(c *Config) { c.Telegram.Token = "" }},
		{"missing channel", func(c *Config) { c.Telegram.Channel = " " }},
		{"bad duration", func(c *Config) { c.Calendar.PollInterval = "5 minutes" }},
		{"bad timezone", func(c *Config) { c.Calendar.Timezone = "Mars/Olympus" }},
		{"bad session time", func(c *Config) { c.Sessions[0].At = "25:00" }},
		{"session without name", func(c *Config) { c.Sessions[0].Name = "" }},
		{"unknown storage driver", func(c *Config) { c.Storage = &StorageConfig{Driver: "redis"} }},
		{"negative profile rate", func(c *Config) { c.Pprof = &PprofConfig{BlockProfileRate: -1} }},
		{"pprof bad addr", func(c *Config) { c.Pprof = &PprofConfig{Enabled: true, Addr: "6060"} }},
		{"pprof public bind", func(c *Config) { c.Pprof = &PprofConfig{Enabled: true, Addr: "0.0.0.0:6060"} }},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := base()
			tc.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	good := map[string][2]int{
		"09:00": {9, 0},
		"13:30": {13, 30},
		"0:05":  {0, 5},
	}
	for raw, want := range good {
		h, m, err := ParseClock(raw)
		if err != nil {
			t.Fatalf("ParseClock(%q): %v", raw, err)
		}
		if h != want[0] || m != want[1] {
			t.Fatalf("ParseClock(%q) = %d:%d, want %d:%d", raw, h, m, want[0], want[1])
		}
	}
	for _, raw := range []string{"", "24:00", "09:60", "nine"} {
		if _, _, err := ParseClock(raw); err == nil {
			t.Fatalf("ParseClock(%q): expected error", raw)
		}
	}
}

func TestSummarizeChange(t *testing.T) {
	t.Parallel()

	oldCfg := &Config{Telegram: TelegramConfig{Token: "t", Channel: "@a"}}
	newCfg := &Config{
		Telegram: TelegramConfig{Token: "t", Channel: "@b"},
		Calendar: CalendarConfig{Currency: "EUR"},
	}

	changed, _ := SummarizeChange(oldCfg, newCfg)
	want := map[string]bool{"telegram": true, "calendar": true}
	if len(changed) != len(want) {
		t.Fatalf("changed = %v", changed)
	}
	for _, s := range changed {
		if !want[s] {
			t.Fatalf("unexpected section %q in %v", s, changed)
		}
	}
}

func TestSummarizeChangeOmittedSectionsMeanDefaults(t *testing.T) {
	t.Parallel()

	// nil scheduler/notifier sections and their explicit defaults are the
	// same effective config; a reload between the two is a no-op.
	oldCfg := &Config{Telegram: TelegramConfig{Token: "t", Channel: "@a"}}
	newCfg := &Config{
		Telegram:  TelegramConfig{Token: "t", Channel: "@a"},
		Scheduler: &SchedulerConfig{Enabled: true},
	}

	if changed, _ := SummarizeChange(oldCfg, newCfg); len(changed) != 0 {
		t.Fatalf("changed = %v, want none", changed)
	}

	newCfg.Scheduler.Enabled = false
	changed, _ := SummarizeChange(oldCfg, newCfg)
	if len(changed) != 1 || changed[0] != "scheduler" {
		t.Fatalf("changed = %v, want [scheduler]", changed)
	}
}
