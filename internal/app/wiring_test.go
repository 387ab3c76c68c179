package app

import (
	"testing"

	"fxnewsbot/internal/config"
)

func TestChatTarget(t *testing.T) {
	t.Parallel()

	if got := chatTarget("@alerts"); got.Channel != "@alerts" || got.ChatID != 0 {
		t.Fatalf("chatTarget(@alerts) = %+v", got)
	}
	if got := chatTarget("-1001234567890"); got.ChatID != -1001234567890 || got.Channel != "" {
		t.Fatalf("chatTarget(numeric) = %+v", got)
	}
	if got := channelTag("-1001234567890"); got != "" {
		t.Fatalf("channelTag(numeric) = %q", got)
	}
}

func TestMapSchedulerOmittedSectionIsEnabled(t *testing.T) {
	t.Parallel()

	// A minimal config (token + channel only) must still produce a running
	// scheduler, otherwise nothing ever polls or announces sessions.
	cfg := &config.Config{}

	sc, err := mapScheduler(cfg)
	if err != nil {
		t.Fatalf("mapScheduler: %v", err)
	}
	if !sc.Enabled {
		t.Fatal("scheduler disabled with section omitted")
	}
	if sc.Timezone != config.DefaultTimezone {
		t.Fatalf("timezone = %q, want %q", sc.Timezone, config.DefaultTimezone)
	}

	cfg.Scheduler = &config.SchedulerConfig{Enabled: false}
	sc, err = mapScheduler(cfg)
	if err != nil {
		t.Fatalf("mapScheduler: %v", err)
	}
	if sc.Enabled {
		t.Fatal("explicit enabled=false ignored")
	}
}

func TestMapWatchDefaultSessions(t *testing.T) {
	t.Parallel()

	wc, err := mapWatch(&config.Config{})
	if err != nil {
		t.Fatalf("mapWatch: %v", err)
	}
	if len(wc.Sessions) != 3 {
		t.Fatalf("sessions = %d, want 3", len(wc.Sessions))
	}
	if wc.Sessions[0].At != "09:00" || wc.Sessions[2].At != "20:00" {
		t.Fatalf("session times = %+v", wc.Sessions)
	}
}
