package watch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"fxnewsbot/internal/dedup"
	kit "fxnewsbot/internal/transport"
	logx "fxnewsbot/pkg/logx"
)

// fakeRegistrar records schedule registrations.
type fakeRegistrar struct {
	mu        sync.Mutex
	intervals map[string]time.Duration
	dailies   map[string]string // name -> HH:MM
	removed   []string
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{intervals: map[string]time.Duration{}, dailies: map[string]string{}}
}

func (r *fakeRegistrar) AddInterval(name string, every, timeout time.Duration, job func(ctx context.Context) error) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intervals[name] = every
	return name, nil
}

func (r *fakeRegistrar) AddDaily(name, at string, timeout time.Duration, job func(ctx context.Context) error) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !strings.Contains(at, ":") {
		return "", fmt.Errorf("bad time %q", at)
	}
	r.dailies[name] = at
	return name, nil
}

func (r *fakeRegistrar) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, name)
	delete(r.dailies, name)
	delete(r.intervals, name)
	return true
}

func sessionConfig(sessions ...Session) Config {
	return Config{
		Currency:     "USD",
		Timezone:     "UTC",
		PollInterval: time.Minute,
		PreAlertLead: 30 * time.Minute,
		Sessions:     sessions,
		Target:       kit.ChatTarget{Channel: "@alerts"},
		ChannelTag:   "@alerts",
	}
}

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	// A zero config must still poll the right market in the right zone:
	// event times on the page are Baghdad wall-clock, not host-local.
	s := New(Config{}, &fakeFetcher{}, &fakeNotifier{}, dedup.New(), logx.Nop())

	cfg, loc := s.snapshot()
	if loc.String() != "Asia/Baghdad" {
		t.Fatalf("location = %q, want Asia/Baghdad", loc)
	}
	if cfg.Currency != "USD" {
		t.Fatalf("currency = %q", cfg.Currency)
	}
	if cfg.PollInterval != time.Minute || cfg.PreAlertLead != 30*time.Minute {
		t.Fatalf("intervals = %v / %v", cfg.PollInterval, cfg.PreAlertLead)
	}
}

func TestRegisterInstallsPollAndSessions(t *testing.T) {
	t.Parallel()

	s := New(sessionConfig(
		Session{At: "09:00", Name: "Asia"},
		Session{At: "13:00", Name: "Europe"},
		Session{At: "20:00", Name: "New York"},
	), &fakeFetcher{}, &fakeNotifier{}, dedup.New(), logx.Nop())

	reg := newFakeRegistrar()
	if err := s.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if got := reg.intervals[pollJobName]; got != time.Minute {
		t.Fatalf("poll interval = %v", got)
	}
	for _, at := range []string{"09:00", "13:00", "20:00"} {
		if got := reg.dailies["session."+at]; got != at {
			t.Fatalf("session %s registered at %q", at, got)
		}
	}
}

func TestApplyRemovesStaleSessions(t *testing.T) {
	t.Parallel()

	s := New(sessionConfig(
		Session{At: "09:00", Name: "Asia"},
		Session{At: "20:00", Name: "New York"},
	), &fakeFetcher{}, &fakeNotifier{}, dedup.New(), logx.Nop())

	reg := newFakeRegistrar()
	if err := s.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := s.Apply(sessionConfig(Session{At: "09:00", Name: "Asia"}), reg); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if _, ok := reg.dailies["session.20:00"]; ok {
		t.Fatal("stale session still registered")
	}
	if _, ok := reg.dailies["session.09:00"]; !ok {
		t.Fatal("kept session missing")
	}
}

func TestRunSessionMessage(t *testing.T) {
	t.Parallel()

	nf := &fakeNotifier{}
	s := New(sessionConfig(), &fakeFetcher{}, nf, dedup.New(), logx.Nop())

	sess := Session{At: "20:00", Name: "جلسة نيويورك 🇺🇸", Description: "🔥 أقوى الجلسات - السيولة في الذروة!"}
	if err := s.runSession(context.Background(), sess); err != nil {
		t.Fatalf("runSession: %v", err)
	}

	texts := nf.texts()
	if len(texts) != 1 {
		t.Fatalf("texts = %d", len(texts))
	}
	for _, want := range []string{"جلسة نيويورك", "أقوى الجلسات", "انتبه لتحركات الذهب والدولار", "@alerts"} {
		if !strings.Contains(texts[0], want) {
			t.Errorf("session message missing %q:\n%s", want, texts[0])
		}
	}
	if got := nf.keys()[0]; got != "session:20:00" {
		t.Fatalf("key = %q", got)
	}
}
