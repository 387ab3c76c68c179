package notifier

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	kit "fxnewsbot/internal/transport"
	logx "fxnewsbot/pkg/logx"
)

type fakeAdapter struct {
	mu    sync.Mutex
	sent  []string
	fails int32 // remaining sends that should fail
}

func (f *fakeAdapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if atomic.LoadInt32(&f.fails) > 0 {
		atomic.AddInt32(&f.fails, -1)
		return kit.MessageRef{}, errors.New("telegram unavailable")
	}
	f.mu.Lock()
	f.sent = append(f.sent, text)
	f.mu.Unlock()
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(f.sent)}, nil
}

func (f *fakeAdapter) Stop(ctx context.Context) error { return nil }

func (f *fakeAdapter) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func testConfig() Config {
	return Config{
		Enabled:       true,
		Workers:       1,
		QueueSize:     16,
		RatePerSec:    1000,
		RetryMax:      2,
		RetryBase:     5 * time.Millisecond,
		RetryMaxDelay: 20 * time.Millisecond,
		DedupWindow:   time.Minute,
	}
}

func waitDone(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("OnDone never fired")
		return nil
	}
}

func notification(text string, done chan error) kit.Notification {
	return kit.Notification{
		Channel: "telegram",
		Target:  kit.ChatTarget{Channel: "@alerts"},
		Text:    text,
		Key:     "test:" + text,
		OnDone:  func(err error) { done <- err },
	}
}

func TestNotifySendsAndReportsSuccess(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{}
	s := New(testConfig(), ad, logx.Nop(), nil, nil)
	s.Start(context.Background())
	defer s.Stop(context.Background())

	done := make(chan error, 1)
	if err := s.Notify(context.Background(), notification("hello", done)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if err := waitDone(t, done); err != nil {
		t.Fatalf("OnDone err = %v", err)
	}
	if ad.sentCount() != 1 {
		t.Fatalf("sent = %d", ad.sentCount())
	}
}

func TestNotifyRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{fails: 2}
	s := New(testConfig(), ad, logx.Nop(), nil, nil)
	s.Start(context.Background())
	defer s.Stop(context.Background())

	done := make(chan error, 1)
	if err := s.Notify(context.Background(), notification("flaky", done)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if err := waitDone(t, done); err != nil {
		t.Fatalf("OnDone err = %v, want nil after retries", err)
	}
}

func TestNotifyTerminalFailure(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{fails: 100}
	s := New(testConfig(), ad, logx.Nop(), nil, nil)
	s.Start(context.Background())
	defer s.Stop(context.Background())

	done := make(chan error, 1)
	if err := s.Notify(context.Background(), notification("doomed", done)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if err := waitDone(t, done); err == nil {
		t.Fatal("OnDone err = nil, want terminal error")
	}
	if ad.sentCount() != 0 {
		t.Fatalf("sent = %d, want 0", ad.sentCount())
	}
}

func TestDedupWindowSuppressesIdenticalContent(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{}
	s := New(testConfig(), ad, logx.Nop(), nil, nil)
	s.Start(context.Background())
	defer s.Stop(context.Background())

	first := make(chan error, 1)
	if err := s.Notify(context.Background(), notification("same text", first)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if err := waitDone(t, first); err != nil {
		t.Fatalf("first OnDone err = %v", err)
	}

	second := make(chan error, 1)
	if err := s.Notify(context.Background(), notification("same text", second)); err != nil {
		t.Fatalf("second Notify: %v", err)
	}
	if err := waitDone(t, second); err != nil {
		t.Fatalf("deduped OnDone err = %v, want nil", err)
	}
	if ad.sentCount() != 1 {
		t.Fatalf("sent = %d, want 1 (second suppressed)", ad.sentCount())
	}
}

func TestNotifyDisabled(t *testing.T) {
	t.Parallel()

	s := New(Config{Enabled: false}, &fakeAdapter{}, logx.Nop(), nil, nil)
	s.Start(context.Background())

	err := s.Notify(context.Background(), kit.Notification{Channel: "telegram", Text: "x"})
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
}
