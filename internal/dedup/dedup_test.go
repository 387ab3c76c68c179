package dedup

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestClaimOncePerKind(t *testing.T) {
	t.Parallel()
	s := New()

	if !s.Claim("137772", KindResult) {
		t.Fatal("first claim must win")
	}
	if s.Claim("137772", KindResult) {
		t.Fatal("second claim for the same kind must lose")
	}
	if !s.Claim("137772", KindPreAlert) {
		t.Fatal("pre-alert keyspace is independent of result")
	}
	if !s.Seen("137772", KindResult) || !s.Seen("137772", KindPreAlert) {
		t.Fatal("Seen must reflect claims")
	}
	if s.Seen("other", KindResult) {
		t.Fatal("unrelated id reported as seen")
	}
}

func TestReleaseAllowsRetry(t *testing.T) {
	t.Parallel()
	s := New()

	if !s.Claim("ev", KindResult) {
		t.Fatal("claim failed")
	}
	s.Release("ev", KindResult)
	if !s.Claim("ev", KindResult) {
		t.Fatal("release must re-open the claim for the next cycle")
	}

	// Releasing something never claimed must not panic or corrupt state.
	s.Release("ghost", KindPreAlert)
	if s.Len() != 1 {
		t.Fatalf("unexpected ledger size: %d", s.Len())
	}
}

func TestClaimConcurrent(t *testing.T) {
	t.Parallel()
	s := New()

	const goroutines = 32
	var wins atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if s.Claim("hot", KindResult) {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Fatalf("exactly one concurrent claim may win, got %d", got)
	}
}

func TestNoticeKeyRoundTrip(t *testing.T) {
	t.Parallel()
	id, kind, ok := splitNoticeKey(noticeKey("evt:abc123", KindPreAlert))
	if !ok || id != "evt:abc123" || kind != KindPreAlert {
		t.Fatalf("round trip failed: %q %q %v", id, kind, ok)
	}
	if _, _, ok := splitNoticeKey("garbage"); ok {
		t.Fatal("malformed key must not parse")
	}
}
