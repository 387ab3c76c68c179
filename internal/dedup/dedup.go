// Package dedup tracks which notifications have already gone out so repeated
// polling of the same calendar data never re-announces an event.
package dedup

import (
	"context"
	"sync"
	"time"

	"fxnewsbot/internal/storage"
	logx "fxnewsbot/pkg/logx"
)

// Kind is a notification keyspace. PreAlert and Result are independent: one
// event may legitimately receive both.
type Kind string

const (
	KindPreAlert Kind = "pre"
	KindResult   Kind = "result"
)

type key struct {
	id   string
	kind Kind
}

// Store is the process-lifetime notice ledger. Claim/Release form the atomic
// check-and-set pair that keeps two concurrent cycles from both dispatching
// the same notice. Entries never expire.
//
// The in-memory map is authoritative; a configured storage backend is a
// best-effort write-through so a restart does not replay the day's results.
type Store struct {
	mu      sync.Mutex
	claimed map[key]struct{}

	log   logx.Logger
	store storage.Store
}

// Option configures a Store.
type Option func(*Store)

// WithStorage enables persistence of confirmed notices.
func WithStorage(st storage.Store) Option {
	return func(s *Store) { s.store = st }
}

func WithLogger(log logx.Logger) Option {
	return func(s *Store) { s.log = log }
}

func New(opts ...Option) *Store {
	s := &Store{
		claimed: map[key]struct{}{},
		log:     logx.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load restores persisted notices into memory. Call once at startup, before
// the first poll cycle.
func (s *Store) Load(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	keys, err := s.store.ListNotices(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	for _, k := range keys {
		if id, kind, ok := splitNoticeKey(k); ok {
			s.claimed[key{id: id, kind: kind}] = struct{}{}
		}
	}
	n := len(s.claimed)
	s.mu.Unlock()
	s.log.Info("notice ledger restored", logx.Int("entries", n))
	return nil
}

// Seen reports whether a notice of this kind was already claimed for the id.
func (s *Store) Seen(id string, kind Kind) bool {
	s.mu.Lock()
	_, ok := s.claimed[key{id: id, kind: kind}]
	s.mu.Unlock()
	return ok
}

// Claim atomically records the notice and reports whether the caller won it.
// A second Claim for the same (id, kind) returns false.
func (s *Store) Claim(id string, kind Kind) bool {
	k := key{id: id, kind: kind}
	s.mu.Lock()
	if _, ok := s.claimed[k]; ok {
		s.mu.Unlock()
		return false
	}
	s.claimed[k] = struct{}{}
	s.mu.Unlock()
	return true
}

// Release undoes a claim after a failed dispatch, so the next poll cycle
// retries while the triggering condition still holds. Releasing an unclaimed
// key is a no-op.
func (s *Store) Release(id string, kind Kind) {
	s.mu.Lock()
	delete(s.claimed, key{id: id, kind: kind})
	s.mu.Unlock()
}

// Confirm persists a successfully dispatched notice. Best-effort: a storage
// failure is logged and the in-memory claim still stands.
func (s *Store) Confirm(ctx context.Context, id string, kind Kind) {
	if s.store == nil {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	if err := s.store.PutNotice(cctx, noticeKey(id, kind), time.Now()); err != nil {
		s.log.Warn("notice persist failed", logx.String("id", id), logx.String("kind", string(kind)), logx.Err(err))
	}
}

// Len returns the number of claimed notices (for status/debug output).
func (s *Store) Len() int {
	s.mu.Lock()
	n := len(s.claimed)
	s.mu.Unlock()
	return n
}

func noticeKey(id string, kind Kind) string { return id + ":" + string(kind) }

func splitNoticeKey(k string) (id string, kind Kind, ok bool) {
	for _, suffix := range []Kind{KindPreAlert, KindResult} {
		tail := ":" + string(suffix)
		if len(k) > len(tail) && k[len(k)-len(tail):] == tail {
			return k[:len(k)-len(tail)], suffix, true
		}
	}
	return "", "", false
}
