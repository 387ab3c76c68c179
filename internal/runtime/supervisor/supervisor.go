// Package supervisor manages named goroutines tied to a shared context:
// panic recovery, optional cancel-on-first-error, optional restart with
// backoff, and timeout-aware waiting on shutdown.
package supervisor

import (
	"context"
	"fmt"
	"math/rand"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	logx "fxnewsbot/pkg/logx"
)

type Supervisor struct {
	ctx    context.Context
	cancel context.CancelFunc

	log         logx.Logger
	cancelOnErr bool

	errOnce  sync.Once
	firstErr atomic.Value // stores error
	wg       sync.WaitGroup

	// best-effort operational counters
	started uint64
	active  int64
}

type Option func(*Supervisor)

func WithLogger(log logx.Logger) Option {
	return func(s *Supervisor) { s.log = log }
}

// WithCancelOnError cancels the supervisor context on the first non-nil
// error from any goroutine.
func WithCancelOnError(enabled bool) Option {
	return func(s *Supervisor) { s.cancelOnErr = enabled }
}

func New(parent context.Context, opts ...Option) *Supervisor {
	ctx, cancel := context.WithCancel(parent)
	s := &Supervisor{ctx: ctx, cancel: cancel, log: logx.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Supervisor) Context() context.Context { return s.ctx }

// Cancel cancels the supervisor context without waiting for goroutines.
func (s *Supervisor) Cancel() { s.cancel() }

// Err returns the first error observed (nil if none).
func (s *Supervisor) Err() error {
	v := s.firstErr.Load()
	if err, ok := v.(error); ok {
		return err
	}
	return nil
}

// Active returns the number of goroutines currently running.
func (s *Supervisor) Active() int64 { return atomic.LoadInt64(&s.active) }

func (s *Supervisor) setErr(err error) {
	if err == nil {
		return
	}
	s.errOnce.Do(func() {
		s.firstErr.Store(err)
		if s.cancelOnErr {
			s.cancel()
		}
	})
}

// Go runs fn once under the supervisor. A panic is recovered, logged with a
// stack, and recorded as the first error.
func (s *Supervisor) Go(name string, fn func(ctx context.Context) error) {
	atomic.AddUint64(&s.started, 1)
	atomic.AddInt64(&s.active, 1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer atomic.AddInt64(&s.active, -1)
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("panic in %s: %v", name, r)
				s.log.Error("goroutine panicked",
					logx.String("name", name),
					logx.Any("panic", r),
					logx.Stack(string(debug.Stack())),
				)
				s.setErr(err)
			}
		}()
		if err := fn(s.ctx); err != nil && s.ctx.Err() == nil {
			s.log.Error("goroutine failed", logx.String("name", name), logx.Err(err))
			s.setErr(err)
		}
	}()
}

// Go0 runs a fire-and-forget goroutine with panic recovery only.
func (s *Supervisor) Go0(name string, fn func(ctx context.Context)) {
	s.Go(name, func(ctx context.Context) error {
		fn(ctx)
		return nil
	})
}

// RestartOption tunes GoRestart behavior.
type RestartOption func(*restartCfg)

type restartCfg struct {
	base time.Duration
	max  time.Duration
}

func WithRestartBackoff(base, max time.Duration) RestartOption {
	return func(c *restartCfg) {
		if base > 0 {
			c.base = base
		}
		if max > 0 {
			c.max = max
		}
	}
}

// GoRestart keeps fn running until the context is cancelled, restarting it
// with jittered exponential backoff whenever it returns or panics. A return
// of context.Canceled ends the loop cleanly.
func (s *Supervisor) GoRestart(name string, fn func(ctx context.Context) error, opts ...RestartOption) {
	cfg := restartCfg{base: 500 * time.Millisecond, max: 10 * time.Second}
	for _, o := range opts {
		o(&cfg)
	}

	s.Go(name, func(ctx context.Context) error {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		backoff := cfg.base
		for {
			err := runRecovered(fn, ctx)
			if ctx.Err() != nil || err == context.Canceled {
				return nil
			}
			if err != nil {
				s.log.Warn("goroutine exited; restarting",
					logx.String("name", name),
					logx.Err(err),
					logx.Duration("backoff", backoff),
				)
			}

			wait := backoff + time.Duration(rng.Int63n(int64(backoff/2)+1))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			if backoff < cfg.max {
				backoff *= 2
				if backoff > cfg.max {
					backoff = cfg.max
				}
			}
		}
	})
}

func runRecovered(fn func(ctx context.Context) error, ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return fn(ctx)
}

// Wait blocks until all goroutines exit or ctx is done.
func (s *Supervisor) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels the supervisor and waits for goroutines until ctx is done.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.cancel()
	return s.Wait(ctx)
}
