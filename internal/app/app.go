// Package app wires the bot together: config, logging, transport, storage,
// scheduler, notifier and the calendar watcher.
package app

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"fxnewsbot/internal/calendar"
	"fxnewsbot/internal/calendar/forexfactory"
	"fxnewsbot/internal/config"
	"fxnewsbot/internal/dedup"
	"fxnewsbot/internal/eventbus"
	"fxnewsbot/internal/notifier"
	rtsup "fxnewsbot/internal/runtime/supervisor"
	"fxnewsbot/internal/scheduler"
	"fxnewsbot/internal/storage"
	kit "fxnewsbot/internal/transport"
	tgadapter "fxnewsbot/internal/transport/telegram/adapter"
	"fxnewsbot/internal/watch"
	logx "fxnewsbot/pkg/logx"
)

type App struct {
	cfgPath string
	cfgm    *config.Manager
	sup     *rtsup.Supervisor

	log  logx.Logger
	logs *logx.Service

	adapter *tgadapter.Adapter
	bus     eventbus.Bus
	store   storage.Store
	marks   *dedup.Store

	sched   *scheduler.Service
	notif   *notifier.Service
	watcher *watch.Service
	fetcher *swappableFetcher
	pprof   *pprofServer
}

// swappableFetcher lets a config hot-reload replace the underlying calendar
// client without restarting the watcher.
type swappableFetcher struct {
	v atomic.Value // stores watch.Fetcher
}

func (f *swappableFetcher) set(inner watch.Fetcher) { f.v.Store(&inner) }

func (f *swappableFetcher) Fetch(ctx context.Context) ([]calendar.RawRow, error) {
	p, _ := f.v.Load().(*watch.Fetcher)
	if p == nil {
		return nil, fmt.Errorf("calendar fetcher not configured")
	}
	return (*p).Fetch(ctx)
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, config.DefaultTelegramPollWait)
	if err != nil {
		return nil, err
	}
	ad, err := tgadapter.New(tgadapter.Config{
		Token:   cfg.Telegram.Token,
		Timeout: pollTimeout,
	}, logx.NewConsole(cfg.Logging.Level).With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	logs, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	}, ad)
	log = log.With(logx.String("comp", "app"))
	if cfg.Logging.Telegram.Enabled {
		logs.SetTelegramTarget(chatTarget(cfg.Telegram.Channel))
	}

	bus := eventbus.New()

	st, err := openStorage(cfg, log)
	if err != nil {
		return nil, err
	}

	marks := dedup.New(
		dedup.WithStorage(st),
		dedup.WithLogger(log.With(logx.String("comp", "dedup"))),
	)

	schedCfg, err := mapScheduler(cfg)
	if err != nil {
		return nil, err
	}
	sched := scheduler.New(schedCfg, log.With(logx.String("comp", "scheduler")))
	sched.SetBus(bus)

	notifCfg, err := mapNotifier(cfg.Notifier)
	if err != nil {
		return nil, err
	}
	notif := notifier.New(notifCfg, ad, log.With(logx.String("comp", "notifier")), bus, st)

	fetcher := &swappableFetcher{}
	ffCfg, err := mapFetcher(cfg)
	if err != nil {
		return nil, err
	}
	fetcher.set(forexfactory.New(ffCfg, log.With(logx.String("comp", "forexfactory"))))

	watchCfg, err := mapWatch(cfg)
	if err != nil {
		return nil, err
	}
	watcher := watch.New(watchCfg, fetcher, notif, marks, log.With(logx.String("comp", "watch")))

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logs,
		adapter: ad,
		bus:     bus,
		store:   st,
		marks:   marks,
		sched:   sched,
		notif:   notif,
		watcher: watcher,
		fetcher: fetcher,
		pprof:   newPprofServer(log),
	}, nil
}

// Done is closed when the app supervisor context is canceled.
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.New(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(c context.Context, cfg *config.Config) error {
		return config.Validate(cfg)
	})

	// Restore the day's notification ledger before the first poll.
	if err := a.marks.Load(a.sup.Context()); err != nil {
		a.log.Warn("notice ledger restore failed; starting empty", logx.Err(err))
	}

	a.pprof.Apply(a.sup.Context(), mapPprof(a.cfgm.Get()))
	a.notif.Start(a.sup.Context())
	if a.sched.Enabled() {
		a.sched.Start(a.sup.Context())
	}
	if err := a.watcher.Register(a.sched); err != nil {
		return err
	}

	a.startBusLog()
	a.startReloadLoop()
	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.log.Info("app started")
	return nil
}

// startBusLog mirrors notifier/task events into the operational log.
func (a *App) startBusLog() {
	events, unsub := a.bus.Subscribe(64)
	a.sup.Go0("bus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				switch data := ev.Data.(type) {
				case notifier.NotificationEvent:
					if data.Error != "" {
						a.log.Warn("notifier event",
							logx.String("type", ev.Type),
							logx.String("key", data.Key),
							logx.String("err", data.Error),
						)
					} else {
						a.log.Debug("notifier event",
							logx.String("type", ev.Type),
							logx.String("key", data.Key),
						)
					}
				case scheduler.TaskEvent:
					if data.Error != "" && ev.Type == "task.failed" {
						a.log.Warn("task event",
							logx.String("type", ev.Type),
							logx.String("task", data.Name),
							logx.String("err", data.Error),
						)
					}
				}
			}
		}
	})
}

func (a *App) startReloadLoop() {
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: keep only the latest config.
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						goto APPLY
					}
				}
			APPLY:
				sections, attrs := config.SummarizeChange(lastApplied, newCfg)
				lastApplied = newCfg
				if len(sections) == 0 {
					a.log.Debug("config reload received, but no effective changes detected")
					continue
				}
				a.applyReload(c, newCfg)
				a.log.Info("config reloaded",
					append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)...)
			}
		}
	})
}

func (a *App) applyReload(ctx context.Context, cfg *config.Config) {
	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	})
	if cfg.Logging.Telegram.Enabled {
		a.logs.SetTelegramTarget(chatTarget(cfg.Telegram.Channel))
	} else {
		a.logs.SetTelegramTarget(kit.ChatTarget{})
	}

	if schedCfg, err := mapScheduler(cfg); err != nil {
		a.log.Warn("scheduler config rejected on reload", logx.Err(err))
	} else {
		prevEnabled := a.sched.Enabled()
		a.sched.Apply(schedCfg)
		if prevEnabled && !schedCfg.Enabled {
			a.log.Info("scheduler disabled via config")
			stopCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			a.sched.Stop(stopCtx)
			cancel()
		} else if !prevEnabled && schedCfg.Enabled {
			a.log.Info("scheduler enabled via config")
			a.sched.Start(ctx)
		}
	}

	if notifCfg, err := mapNotifier(cfg.Notifier); err != nil {
		a.log.Warn("notifier config rejected on reload", logx.Err(err))
	} else {
		a.notif.Apply(notifCfg)
	}

	if ffCfg, err := mapFetcher(cfg); err != nil {
		a.log.Warn("calendar config rejected on reload", logx.Err(err))
	} else {
		a.fetcher.set(forexfactory.New(ffCfg, a.log.With(logx.String("comp", "forexfactory"))))
	}

	if watchCfg, err := mapWatch(cfg); err != nil {
		a.log.Warn("watch config rejected on reload", logx.Err(err))
	} else if err := a.watcher.Apply(watchCfg, a.sched); err != nil {
		a.log.Warn("watch re-register failed", logx.Err(err))
	}

	a.pprof.Apply(ctx, mapPprof(cfg))
}

func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping")

	// Cancel the run context first so background loops start unwinding.
	a.sup.Cancel()

	// Bound each shutdown step so one component can't stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		stepCtx := ctx
		var cancel context.CancelFunc
		if max > 0 {
			stepCtx, cancel = context.WithTimeout(ctx, max)
			defer cancel()
		}
		start := time.Now()
		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()
		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.Duration("elapsed", time.Since(start)),
			)
		}
	}

	step("pprof", time.Second, func(c context.Context) error { a.pprof.Stop(c); return nil })
	step("scheduler", 2*time.Second, func(c context.Context) error { a.sched.Stop(c); return nil })
	step("notifier", 2*time.Second, func(c context.Context) error { a.notif.Stop(c); return nil })
	step("adapter", 2*time.Second, func(c context.Context) error { return a.adapter.Stop(c) })
	if a.store != nil {
		step("storage", time.Second, func(c context.Context) error { return a.store.Close() })
	}
	step("supervisor", 2*time.Second, func(c context.Context) error { return a.sup.Wait(c) })

	a.log.Info("stopped")
	_ = a.logs.Close()
	return nil
}
