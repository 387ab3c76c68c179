package watch

import (
	"context"
	"time"

	"fxnewsbot/internal/calendar"
	"fxnewsbot/internal/dedup"
	kit "fxnewsbot/internal/transport"
	logx "fxnewsbot/pkg/logx"
)

// RunCycle performs one poll: fetch, normalize, dispatch due notifications.
// A fetch failure abandons the whole cycle; nothing is marked notified, so
// the next tick retries everything.
func (s *Service) RunCycle(ctx context.Context) error {
	cfg, loc := s.snapshot()

	rows, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.log.Warn("calendar fetch failed; cycle abandoned", logx.Err(err))
		return err
	}

	now := time.Now().In(loc)
	events := 0
	for _, row := range rows {
		ev, skip := calendar.Normalize(row, cfg.Currency)
		if skip != calendar.SkipNone {
			if skip != calendar.SkipCurrency {
				s.log.Debug("row skipped",
					logx.String("reason", skip.String()),
					logx.String("event", row.Event),
					logx.String("currency", row.Currency),
				)
			}
			continue
		}
		events++
		s.maybePreAlert(ctx, cfg, ev, now)
		s.maybeResult(ctx, cfg, ev)
	}

	s.log.Debug("cycle complete", logx.Int("rows", len(rows)), logx.Int("events", events))
	return nil
}

// maybePreAlert sends the heads-up notice when the event is inside the lead
// window and the actual figure has not been published yet.
func (s *Service) maybePreAlert(ctx context.Context, cfg Config, ev calendar.Event, now time.Time) {
	if ev.HasActual() {
		return
	}
	at, ok := eventTimeToday(ev.Time, now)
	if !ok {
		// "All Day", "Tentative" and blank times have no clock to lead on.
		return
	}
	until := at.Sub(now)
	if until <= 0 || until > cfg.PreAlertLead {
		return
	}
	if !s.marks.Claim(ev.ID, dedup.KindPreAlert) {
		return
	}
	s.dispatch(ctx, cfg, ev, dedup.KindPreAlert, FormatPreAlert(ev, until, cfg.ChannelTag))
}

// maybeResult sends the release notice once the actual figure is on the page.
func (s *Service) maybeResult(ctx context.Context, cfg Config, ev calendar.Event) {
	if !ev.HasActual() {
		return
	}
	if !s.marks.Claim(ev.ID, dedup.KindResult) {
		return
	}
	bias := calendar.Classify(ev.Name, ev.Actual, ev.Forecast)
	s.dispatch(ctx, cfg, ev, dedup.KindResult, FormatResult(ev, bias, cfg.ChannelTag))
}

// dispatch hands the message to the notifier. The claim is released on any
// terminal failure so the next cycle can retry; it is confirmed (and
// persisted) only after a successful send.
func (s *Service) dispatch(ctx context.Context, cfg Config, ev calendar.Event, kind dedup.Kind, text string) {
	id := ev.ID
	n := kit.Notification{
		Channel: "telegram",
		Target:  cfg.Target,
		Text:    text,
		Options: &kit.SendOptions{ParseMode: "HTML", DisablePreview: true},
		Key:     string(kind) + ":" + id,
		OnDone: func(err error) {
			if err != nil {
				s.log.Warn("alert dispatch failed; will retry next cycle",
					logx.String("event_id", id),
					logx.String("kind", string(kind)),
					logx.Err(err),
				)
				s.marks.Release(id, kind)
				return
			}
			s.marks.Confirm(context.Background(), id, kind)
			s.log.Info("alert sent",
				logx.String("event_id", id),
				logx.String("kind", string(kind)),
				logx.String("event", ev.Name),
			)
		},
	}
	if err := s.nf.Notify(ctx, n); err != nil {
		// Never accepted: no OnDone will fire, release here.
		s.marks.Release(id, kind)
		s.log.Warn("alert rejected by notifier",
			logx.String("event_id", id),
			logx.String("kind", string(kind)),
			logx.Err(err),
		)
	}
}
