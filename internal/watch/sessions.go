package watch

import (
	"context"

	kit "fxnewsbot/internal/transport"
	logx "fxnewsbot/pkg/logx"
)

// runSession fires one daily session announcement. Once-per-day semantics
// come from the daily trigger itself; there is no release-style dedup ledger
// for sessions.
func (s *Service) runSession(ctx context.Context, sess Session) error {
	cfg, _ := s.snapshot()

	err := s.nf.Notify(ctx, kit.Notification{
		Channel: "telegram",
		Target:  cfg.Target,
		Text:    FormatSession(sess.Name, sess.Description, cfg.ChannelTag),
		Options: &kit.SendOptions{ParseMode: "HTML", DisablePreview: true},
		Key:     "session:" + sess.At,
	})
	if err != nil {
		s.log.Warn("session alert rejected", logx.String("at", sess.At), logx.Err(err))
		return err
	}
	s.log.Info("session alert queued", logx.String("at", sess.At), logx.String("name", sess.Name))
	return nil
}
