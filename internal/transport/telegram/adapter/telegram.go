package adapter

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	logx "fxnewsbot/pkg/logx"

	kit "fxnewsbot/internal/transport"
)

// Adapter is a send-only Telegram client. The bot never consumes updates, so
// no poller is configured; it exists purely to push messages into a channel.
type Adapter struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot
}

type Config struct {
	Token string
	// Timeout bounds a single API call.
	Timeout time.Duration
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Client: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Adapter{cfg: cfg, log: log, bot: b}, nil
}

// channelRecipient lets us address public channels by "@username".
type channelRecipient string

func (c channelRecipient) Recipient() string { return string(c) }

func recipientFor(to kit.ChatTarget) (tele.Recipient, error) {
	ch := strings.TrimSpace(to.Channel)
	if ch != "" {
		if !strings.HasPrefix(ch, "@") {
			ch = "@" + ch
		}
		return channelRecipient(ch), nil
	}
	if to.ChatID != 0 {
		return tele.ChatID(to.ChatID), nil
	}
	return nil, errors.New("empty chat target")
}

func (a *Adapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return kit.MessageRef{}, err
	}
	rcpt, err := recipientFor(to)
	if err != nil {
		return kit.MessageRef{}, err
	}

	// telebot has no context plumbing; the HTTP client timeout bounds the call.
	var sendOpt tele.SendOptions
	if opt != nil {
		switch strings.ToUpper(opt.ParseMode) {
		case "HTML":
			sendOpt.ParseMode = tele.ModeHTML
		case "MARKDOWNV2":
			sendOpt.ParseMode = tele.ModeMarkdownV2
		}
		sendOpt.DisableWebPagePreview = opt.DisablePreview
	}

	msg, err := a.bot.Send(rcpt, text, &sendOpt)
	if err != nil {
		a.log.Debug("send failed",
			logx.Int64("chat_id", to.ChatID),
			logx.String("channel", to.Channel),
			logx.Err(err),
		)
		return kit.MessageRef{}, err
	}
	ref := kit.MessageRef{MessageID: msg.ID}
	if msg.Chat != nil {
		ref.ChatID = msg.Chat.ID
	}
	return ref, nil
}

func (a *Adapter) Stop(ctx context.Context) error {
	_ = ctx
	// Nothing polls, so there is nothing to drain.
	return nil
}
