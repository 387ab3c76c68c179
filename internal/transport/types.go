package transport

import "context"

// ChatTarget identifies where a message goes. Either a numeric chat id or a
// public channel username ("@channel"); Channel wins when both are set.
type ChatTarget struct {
	ChatID  int64
	Channel string
}

func (t ChatTarget) IsZero() bool { return t.ChatID == 0 && t.Channel == "" }

type MessageRef struct {
	ChatID    int64
	MessageID int
}

type SendOptions struct {
	ParseMode      string // "", "HTML", "MarkdownV2"
	DisablePreview bool
}

// Notification is a single outbound message plus bookkeeping the async
// pipeline needs. Key is an opaque caller label used in logs and bus events.
// OnDone, when set, is invoked exactly once after the send reaches a terminal
// state: nil on success, the last error after retries are exhausted.
type Notification struct {
	Channel string // "telegram" for now
	Target  ChatTarget
	Text    string
	Options *SendOptions

	Key    string
	OnDone func(err error)
}

// Adapter is the outbound messaging boundary. Implementations must be safe
// for concurrent use.
type Adapter interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
	Stop(ctx context.Context) error
}
