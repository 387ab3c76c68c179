// Package logx provides the bot's structured logging on top of zerolog.
//
// A Service owns the sink configuration (console, JSON file, rate-limited
// Telegram relay) and can hot-swap it at runtime; Loggers handed out by the
// Service keep following the current sinks. The Telegram relay is strictly
// best-effort: it drops on a full queue and is rate limited, so logging can
// never stall the pipeline that it reports on.
package logx
