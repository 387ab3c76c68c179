package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "fxnewsbot/pkg/logx"
)

// Store is the minimal persistence API used by the dedup ledger and the
// notifier's suppression cache.
//
// Notices are permanent records: once written they are never deleted, so a
// restarted process does not replay the day's notifications. Suppress entries
// carry an expiry and are pruned opportunistically.
type Store interface {
	PutNotice(ctx context.Context, key string, at time.Time) error
	ListNotices(ctx context.Context) ([]string, error)

	PutSuppress(ctx context.Context, key string, until time.Time) error
	GetSuppress(ctx context.Context, key string) (until time.Time, ok bool, err error)

	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
