// Package storage provides optional persistence for the notice ledger and
// the notifier's suppression cache.
//
// It is deliberately tiny: two logical tables (notices, suppress) behind a
// driver-selected backend. The bot is fully functional with storage disabled;
// the only cost is that a restart re-notifies results that were already
// announced, once.
package storage
