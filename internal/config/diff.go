package config

import (
	"reflect"
	"sort"
	"strings"

	logx "fxnewsbot/pkg/logx"
)

// SummarizeChange returns a compact list of changed sections plus safe
// structured attrs for logging. Secrets (the bot token) are never included,
// only whether they are set.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 20)

	// Telegram (never log token)
	if (strings.TrimSpace(oldCfg.Telegram.Token) != "") != (strings.TrimSpace(newCfg.Telegram.Token) != "") ||
		strings.TrimSpace(oldCfg.Telegram.Channel) != strings.TrimSpace(newCfg.Telegram.Channel) ||
		strings.TrimSpace(oldCfg.Telegram.PollTimeout) != strings.TrimSpace(newCfg.Telegram.PollTimeout) {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.Bool("telegram.token_set", strings.TrimSpace(newCfg.Telegram.Token) != ""),
			logx.String("telegram.channel", strings.TrimSpace(newCfg.Telegram.Channel)),
			logx.String("telegram.poll_timeout", strings.TrimSpace(newCfg.Telegram.PollTimeout)),
		)
	}

	// Logging
	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logx.telegram_enabled", newCfg.Logging.Telegram.Enabled),
		)
	}

	// Calendar
	if !reflect.DeepEqual(oldCfg.Calendar, newCfg.Calendar) {
		changed = append(changed, "calendar")
		attrs = append(attrs,
			logx.String("calendar.currency", strings.TrimSpace(newCfg.Calendar.Currency)),
			logx.String("calendar.timezone", strings.TrimSpace(newCfg.Calendar.Timezone)),
			logx.String("calendar.poll_interval", strings.TrimSpace(newCfg.Calendar.PollInterval)),
			logx.String("calendar.pre_alert_lead", strings.TrimSpace(newCfg.Calendar.PreAlertLead)),
			logx.Bool("calendar.url_set", strings.TrimSpace(newCfg.Calendar.URL) != ""),
		)
	}

	// Sessions
	if !reflect.DeepEqual(oldCfg.Sessions, newCfg.Sessions) {
		changed = append(changed, "sessions")
		attrs = append(attrs, logx.Int("sessions.count", len(newCfg.Sessions)))
	}

	// Scheduler. An omitted section means enabled with defaults.
	defS := &SchedulerConfig{Enabled: true}
	oldS, newS := oldCfg.Scheduler, newCfg.Scheduler
	if oldS == nil {
		oldS = defS
	}
	if newS == nil {
		newS = defS
	}
	if !reflect.DeepEqual(*oldS, *newS) {
		changed = append(changed, "scheduler")
		attrs = append(attrs,
			logx.Bool("scheduler.enabled", newS.Enabled),
			logx.Int("scheduler.workers", newS.Workers),
			logx.String("scheduler.timezone", strings.TrimSpace(newS.Timezone)),
		)
	}

	// Notifier. Nil means runtime defaults; compare against those for an
	// accurate summary.
	defN := &NotifierConfig{
		Enabled:         true,
		Workers:         2,
		QueueSize:       512,
		RatePerSec:      3,
		RetryMax:        3,
		RetryBase:       "500ms",
		RetryMaxDelay:   "10s",
		DedupWindow:     "1m",
		DedupMaxEntries: 2000,
	}
	oldN, newN := oldCfg.Notifier, newCfg.Notifier
	if oldN == nil {
		oldN = defN
	}
	if newN == nil {
		newN = defN
	}
	if !reflect.DeepEqual(*oldN, *newN) {
		changed = append(changed, "notifier")
		attrs = append(attrs,
			logx.Bool("notifier.enabled", newN.Enabled),
			logx.Int("notifier.workers", newN.Workers),
			logx.Int("notifier.rate_per_sec", newN.RatePerSec),
			logx.Bool("notifier.persist_dedup", newN.PersistDedup),
		)
	}

	// Storage (nil means disabled)
	var oDriver, nDriver, oBusy, nBusy string
	var oPathSet, nPathSet bool
	if oldCfg.Storage != nil {
		oDriver = strings.TrimSpace(oldCfg.Storage.Driver)
		oBusy = strings.TrimSpace(oldCfg.Storage.BusyTimeout)
		oPathSet = strings.TrimSpace(oldCfg.Storage.Path) != ""
	}
	if newCfg.Storage != nil {
		nDriver = strings.TrimSpace(newCfg.Storage.Driver)
		nBusy = strings.TrimSpace(newCfg.Storage.BusyTimeout)
		nPathSet = strings.TrimSpace(newCfg.Storage.Path) != ""
	}
	if oDriver != nDriver || oBusy != nBusy || oPathSet != nPathSet {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", nDriver),
			logx.Bool("storage.path_set", nPathSet),
		)
	}

	// Pprof (nil means disabled)
	var oP, nP PprofConfig
	if oldCfg.Pprof != nil {
		oP = *oldCfg.Pprof
	}
	if newCfg.Pprof != nil {
		nP = *newCfg.Pprof
	}
	if oP != nP {
		changed = append(changed, "pprof")
		attrs = append(attrs,
			logx.Bool("pprof.enabled", nP.Enabled),
			logx.String("pprof.addr", strings.TrimSpace(nP.Addr)),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}
