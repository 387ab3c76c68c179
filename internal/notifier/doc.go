// Package notifier is the async outbound pipeline: a bounded queue drained
// by a small worker pool, with a shared rate limit, retry with jittered
// exponential backoff, and a content-hash dedup window.
//
// Delivery outcome is reported through Notification.OnDone, invoked exactly
// once per accepted notification when the send reaches a terminal state.
// A Notify error (disabled / stopped / queue full) means the notification
// was never accepted and OnDone will not fire.
package notifier
