// Package notifications publishes run summaries to ntfy.
//
// NewService returns a no-op implementation when notifications.ntfy_topic is
// empty, so callers never need to check whether notifications are enabled.
package notifications
