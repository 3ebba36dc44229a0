// Package notifications sends optional ntfy push notifications for batch
// lifecycle events. Without a configured topic every call is a noop.
package notifications
