// Package retry defines the backoff policy and error taxonomy for failed
// transfers.
//
// The policy is a pure function from attempt count to delay; the
// dispatcher owns the timers. Classification of retryable versus
// permanent errors is a configuration point so transports can be swapped
// without touching dispatch logic.
package retry
