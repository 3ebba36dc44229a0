// Package uploader coordinates a batch of concurrent uploads against a
// remote endpoint.
//
// The Manager is the only type other code touches: it accepts payloads,
// admits them FIFO under the configured concurrency ceiling, drives each
// transfer through the transport (chunked when the payload is large),
// retries transient failures with exponential backoff, and exposes
// aggregate status plus synchronous lifecycle events.
//
// One mutex serializes every state transition; transfer I/O for admitted
// tasks proceeds in parallel outside it. Cancellation is cooperative: the
// manager cancels a per-task context and waits for the transport call to
// unwind.
package uploader
