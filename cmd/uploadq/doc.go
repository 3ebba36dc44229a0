// Command uploadq uploads batches of files to a remote endpoint with
// bounded concurrency, retries, and live progress.
package main
