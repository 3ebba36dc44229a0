// Package transport moves payload bytes to the remote endpoint.
//
// The Transport interface is what the upload manager drives; Client is
// the default HTTP implementation. Errors returned by a transport should
// be tagged with the retry package's sentinel markers so the dispatcher
// can classify them.
package transport
