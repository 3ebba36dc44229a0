package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Sentinel markers used to classify transfer failures. Transports tag the
// errors they return with one of these so the dispatcher can decide
// whether a retry is worthwhile without knowing transport internals.
var (
	ErrTransient = errors.New("transient transfer error")
	ErrPermanent = errors.New("permanent transfer error")
)

// Wrap builds an error that carries operation context while tagging it
// with the provided marker for later classification.
func Wrap(marker error, operation string, err error) error {
	detail := strings.TrimSpace(operation)
	if detail == "" {
		detail = "transfer"
	}
	if marker == nil {
		marker = ErrPermanent
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsCancellation reports whether the error stems from a caller-initiated
// cancellation. Cancellation is never retried and never reported as a
// failure. Deadline errors do not qualify: an elapsed request deadline is
// a timeout and classifies as retryable, not as the caller giving up.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}

// DefaultClassifier is the retryability decision applied when a policy
// does not configure its own. Tagged-transient errors and network
// timeouts retry; everything else, including unclassified errors, does
// not.
func DefaultClassifier(err error) bool {
	if err == nil || IsCancellation(err) {
		return false
	}
	if errors.Is(err, ErrPermanent) {
		return false
	}
	if errors.Is(err, ErrTransient) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
