package retry

import (
	"math/rand"
	"time"
)

// Classifier decides whether an error is worth retrying.
type Classifier func(error) bool

// Policy maps attempt counts to backoff delays and bounds total retries.
// The zero value retries nothing; use NewPolicy for sane defaults.
type Policy struct {
	// BaseDelay is the delay before the first retry; each subsequent
	// attempt doubles it.
	BaseDelay time.Duration
	// MaxRetries bounds how many times a task re-enters the queue.
	MaxRetries int
	// JitterFraction spreads delays by ±fraction to avoid synchronized
	// retry storms across a batch. Must be in [0, 1).
	JitterFraction float64
	// Classify overrides DefaultClassifier when set.
	Classify Classifier
}

// NewPolicy builds a policy with the default jitter and classifier.
func NewPolicy(baseDelay time.Duration, maxRetries int) Policy {
	return Policy{
		BaseDelay:      baseDelay,
		MaxRetries:     maxRetries,
		JitterFraction: 0.2,
	}
}

// Delay computes the backoff before the given attempt, counted from 1:
// BaseDelay * 2^(attempt-1), spread by the jitter fraction.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.BaseDelay << (attempt - 1)
	if delay <= 0 {
		return 0
	}
	if p.JitterFraction <= 0 {
		return delay
	}
	spread := float64(delay) * p.JitterFraction
	offset := (rand.Float64()*2 - 1) * spread
	jittered := time.Duration(float64(delay) + offset)
	if jittered < 0 {
		return 0
	}
	return jittered
}

// Retryable reports whether the error should be retried at all.
func (p Policy) Retryable(err error) bool {
	classify := p.Classify
	if classify == nil {
		classify = DefaultClassifier
	}
	return classify(err)
}
