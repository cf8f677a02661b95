package retry

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/nijaru/yt-summary/errors"
	"github.com/sirupsen/logrus"
)

const (
	defaultMaxTries        = 3
	defaultInitialInterval = 2 * time.Second
	defaultMaxInterval     = 30 * time.Second
	backoffFactor          = 2.0
)

type Config struct {
	MaxTries        int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// StatusError is returned for HTTP responses outside the 2xx range.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Retryable reports whether a response with this status is worth retrying.
func Retryable(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= http.StatusInternalServerError
}

// Permanent marks err so that Do stops retrying immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs fn until it succeeds, returns a permanent error, the context ends or
// the attempts run out. Provider unavailability and non-retryable HTTP
// statuses are never retried.
func Do[T any](ctx context.Context, cfg Config, op string, fn func() (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = orDefault(cfg.InitialInterval, defaultInitialInterval)
	bo.MaxInterval = orDefault(cfg.MaxInterval, defaultMaxInterval)
	bo.Multiplier = backoffFactor

	maxTries := cfg.MaxTries
	if maxTries <= 0 {
		maxTries = defaultMaxTries
	}

	attempt := 0
	operation := func() (T, error) {
		attempt++
		res, err := fn()
		if err != nil && !shouldRetry(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	notify := func(err error, next time.Duration) {
		logrus.WithFields(logrus.Fields{
			"op":      op,
			"attempt": attempt,
			"max":     maxTries,
			"backoff": next,
			"error":   err,
		}).Warn("Retrying after failure")
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(maxTries)),
		backoff.WithNotify(notify),
	)
}

func shouldRetry(err error) bool {
	if errors.IsUnavailable(err) {
		return false
	}
	var statusErr *StatusError
	if stderrors.As(err, &statusErr) {
		return Retryable(statusErr.StatusCode)
	}
	return true
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
