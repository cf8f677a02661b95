package transcript

import (
	"context"
	"time"

	"github.com/nijaru/yt-summary/errors"
	"github.com/sirupsen/logrus"
)

// Chain tries providers in order and stops at the first one that yields
// non-empty text. Providers never run concurrently.
type Chain struct {
	providers []Provider
	logger    *logrus.Logger
}

func NewChain(providers ...Provider) *Chain {
	return &Chain{
		providers: providers,
		logger:    logrus.StandardLogger(),
	}
}

// Providers returns the provider names in the order they are tried.
func (c *Chain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Get returns the normalized transcript and the name of the provider that
// produced it. Provider failures are logged and skipped; only exhaustion or
// cancellation is returned.
func (c *Chain) Get(ctx context.Context, videoID string) (string, string, error) {
	const op = "Chain.Get"
	logger := c.logger.WithField("video_id", videoID)

	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return "", "", errors.Internal(op, err, "Transcript lookup cancelled")
		}

		entry := logger.WithField("provider", p.Name())
		start := time.Now()

		raw, err := p.Fetch(ctx, videoID)
		if err != nil {
			if errors.IsUnavailable(err) {
				entry.WithError(err).Info("Provider has no transcript")
			} else {
				entry.WithError(err).Warn("Provider failed")
			}
			continue
		}

		text := Normalize(raw)
		if text == "" {
			entry.Info("Provider returned an empty transcript")
			continue
		}

		entry.WithFields(logrus.Fields{
			"kind":     raw.Kind.String(),
			"length":   len(text),
			"duration": time.Since(start),
		}).Info("Transcript acquired")
		return text, p.Name(), nil
	}

	if err := ctx.Err(); err != nil {
		return "", "", errors.Internal(op, err, "Transcript lookup cancelled")
	}
	return "", "", errors.NoTranscript(op, nil, "No transcript available for this video")
}
