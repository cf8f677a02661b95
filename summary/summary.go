// Package summary turns token chunks into a single summary by summarizing
// each chunk in order and joining the fragments.
package summary

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/nijaru/yt-summary/chunker"
	"github.com/nijaru/yt-summary/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxLength = 180
	DefaultMinLength = 30
)

// Summarizer produces a summary of one chunk of text.
type Summarizer interface {
	Summarize(ctx context.Context, text string, opts Options) (string, error)
}

// WindowSummarizer summarizes all token windows of one transcript in a single
// call, in order, returning one fragment per window. Implementations decode
// the windows with the vocabulary they were encoded in and stop at the first
// failing window.
type WindowSummarizer interface {
	SummarizeWindows(ctx context.Context, windows [][]int, opts Options) ([]string, error)
}

// Options bound the length of one fragment, in model tokens. Sample false
// means greedy decoding.
type Options struct {
	MaxLength int
	MinLength int
	Sample    bool
}

type Config struct {
	MaxLength int
	MinLength int
	Sample    bool
	Timeout   time.Duration
}

type Orchestrator struct {
	summarizer Summarizer
	opts       Options
	timeout    time.Duration
	logger     *logrus.Logger
}

// NewOrchestrator applies the default length bounds to unset values.
// Explicit bounds are validated by config.Validate.
func NewOrchestrator(s Summarizer, cfg Config) *Orchestrator {
	if cfg.MaxLength == 0 {
		cfg.MaxLength = DefaultMaxLength
	}
	if cfg.MinLength == 0 {
		cfg.MinLength = DefaultMinLength
	}
	return &Orchestrator{
		summarizer: s,
		opts: Options{
			MaxLength: cfg.MaxLength,
			MinLength: cfg.MinLength,
			Sample:    cfg.Sample,
		},
		timeout: cfg.Timeout,
		logger:  logrus.StandardLogger(),
	}
}

// Summarize decodes and summarizes every chunk in order. The first failure
// aborts the run; partial summaries are never returned. A WindowSummarizer
// gets all windows in one call.
func (o *Orchestrator) Summarize(ctx context.Context, chunks chunker.Chunks) (string, error) {
	const op = "Orchestrator.Summarize"

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	if ws, ok := o.summarizer.(WindowSummarizer); ok && chunks.Len() > 0 {
		return o.summarizeWindows(ctx, ws, chunks)
	}

	total := chunks.Len()
	fragments := make([]string, 0, total)
	i := 0
	for ids := range chunks.All() {
		i++
		select {
		case <-ctx.Done():
			return "", errors.Internal(op, ctx.Err(), "Summary creation cancelled")
		default:
		}

		o.logger.WithFields(logrus.Fields{
			"chunk": i,
			"total": total,
		}).Debug("Processing chunk")

		text, err := chunks.Decode(ctx, ids)
		if err != nil {
			return "", errors.Summarization(op, err, "Failed to decode chunk")
		}

		fragment, err := o.summarizer.Summarize(ctx, text, o.opts)
		if err != nil {
			return "", errors.Summarization(op, err, "Failed to summarize chunk")
		}
		fragments = append(fragments, strings.TrimSpace(fragment))
	}

	return strings.Join(fragments, " "), nil
}

func (o *Orchestrator) summarizeWindows(ctx context.Context, ws WindowSummarizer, chunks chunker.Chunks) (string, error) {
	const op = "Orchestrator.summarizeWindows"

	if err := ctx.Err(); err != nil {
		return "", errors.Internal(op, err, "Summary creation cancelled")
	}

	windows := slices.Collect(chunks.All())
	o.logger.WithFields(logrus.Fields{
		"total":  len(windows),
		"tokens": chunks.Tokens(),
	}).Debug("Summarizing all chunks in one batch")

	fragments, err := ws.SummarizeWindows(ctx, windows, o.opts)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", errors.Internal(op, ctxErr, "Summary creation cancelled")
		}
		return "", errors.Summarization(op, err, "Failed to summarize chunk")
	}
	if len(fragments) != len(windows) {
		err := fmt.Errorf("got %d fragments for %d chunks", len(fragments), len(windows))
		return "", errors.Summarization(op, err, "Failed to summarize chunk")
	}

	for i, f := range fragments {
		fragments[i] = strings.TrimSpace(f)
	}
	return strings.Join(fragments, " "), nil
}
