package summary

import (
	"context"
	"fmt"

	"github.com/nijaru/yt-summary/scripts"
)

// ScriptRunner is implemented by *scripts.ScriptRunner.
type ScriptRunner interface {
	Summarize(ctx context.Context, text string, opts scripts.SummarizeOptions) (*scripts.SummaryResult, error)
	SummarizeWindows(ctx context.Context, windows [][]int, opts scripts.SummarizeOptions) (*scripts.WindowSummaryResult, error)
}

// ScriptSummarizer runs the local BART model through summarize.py.
type ScriptSummarizer struct {
	runner ScriptRunner
	model  string
}

func NewScriptSummarizer(runner ScriptRunner, model string) *ScriptSummarizer {
	return &ScriptSummarizer{runner: runner, model: model}
}

func (s *ScriptSummarizer) Summarize(ctx context.Context, text string, opts Options) (string, error) {
	result, err := s.runner.Summarize(ctx, text, s.options(opts))
	if err != nil {
		return "", err
	}
	if result.Error != "" {
		return "", fmt.Errorf("summarization failed: %s", result.Error)
	}
	return result.Summary, nil
}

// SummarizeWindows runs every window through one summarize.py process.
func (s *ScriptSummarizer) SummarizeWindows(ctx context.Context, windows [][]int, opts Options) ([]string, error) {
	result, err := s.runner.SummarizeWindows(ctx, windows, s.options(opts))
	if err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, fmt.Errorf("summarization failed: %s", result.Error)
	}
	return result.Summaries, nil
}

func (s *ScriptSummarizer) options(opts Options) scripts.SummarizeOptions {
	return scripts.SummarizeOptions{
		Model:     s.model,
		MaxLength: opts.MaxLength,
		MinLength: opts.MinLength,
		Sample:    opts.Sample,
	}
}
