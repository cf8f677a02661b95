package summary

import (
	"context"

	"github.com/nijaru/yt-summary/chunker"
	"github.com/nijaru/yt-summary/config"
	"github.com/nijaru/yt-summary/errors"
	"github.com/nijaru/yt-summary/scripts"
)

// New builds the summarizer for the configured backend together with the
// tokenizer its chunks must be measured in.
func New(ctx context.Context, cfg config.SummaryConfig, runner *scripts.ScriptRunner) (Summarizer, chunker.Tokenizer, error) {
	const op = "summary.New"

	switch cfg.Backend {
	case config.BackendGemini:
		s, err := NewGeminiSummarizer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, errors.Internal(op, err, "Failed to create Gemini summarizer")
		}
		return s, chunker.NewWordTokenizer(), nil
	case config.BackendScript, "":
		if runner == nil {
			return nil, nil, errors.Internal(op, nil, "Script backend requires a script runner")
		}
		return NewScriptSummarizer(runner, cfg.Model), runner.Tokenizer(cfg.Model), nil
	default:
		return nil, nil, errors.InvalidInput(op, nil, "Unknown summary backend "+cfg.Backend)
	}
}
