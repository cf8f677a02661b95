package scripts

import (
	"context"
	"encoding/json"
	"strconv"
)

// Summarize runs the summarization model over one piece of text. The text is
// passed on stdin since transcripts can exceed the argument size limit.
func (r *ScriptRunner) Summarize(ctx context.Context, text string, opts SummarizeOptions) (*SummaryResult, error) {
	const op = "ScriptRunner.Summarize"

	input, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, newScriptError(op, err, "failed to encode input")
	}

	output, err := r.runScript(ctx, "summarize.py", summarizeArgs(opts), input)
	if err != nil {
		return nil, newScriptError(op, err, "summarization failed")
	}

	var result SummaryResult
	if err := unmarshalResult(output, &result); err != nil {
		return nil, newScriptError(op, err, "failed to parse summary result")
	}
	return &result, nil
}

// SummarizeWindows summarizes every token window in one run of summarize.py,
// so the model and its tokenizer load once. Windows are decoded by the
// model's own tokenizer and summarized in order; the script stops at the
// first failing window.
func (r *ScriptRunner) SummarizeWindows(ctx context.Context, windows [][]int, opts SummarizeOptions) (*WindowSummaryResult, error) {
	const op = "ScriptRunner.SummarizeWindows"

	input, err := json.Marshal(map[string][][]int{"windows": windows})
	if err != nil {
		return nil, newScriptError(op, err, "failed to encode input")
	}

	output, err := r.runScript(ctx, "summarize.py", summarizeArgs(opts), input)
	if err != nil {
		return nil, newScriptError(op, err, "summarization failed")
	}

	var result WindowSummaryResult
	if err := unmarshalResult(output, &result); err != nil {
		return nil, newScriptError(op, err, "failed to parse summary result")
	}
	return &result, nil
}

func summarizeArgs(opts SummarizeOptions) map[string]string {
	return map[string]string{
		"model":      opts.Model,
		"max_length": strconv.Itoa(opts.MaxLength),
		"min_length": strconv.Itoa(opts.MinLength),
		"do_sample":  strconv.FormatBool(opts.Sample),
	}
}
