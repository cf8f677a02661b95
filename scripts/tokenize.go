package scripts

import (
	"context"
	"encoding/json"
)

// Tokenizer exposes the summarization model's tokenizer. It satisfies
// chunker.Tokenizer.
type Tokenizer struct {
	runner *ScriptRunner
	model  string
}

func (r *ScriptRunner) Tokenizer(model string) *Tokenizer {
	return &Tokenizer{runner: r, model: model}
}

// Encode returns token ids without special tokens.
func (t *Tokenizer) Encode(ctx context.Context, text string) ([]int, error) {
	const op = "Tokenizer.Encode"

	result, err := t.run(ctx, "encode", map[string]interface{}{"text": text})
	if err != nil {
		return nil, newScriptError(op, err, "encode failed")
	}
	return result.IDs, nil
}

func (t *Tokenizer) Decode(ctx context.Context, ids []int) (string, error) {
	const op = "Tokenizer.Decode"

	result, err := t.run(ctx, "decode", map[string]interface{}{"ids": ids})
	if err != nil {
		return "", newScriptError(op, err, "decode failed")
	}
	return result.Text, nil
}

func (t *Tokenizer) run(ctx context.Context, mode string, payload map[string]interface{}) (*TokenizeResult, error) {
	input, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	output, err := t.runner.runScript(ctx, "tokenize.py", map[string]string{
		"model": t.model,
		"mode":  mode,
	}, input)
	if err != nil {
		return nil, err
	}

	var result TokenizeResult
	if err := unmarshalResult(output, &result); err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, newScriptError("Tokenizer.run", nil, result.Error)
	}
	return &result, nil
}
