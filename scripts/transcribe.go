package scripts

import (
	"context"
)

// Transcribe runs local Whisper over an audio file.
func (r *ScriptRunner) Transcribe(ctx context.Context, audioPath string, opts TranscribeOptions) (*TranscriptionResult, error) {
	const op = "ScriptRunner.Transcribe"

	output, err := r.runScript(ctx, "transcribe.py", map[string]string{
		"file":     audioPath,
		"model":    opts.Model,
		"language": opts.Language,
	}, nil)
	if err != nil {
		return nil, newScriptError(op, err, "transcription failed")
	}

	var result TranscriptionResult
	if err := unmarshalResult(output, &result); err != nil {
		return nil, newScriptError(op, err, "failed to parse transcription result")
	}
	return &result, nil
}
