package scripts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config holds the configuration for the ScriptRunner
type Config struct {
	UVPath      string   // uv executable
	ScriptsPath string   // directory holding the Python helpers
	Environment []string // additional environment variables
}

// requiredScripts are checked at construction so a broken install fails at
// startup rather than on the first request.
var requiredScripts = []string{"transcribe.py", "summarize.py", "tokenize.py"}

var execCommandContext = exec.CommandContext

// ScriptRunner runs the Python helpers through `uv run` and decodes their
// JSON output.
type ScriptRunner struct {
	config Config
	logger *logrus.Logger
}

func NewScriptRunner(cfg Config) (*ScriptRunner, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return &ScriptRunner{
		config: cfg,
		logger: logrus.StandardLogger(),
	}, nil
}

func validateConfig(cfg Config) error {
	if cfg.UVPath == "" {
		return errors.New("uv path is required")
	}
	if cfg.ScriptsPath == "" {
		return errors.New("scripts path is required")
	}
	if _, err := os.Stat(cfg.ScriptsPath); os.IsNotExist(err) {
		return errors.Errorf("scripts directory does not exist: %s", cfg.ScriptsPath)
	}
	for _, script := range requiredScripts {
		path := filepath.Join(cfg.ScriptsPath, script)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return errors.Errorf("required script not found: %s", path)
		}
	}
	return nil
}

// runScript executes scriptName with args as --key=value flags. When input is
// not nil it is written to the script's stdin.
func (r *ScriptRunner) runScript(
	ctx context.Context,
	scriptName string,
	args map[string]string,
	input []byte,
) ([]byte, error) {
	const op = "ScriptRunner.runScript"
	scriptPath := filepath.Join(r.config.ScriptsPath, scriptName)

	cmdArgs := buildCommandArgs(scriptPath, args)

	logger := r.logger.WithFields(logrus.Fields{
		"script": scriptName,
		"args":   redact(args),
	})
	logger.Debug("Executing script")

	cmd := execCommandContext(ctx, r.config.UVPath, cmdArgs...)
	cmd.Dir = r.config.ScriptsPath
	cmd.Env = append(os.Environ(), r.config.Environment...)
	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, newScriptError(op, ctxErr, "script cancelled")
		}
		logger.WithFields(logrus.Fields{
			"error":  err,
			"stderr": stderr.String(),
		}).Error("Script execution failed")
		return nil, newScriptError(op, errors.Wrapf(err, "stderr: %s", stderr.String()), "script execution failed")
	}

	output := stdout.Bytes()
	if !json.Valid(output) {
		logger.WithField("output", stdout.String()).Error("Invalid JSON output")
		return nil, newScriptError(op, nil, fmt.Sprintf("%s produced invalid JSON", scriptName))
	}

	return output, nil
}

func buildCommandArgs(scriptPath string, args map[string]string) []string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cmdArgs := []string{"run", scriptPath}
	for _, k := range keys {
		if v := args[k]; v != "" {
			cmdArgs = append(cmdArgs, fmt.Sprintf("--%s=%s", k, v))
		}
	}
	return append(cmdArgs, "--json")
}

func redact(args map[string]string) map[string]string {
	out := make(map[string]string, len(args))
	for k, v := range args {
		if len(v) > 200 {
			v = v[:200] + "..."
		}
		out[k] = v
	}
	return out
}

func unmarshalResult(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, "failed to unmarshal result")
	}
	return nil
}
