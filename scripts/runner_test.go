package scripts

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func fakeExecCommand(ctx context.Context, name string, args ...string) *exec.Cmd {
	cs := []string{"-test.run=TestHelperProcess", "--", name}
	cs = append(cs, args...)
	return exec.CommandContext(ctx, os.Args[0], cs...)
}

// TestHelperProcess stands in for `uv run <script>` when invoked by the fake
// command. It is not a real test.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	// -- uv run <script> flags...
	if len(args) < 4 {
		fmt.Fprintln(os.Stderr, "missing script")
		os.Exit(2)
	}
	script := filepath.Base(args[3])
	flags := map[string]string{}
	for _, a := range args[4:] {
		k, v, _ := strings.Cut(strings.TrimPrefix(a, "--"), "=")
		flags[k] = v
	}

	var payload map[string]json.RawMessage
	if script != "transcribe.py" {
		data, _ := io.ReadAll(os.Stdin)
		_ = json.Unmarshal(data, &payload)
	}

	switch script {
	case "transcribe.py":
		if flags["file"] == "fail.mp3" {
			fmt.Fprint(os.Stderr, "whisper exploded")
			os.Exit(1)
		}
		fmt.Printf(`{"text":"hello from %s","model_name":%q,"language":%q}`, filepath.Base(flags["file"]), flags["model"], flags["language"])
	case "summarize.py":
		if raw, ok := payload["windows"]; ok {
			var windows [][]int
			_ = json.Unmarshal(raw, &windows)
			summaries := make([]string, 0, len(windows))
			for i, ids := range windows {
				if len(ids) > 0 && ids[0] < 0 {
					fmt.Printf(`{"summaries":[],"model_name":%q,"error":"chunk %d: out of memory"}`, flags["model"], i+1)
					return
				}
				summaries = append(summaries, fmt.Sprintf("s%d(%d,%s)", i+1, len(ids), flags["max_length"]))
			}
			out, _ := json.Marshal(map[string]interface{}{"summaries": summaries, "model_name": flags["model"]})
			os.Stdout.Write(out)
			return
		}
		var text string
		_ = json.Unmarshal(payload["text"], &text)
		if text == "garbage" {
			fmt.Print("not json")
			return
		}
		fmt.Printf(`{"summary":"summary(%d,%s,%s,%s)","model_name":%q}`, len(strings.Fields(text)), flags["max_length"], flags["min_length"], flags["do_sample"], flags["model"])
	case "tokenize.py":
		switch flags["mode"] {
		case "encode":
			var text string
			_ = json.Unmarshal(payload["text"], &text)
			ids := make([]int, len(strings.Fields(text)))
			for i := range ids {
				ids[i] = i
			}
			out, _ := json.Marshal(map[string][]int{"ids": ids})
			os.Stdout.Write(out)
		case "decode":
			var ids []int
			_ = json.Unmarshal(payload["ids"], &ids)
			parts := make([]string, len(ids))
			for i, id := range ids {
				parts[i] = fmt.Sprintf("t%d", id)
			}
			fmt.Printf(`{"text":%q}`, strings.Join(parts, " "))
		default:
			fmt.Print(`{"error":"unknown mode"}`)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown script %s", script)
		os.Exit(2)
	}
}

func newTestRunner(t *testing.T) *ScriptRunner {
	t.Helper()

	dir := t.TempDir()
	for _, name := range requiredScripts {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("# stub"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	execCommandContext = fakeExecCommand
	t.Cleanup(func() { execCommandContext = exec.CommandContext })

	runner, err := NewScriptRunner(Config{UVPath: "uv", ScriptsPath: dir})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return runner
}

func TestNewScriptRunnerValidation(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing uv", Config{ScriptsPath: dir}},
		{"missing path", Config{UVPath: "uv"}},
		{"nonexistent dir", Config{UVPath: "uv", ScriptsPath: filepath.Join(dir, "nope")}},
		{"missing scripts", Config{UVPath: "uv", ScriptsPath: dir}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewScriptRunner(tt.cfg); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestBuildCommandArgs(t *testing.T) {
	got := buildCommandArgs("/s/summarize.py", map[string]string{
		"model":      "m",
		"max_length": "180",
		"empty":      "",
	})
	want := []string{"run", "/s/summarize.py", "--max_length=180", "--model=m", "--json"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestTranscribe(t *testing.T) {
	runner := newTestRunner(t)

	result, err := runner.Transcribe(context.Background(), "/tmp/audio/abc.mp3", TranscribeOptions{Model: "small", Language: "en"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Text != "hello from abc.mp3" {
		t.Errorf("unexpected text %q", result.Text)
	}
	if result.ModelName != "small" || result.Language != "en" {
		t.Errorf("unexpected model/language %q/%q", result.ModelName, result.Language)
	}
}

func TestTranscribeFailure(t *testing.T) {
	runner := newTestRunner(t)

	_, err := runner.Transcribe(context.Background(), "fail.mp3", TranscribeOptions{Model: "small"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "whisper exploded") {
		t.Errorf("expected stderr in error, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	runner := newTestRunner(t)

	result, err := runner.Summarize(context.Background(), "one two three", SummarizeOptions{
		Model:     "sshleifer/distilbart-cnn-12-6",
		MaxLength: 180,
		MinLength: 30,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	expected := "summary(3,180,30,false)"
	if result.Summary != expected {
		t.Errorf("expected %q, got %q", expected, result.Summary)
	}
}

func TestSummarizeInvalidJSON(t *testing.T) {
	runner := newTestRunner(t)

	_, err := runner.Summarize(context.Background(), "garbage", SummarizeOptions{MaxLength: 10})
	if err == nil {
		t.Fatal("expected an error for invalid JSON output")
	}
	var scriptErr *ScriptError
	if !stderrors.As(err, &scriptErr) {
		t.Errorf("expected a ScriptError, got %T", err)
	}
}

func TestSummarizeWindows(t *testing.T) {
	runner := newTestRunner(t)
	opts := SummarizeOptions{Model: "m", MaxLength: 180, MinLength: 30}

	result, err := runner.SummarizeWindows(context.Background(), [][]int{{1, 2, 3}, {4, 5}}, opts)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	expected := []string{"s1(3,180)", "s2(2,180)"}
	if strings.Join(result.Summaries, "|") != strings.Join(expected, "|") {
		t.Errorf("expected %v, got %v", expected, result.Summaries)
	}
	if result.ModelName != "m" {
		t.Errorf("unexpected model %q", result.ModelName)
	}

	result, err = runner.SummarizeWindows(context.Background(), [][]int{{1}, {-1}}, opts)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Error != "chunk 2: out of memory" {
		t.Errorf("expected the failing chunk in the error, got %q", result.Error)
	}
}

func TestTokenizer(t *testing.T) {
	runner := newTestRunner(t)
	tok := runner.Tokenizer("model")

	ids, err := tok.Encode(context.Background(), "a b c")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(ids) != 3 || ids[2] != 2 {
		t.Errorf("unexpected ids %v", ids)
	}

	text, err := tok.Decode(context.Background(), []int{4, 5})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if text != "t4 t5" {
		t.Errorf("expected %q, got %q", "t4 t5", text)
	}
}
