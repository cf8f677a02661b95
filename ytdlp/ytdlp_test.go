package ytdlp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func fakeExecCommand(ctx context.Context, name string, args ...string) *exec.Cmd {
	cs := []string{"-test.run=TestHelperProcess", "--", name}
	cs = append(cs, args...)
	cmd := exec.CommandContext(ctx, os.Args[0], cs...)
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
	return cmd
}

// TestHelperProcess stands in for yt-dlp when invoked by the fake command.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	args = args[2:]
	url := args[len(args)-1]

	if strings.Contains(url, "broken") {
		fmt.Fprint(os.Stderr, "ERROR: Video unavailable")
		os.Exit(1)
	}

	if args[0] == "--skip-download" {
		fmt.Print(`{"id":"dQw4w9WgXcQ","title":"Test","subtitles":{"en":[{"url":"http://x/en.vtt","ext":"vtt"}]},"automatic_captions":{"de":[{"url":"http://x/de.srt","ext":"srt"}]}}`)
		return
	}

	var template string
	for i, a := range args {
		if a == "-o" {
			template = args[i+1]
		}
	}
	path := strings.Replace(template, "%(ext)s", "mp3", 1)
	if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
		os.Exit(3)
	}
	fmt.Println("[download] done")
	fmt.Println(path)
}

func useFake(t *testing.T) {
	execCommandContext = fakeExecCommand
	t.Cleanup(func() { execCommandContext = exec.CommandContext })
}

func TestMetadata(t *testing.T) {
	useFake(t)

	meta, err := New("").Metadata(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if meta.ID != "dQw4w9WgXcQ" {
		t.Errorf("unexpected id %q", meta.ID)
	}
	if len(meta.Subtitles["en"]) != 1 || len(meta.AutomaticCaptions["de"]) != 1 {
		t.Errorf("unexpected subtitle maps %+v %+v", meta.Subtitles, meta.AutomaticCaptions)
	}
}

func TestMetadataFailure(t *testing.T) {
	useFake(t)

	_, err := New("yt-dlp").Metadata(context.Background(), "https://www.youtube.com/watch?v=broken00000")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "Video unavailable") {
		t.Errorf("expected stderr in error, got %v", err)
	}
}

func TestDownloadAudio(t *testing.T) {
	useFake(t)
	dir := t.TempDir()

	path, err := New("yt-dlp").DownloadAudio(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ", dir, "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if path != filepath.Join(dir, "dQw4w9WgXcQ.mp3") {
		t.Errorf("unexpected path %q", path)
	}
}

func TestPickTrack(t *testing.T) {
	meta := &Metadata{
		Subtitles: map[string][]Track{
			"en": {{URL: "http://x/en.json3", Ext: "json3"}, {URL: "http://x/en.srt", Ext: "srt"}},
		},
		AutomaticCaptions: map[string][]Track{
			"en": {{URL: "http://x/auto.vtt", Ext: "vtt"}},
			"fr": {{URL: "http://x/fr.ttml", Ext: "ttml"}, {URL: "http://x/fr.vtt", Ext: "vtt"}},
		},
	}

	tests := []struct {
		name    string
		lang    string
		wantURL string
		wantOK  bool
	}{
		{"manual preferred over auto", "en", "http://x/en.srt", true},
		{"extension preference", "fr", "http://x/fr.vtt", true},
		{"missing language", "de", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track, ok := meta.PickTrack(tt.lang, "vtt", "srt", "ttml")
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if track.URL != tt.wantURL {
				t.Errorf("expected %q, got %q", tt.wantURL, track.URL)
			}
		})
	}
}
