package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var execCommandContext = exec.CommandContext

type Track struct {
	URL  string `json:"url"`
	Ext  string `json:"ext"`
	Name string `json:"name,omitempty"`
}

// Metadata is the subset of `yt-dlp --dump-single-json` output used here.
type Metadata struct {
	ID                string             `json:"id"`
	Title             string             `json:"title"`
	Duration          float64            `json:"duration"`
	Subtitles         map[string][]Track `json:"subtitles"`
	AutomaticCaptions map[string][]Track `json:"automatic_captions"`
}

type Runner struct {
	path   string
	logger *logrus.Logger
}

func New(path string) *Runner {
	if path == "" {
		path = "yt-dlp"
	}
	return &Runner{path: path, logger: logrus.StandardLogger()}
}

// Metadata fetches video metadata, including subtitle track maps, without
// downloading any media.
func (r *Runner) Metadata(ctx context.Context, url string) (*Metadata, error) {
	out, err := r.run(ctx, "--skip-download", "--dump-single-json", "--no-warnings", "--no-playlist", url)
	if err != nil {
		return nil, err
	}

	var meta Metadata
	if err := json.Unmarshal(out, &meta); err != nil {
		return nil, errors.Wrap(err, "failed to parse yt-dlp metadata")
	}
	return &meta, nil
}

// DownloadAudio downloads the audio stream of url into dir and returns the
// path of the resulting file. The caller owns dir.
func (r *Runner) DownloadAudio(ctx context.Context, url, dir, name string) (string, error) {
	template := filepath.Join(dir, name+".%(ext)s")
	out, err := r.run(ctx,
		"-f", "bestaudio",
		"-x", "--audio-format", "mp3",
		"--no-playlist", "--no-warnings", "--no-progress",
		"-o", template,
		"--print", "after_move:filepath",
		url,
	)
	if err != nil {
		return "", err
	}

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	path := strings.TrimSpace(lines[len(lines)-1])
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	// Older yt-dlp builds do not support --print after_move.
	matches, _ := filepath.Glob(filepath.Join(dir, name+".*"))
	if len(matches) > 0 {
		return matches[0], nil
	}
	return "", errors.Errorf("yt-dlp reported success but no audio file was written to %s", dir)
}

func (r *Runner) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := execCommandContext(ctx, r.path, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.WithField("args", args).Debug("Running yt-dlp")

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.Wrapf(err, "yt-dlp failed: %s", strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// PickTrack returns the preferred track for lang. Manual subtitles win over
// automatic captions, and within a map the first extension in exts that is
// present wins.
func (m *Metadata) PickTrack(lang string, exts ...string) (Track, bool) {
	for _, tracks := range []map[string][]Track{m.Subtitles, m.AutomaticCaptions} {
		if t, ok := pickFrom(tracks[lang], exts); ok {
			return t, true
		}
	}
	return Track{}, false
}

func pickFrom(tracks []Track, exts []string) (Track, bool) {
	for _, ext := range exts {
		for _, t := range tracks {
			if t.Ext == ext && t.URL != "" {
				return t, true
			}
		}
	}
	return Track{}, false
}
