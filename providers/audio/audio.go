// Package audio is the last resort provider: it downloads the audio track
// and transcribes it locally with Whisper.
package audio

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/nijaru/yt-summary/errors"
	"github.com/nijaru/yt-summary/scripts"
	"github.com/nijaru/yt-summary/transcript"
	"github.com/nijaru/yt-summary/validation"
	"github.com/sirupsen/logrus"
)

const Name = "audio"

// Downloader is implemented by *ytdlp.Runner.
type Downloader interface {
	DownloadAudio(ctx context.Context, url, dir, name string) (string, error)
}

// Transcriber is implemented by *scripts.ScriptRunner.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, opts scripts.TranscribeOptions) (*scripts.TranscriptionResult, error)
}

type Config struct {
	TempDir  string
	Timeout  time.Duration
	Model    string
	Language string
}

type Provider struct {
	downloader  Downloader
	transcriber Transcriber
	config      Config
	logger      *logrus.Logger
}

func New(d Downloader, t Transcriber, cfg Config) *Provider {
	return &Provider{
		downloader:  d,
		transcriber: t,
		config:      cfg,
		logger:      logrus.StandardLogger(),
	}
}

func (p *Provider) Name() string { return Name }

func (p *Provider) Fetch(ctx context.Context, videoID string) (*transcript.Raw, error) {
	const op = "audio.Fetch"

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp(p.config.TempDir, "yt-summary-"+videoID+"-")
	if err != nil {
		return nil, errors.Internal(op, err, "Failed to create temp directory")
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			p.logger.WithError(err).WithField("dir", dir).Warn("Failed to remove temp directory")
		}
	}()

	logger := p.logger.WithFields(logrus.Fields{
		"video_id": videoID,
		"model":    p.config.Model,
	})

	start := time.Now()
	audioPath, err := p.downloader.DownloadAudio(ctx, validation.WatchURL(videoID), dir, videoID)
	if err != nil {
		return nil, errors.Unavailable(op, err, "Audio download failed")
	}
	logger.WithField("duration", time.Since(start)).Debug("Downloaded audio")

	result, err := p.transcriber.Transcribe(ctx, audioPath, scripts.TranscribeOptions{
		Model:    p.config.Model,
		Language: p.config.Language,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Unavailable(op, err, "Transcription failed")
	}
	if result.Error != "" {
		return nil, errors.Unavailable(op, nil, result.Error)
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		return nil, errors.Unavailable(op, nil, "Transcription produced no text")
	}

	logger.WithFields(logrus.Fields{
		"duration": time.Since(start),
		"language": result.Language,
	}).Info("Transcribed audio")

	return transcript.NewPlainText(Name, text), nil
}
