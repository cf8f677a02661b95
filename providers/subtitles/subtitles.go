// Package subtitles downloads subtitle files listed by yt-dlp.
package subtitles

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/asticode/go-astisub"
	"github.com/nijaru/yt-summary/errors"
	"github.com/nijaru/yt-summary/retry"
	"github.com/nijaru/yt-summary/transcript"
	"github.com/nijaru/yt-summary/validation"
	"github.com/nijaru/yt-summary/ytdlp"
	"github.com/sirupsen/logrus"
)

const (
	Name        = "subtitles"
	maxBodySize = 16 << 20
)

// Extension preference when a language has several formats.
var preferredExts = []string{"vtt", "srt", "ttml"}

// MetadataSource lists the subtitle tracks of a video. *ytdlp.Runner
// implements it.
type MetadataSource interface {
	Metadata(ctx context.Context, url string) (*ytdlp.Metadata, error)
}

type Config struct {
	Language   string
	Timeout    time.Duration
	Retry      retry.Config
	HTTPClient *http.Client
}

type Provider struct {
	source   MetadataSource
	language string
	timeout  time.Duration
	retry    retry.Config
	client   *http.Client
	logger   *logrus.Logger
}

func New(source MetadataSource, cfg Config) *Provider {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Provider{
		source:   source,
		language: cfg.Language,
		timeout:  cfg.Timeout,
		retry:    cfg.Retry,
		client:   client,
		logger:   logrus.StandardLogger(),
	}
}

func (p *Provider) Name() string { return Name }

func (p *Provider) Fetch(ctx context.Context, videoID string) (*transcript.Raw, error) {
	const op = "subtitles.Fetch"

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	meta, err := retry.Do(ctx, p.retry, op+".metadata", func() (*ytdlp.Metadata, error) {
		return p.source.Metadata(ctx, validation.WatchURL(videoID))
	})
	if err != nil {
		return nil, err
	}

	track, ok := meta.PickTrack(p.language, preferredExts...)
	if !ok {
		return nil, errors.Unavailable(op, nil, "No subtitles for language "+p.language)
	}

	body, err := retry.Do(ctx, p.retry, op+".download", func() ([]byte, error) {
		return p.download(ctx, track.URL)
	})
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.Unavailable(op, nil, "Empty subtitle file")
	}

	p.logger.WithFields(logrus.Fields{
		"video_id": videoID,
		"ext":      track.Ext,
		"bytes":    len(body),
	}).Debug("Downloaded subtitles")

	if track.Ext == "ttml" {
		segments, err := parseTTML(body)
		if err != nil {
			return nil, errors.Unavailable(op, err, "Unreadable TTML subtitles")
		}
		return transcript.NewSegments(Name, segments), nil
	}
	return transcript.NewSubtitleDocument(Name, string(body)), nil
}

func (p *Provider) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
}

func parseTTML(body []byte) ([]transcript.Segment, error) {
	subs, err := astisub.ReadFromTTML(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	segments := make([]transcript.Segment, 0, len(subs.Items))
	for _, item := range subs.Items {
		var parts []string
		for _, line := range item.Lines {
			for _, li := range line.Items {
				parts = append(parts, li.Text)
			}
		}
		segments = append(segments, transcript.Segment{
			Start:    item.StartAt.Seconds(),
			Duration: (item.EndAt - item.StartAt).Seconds(),
			Text:     strings.Join(parts, " "),
		})
	}
	return segments, nil
}
