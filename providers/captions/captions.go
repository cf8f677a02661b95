// Package captions fetches official caption tracks through the YouTube Data
// API.
package captions

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/nijaru/yt-summary/errors"
	"github.com/nijaru/yt-summary/retry"
	"github.com/nijaru/yt-summary/transcript"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const Name = "captions"

type Config struct {
	APIKey     string
	OAuthToken string
	Language   string
	Timeout    time.Duration
	Retry      retry.Config
}

type Provider struct {
	service  *youtube.Service
	language string
	timeout  time.Duration
	retry    retry.Config
	logger   *logrus.Logger
}

// New builds the provider. An OAuth token, when present, replaces the API key
// since caption downloads require an authorized caller for most videos and the
// client rejects more than one credential. Extra client options are appended
// last.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Provider, error) {
	const op = "captions.New"

	clientOpts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.OAuthToken != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.OAuthToken})
		clientOpts = []option.ClientOption{option.WithTokenSource(ts)}
	}
	clientOpts = append(clientOpts, opts...)

	service, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, errors.Internal(op, err, "Failed to create YouTube client")
	}

	return &Provider{
		service:  service,
		language: cfg.Language,
		timeout:  cfg.Timeout,
		retry:    cfg.Retry,
		logger:   logrus.StandardLogger(),
	}, nil
}

func (p *Provider) Name() string { return Name }

func (p *Provider) Fetch(ctx context.Context, videoID string) (*transcript.Raw, error) {
	const op = "captions.Fetch"

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	trackID, err := retry.Do(ctx, p.retry, op+".list", func() (string, error) {
		return p.findTrack(ctx, videoID)
	})
	if err != nil {
		return nil, err
	}

	body, err := retry.Do(ctx, p.retry, op+".download", func() (string, error) {
		return p.download(ctx, trackID)
	})
	if err != nil {
		return nil, err
	}

	p.logger.WithFields(logrus.Fields{
		"video_id": videoID,
		"track_id": trackID,
		"bytes":    len(body),
	}).Debug("Downloaded caption track")

	return transcript.NewMarkup(Name, body), nil
}

func (p *Provider) findTrack(ctx context.Context, videoID string) (string, error) {
	const op = "captions.findTrack"

	resp, err := p.service.Captions.List([]string{"id", "snippet"}, videoID).Context(ctx).Do()
	if err != nil {
		return "", classify(op, err)
	}
	if len(resp.Items) == 0 {
		return "", errors.Unavailable(op, nil, "No caption tracks")
	}

	for _, item := range resp.Items {
		if item.Snippet != nil && item.Snippet.Language == p.language {
			return item.Id, nil
		}
	}
	return resp.Items[0].Id, nil
}

func (p *Provider) download(ctx context.Context, trackID string) (string, error) {
	const op = "captions.download"

	resp, err := p.service.Captions.Download(trackID).Tfmt("ttml").Context(ctx).Download()
	if err != nil {
		return "", classify(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// classify turns quota, authorization and missing-video responses into
// unavailability. Everything else stays a transport error.
func classify(op string, err error) error {
	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return errors.Unavailable(op, err, "Captions not accessible")
		}
		if !retry.Retryable(apiErr.Code) {
			return retry.Permanent(err)
		}
	}
	return err
}
