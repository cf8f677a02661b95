// Package scraped reads the caption tracks advertised on a video's watch page
// and downloads the timed text for the configured language.
package scraped

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/nijaru/yt-summary/errors"
	"github.com/nijaru/yt-summary/retry"
	"github.com/nijaru/yt-summary/transcript"
	"github.com/sirupsen/logrus"
)

const (
	Name          = "scraped"
	playerRespVar = "ytInitialPlayerResponse"
	userAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxBodySize   = 16 << 20
)

type Config struct {
	BaseURL    string
	Language   string
	Timeout    time.Duration
	Retry      retry.Config
	HTTPClient *http.Client
}

type Provider struct {
	baseURL  string
	language string
	timeout  time.Duration
	retry    retry.Config
	client   *http.Client
	logger   *logrus.Logger
}

func New(cfg Config) *Provider {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://www.youtube.com"
	}
	return &Provider{
		baseURL:  base,
		language: cfg.Language,
		timeout:  cfg.Timeout,
		retry:    cfg.Retry,
		client:   client,
		logger:   logrus.StandardLogger(),
	}
}

func (p *Provider) Name() string { return Name }

func (p *Provider) Fetch(ctx context.Context, videoID string) (*transcript.Raw, error) {
	const op = "scraped.Fetch"

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	watchURL := p.baseURL + "/watch?v=" + url.QueryEscape(videoID)
	page, err := retry.Do(ctx, p.retry, op+".watch", func() ([]byte, error) {
		return p.get(ctx, watchURL, "text/html")
	})
	if err != nil {
		return nil, err
	}

	tracks, err := captionTracks(page)
	if err != nil {
		return nil, err
	}

	track, ok := pickTrack(tracks, p.language)
	if !ok {
		return nil, errors.Unavailable(op, nil, "No transcript for language "+p.language)
	}

	body, err := retry.Do(ctx, p.retry, op+".timedtext", func() ([]byte, error) {
		return p.get(ctx, track.BaseURL, "application/xml")
	})
	if err != nil {
		return nil, err
	}

	segments, err := parseTimedText(body)
	if err != nil {
		return nil, errors.Unavailable(op, err, "Unreadable timed text")
	}
	if len(segments) == 0 {
		return nil, errors.Unavailable(op, nil, "Empty timed text")
	}

	p.logger.WithFields(logrus.Fields{
		"video_id": videoID,
		"language": track.LanguageCode,
		"kind":     track.Kind,
		"segments": len(segments),
	}).Debug("Scraped transcript")

	return transcript.NewSegments(Name, segments), nil
}

func (p *Provider) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", p.language+";q=1.0,en;q=0.5")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type playerResponse struct {
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

// captionTracks finds the player response embedded in the watch page and
// returns its caption tracks.
func captionTracks(page []byte) ([]captionTrack, error) {
	const op = "scraped.captionTracks"

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, errors.Unavailable(op, err, "Unparsable watch page")
	}

	var raw string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		idx := strings.Index(text, playerRespVar)
		if idx < 0 {
			return true
		}
		raw = extractObject(text[idx+len(playerRespVar):])
		return raw == ""
	})
	if raw == "" {
		return nil, errors.Unavailable(op, nil, "No player response on watch page")
	}

	var pr playerResponse
	if err := json.Unmarshal([]byte(raw), &pr); err != nil {
		return nil, errors.Unavailable(op, err, "Malformed player response")
	}

	tracks := pr.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, errors.Unavailable(op, nil, "Video has no caption tracks")
	}
	return tracks, nil
}

// extractObject returns the first balanced JSON object in s, or "".
func extractObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// pickTrack prefers a manually created track over automatic speech
// recognition for the same language.
func pickTrack(tracks []captionTrack, lang string) (captionTrack, bool) {
	var asr *captionTrack
	for i := range tracks {
		t := tracks[i]
		if !sameLanguage(t.LanguageCode, lang) || t.BaseURL == "" {
			continue
		}
		if t.Kind != "asr" {
			return t, true
		}
		if asr == nil {
			asr = &tracks[i]
		}
	}
	if asr != nil {
		return *asr, true
	}
	return captionTrack{}, false
}

// sameLanguage matches "en" against "en" and regional variants like "en-GB".
func sameLanguage(code, lang string) bool {
	code, lang = strings.ToLower(code), strings.ToLower(lang)
	return code == lang || strings.HasPrefix(code, lang+"-")
}

type timedTextLegacy struct {
	Texts []struct {
		Start float64 `xml:"start,attr"`
		Dur   float64 `xml:"dur,attr"`
		Body  string  `xml:",chardata"`
	} `xml:"text"`
}

type timedTextSrv3 struct {
	Body struct {
		Paragraphs []struct {
			T     float64 `xml:"t,attr"`
			D     float64 `xml:"d,attr"`
			Inner string  `xml:",innerxml"`
		} `xml:"p"`
	} `xml:"body"`
}

// parseTimedText reads both the legacy <transcript><text> format and the
// srv3 <timedtext><body><p> format. Times in srv3 are milliseconds.
func parseTimedText(body []byte) ([]transcript.Segment, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, nil
	}

	if strings.Contains(trimmed, "<timedtext") {
		var doc timedTextSrv3
		if err := xml.Unmarshal([]byte(trimmed), &doc); err != nil {
			return nil, err
		}
		segments := make([]transcript.Segment, 0, len(doc.Body.Paragraphs))
		for _, p := range doc.Body.Paragraphs {
			segments = append(segments, transcript.Segment{
				Start:    p.T / 1000,
				Duration: p.D / 1000,
				Text:     p.Inner,
			})
		}
		return segments, nil
	}

	var doc timedTextLegacy
	if err := xml.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, err
	}
	segments := make([]transcript.Segment, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		segments = append(segments, transcript.Segment{
			Start:    t.Start,
			Duration: t.Dur,
			Text:     t.Body,
		})
	}
	return segments, nil
}
