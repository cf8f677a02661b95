package subtitles

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nijaru/yt-summary/errors"
	"github.com/nijaru/yt-summary/retry"
	"github.com/nijaru/yt-summary/transcript"
	"github.com/nijaru/yt-summary/ytdlp"
)

const vttDoc = `WEBVTT
Kind: captions
Language: en

1
00:00:01.000 --> 00:00:02.000
Hello <c>world</c>

2
00:00:02.000 --> 00:00:03.000
again
`

const ttmlDoc = `<?xml version="1.0" encoding="utf-8"?>
<tt xmlns="http://www.w3.org/ns/ttml" xml:lang="en">
<body><div>
<p begin="00:00:01.000" end="00:00:02.500">Hello there</p>
<p begin="00:00:02.500" end="00:00:04.000">friend</p>
</div></body>
</tt>`

type fakeSource struct {
	meta  *ytdlp.Metadata
	err   error
	calls int
	url   string
}

func (f *fakeSource) Metadata(ctx context.Context, url string) (*ytdlp.Metadata, error) {
	f.calls++
	f.url = url
	return f.meta, f.err
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/en.vtt":
			fmt.Fprint(w, vttDoc)
		case "/en.ttml":
			fmt.Fprint(w, ttmlDoc)
		case "/auto.vtt":
			fmt.Fprint(w, "WEBVTT\n\n00:00:00.000 --> 00:00:01.000\nauto text\n")
		case "/empty.vtt":
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newProvider(srv *httptest.Server, src MetadataSource) *Provider {
	return New(src, Config{
		Language:   "en",
		Timeout:    5 * time.Second,
		Retry:      retry.Config{MaxTries: 2, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond},
		HTTPClient: srv.Client(),
	})
}

func TestFetchVTT(t *testing.T) {
	srv := newServer(t)
	src := &fakeSource{meta: &ytdlp.Metadata{
		Subtitles: map[string][]ytdlp.Track{
			"en": {{URL: srv.URL + "/en.ttml", Ext: "ttml"}, {URL: srv.URL + "/en.vtt", Ext: "vtt"}},
		},
		AutomaticCaptions: map[string][]ytdlp.Track{
			"en": {{URL: srv.URL + "/auto.vtt", Ext: "vtt"}},
		},
	}}

	raw, err := newProvider(srv, src).Fetch(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if src.url != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("unexpected metadata url %q", src.url)
	}
	if raw.Kind != transcript.SubtitleDocument {
		t.Fatalf("expected subtitle document, got %v", raw.Kind)
	}
	if got := transcript.Normalize(raw); got != "Hello world again" {
		t.Errorf("unexpected normalized text %q", got)
	}
}

func TestFetchAutomaticFallback(t *testing.T) {
	srv := newServer(t)
	src := &fakeSource{meta: &ytdlp.Metadata{
		AutomaticCaptions: map[string][]ytdlp.Track{
			"en": {{URL: srv.URL + "/auto.vtt", Ext: "vtt"}},
		},
	}}

	raw, err := newProvider(srv, src).Fetch(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := transcript.Normalize(raw); got != "auto text" {
		t.Errorf("unexpected normalized text %q", got)
	}
}

func TestFetchTTML(t *testing.T) {
	srv := newServer(t)
	src := &fakeSource{meta: &ytdlp.Metadata{
		Subtitles: map[string][]ytdlp.Track{
			"en": {{URL: srv.URL + "/en.ttml", Ext: "ttml"}},
		},
	}}

	raw, err := newProvider(srv, src).Fetch(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if raw.Kind != transcript.Segments || len(raw.Segments) != 2 {
		t.Fatalf("unexpected raw %+v", raw)
	}
	if raw.Segments[0].Start != 1 || raw.Segments[0].Duration != 1.5 {
		t.Errorf("unexpected timing %+v", raw.Segments[0])
	}
	if got := transcript.Normalize(raw); got != "Hello there friend" {
		t.Errorf("unexpected normalized text %q", got)
	}
}

func TestFetchUnavailable(t *testing.T) {
	srv := newServer(t)
	tests := []struct {
		name string
		meta *ytdlp.Metadata
	}{
		{"no tracks", &ytdlp.Metadata{}},
		{"other language", &ytdlp.Metadata{Subtitles: map[string][]ytdlp.Track{
			"de": {{URL: srv.URL + "/en.vtt", Ext: "vtt"}},
		}}},
		{"unsupported format", &ytdlp.Metadata{Subtitles: map[string][]ytdlp.Track{
			"en": {{URL: srv.URL + "/en.json3", Ext: "json3"}},
		}}},
		{"empty file", &ytdlp.Metadata{Subtitles: map[string][]ytdlp.Track{
			"en": {{URL: srv.URL + "/empty.vtt", Ext: "vtt"}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newProvider(srv, &fakeSource{meta: tt.meta}).Fetch(context.Background(), "dQw4w9WgXcQ")
			if !stderrors.Is(err, errors.ErrProviderUnavailable) {
				t.Errorf("expected ErrProviderUnavailable, got %v", err)
			}
		})
	}
}

func TestFetchMetadataErrorRetried(t *testing.T) {
	srv := newServer(t)
	src := &fakeSource{err: fmt.Errorf("yt-dlp failed: network")}

	_, err := newProvider(srv, src).Fetch(context.Background(), "dQw4w9WgXcQ")
	if err == nil {
		t.Fatal("expected an error")
	}
	if src.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", src.calls)
	}
}

func TestFetchDownloadNotFound(t *testing.T) {
	srv := newServer(t)
	src := &fakeSource{meta: &ytdlp.Metadata{Subtitles: map[string][]ytdlp.Track{
		"en": {{URL: srv.URL + "/missing.vtt", Ext: "vtt"}},
	}}}

	_, err := newProvider(srv, src).Fetch(context.Background(), "dQw4w9WgXcQ")
	var statusErr *retry.StatusError
	if !stderrors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected a 404 status error, got %v", err)
	}
}
