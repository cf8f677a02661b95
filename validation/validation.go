package validation

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/nijaru/yt-summary/errors"
)

// videoIDPattern matches an 11 character id after "v=" or a path separator.
// The first match wins.
var videoIDPattern = regexp.MustCompile(`(?:v=|/)([A-Za-z0-9_-]{11})`)

// ResolveVideoID extracts the canonical video id from a YouTube URL. It has
// no side effects and must run before any transcript provider.
func ResolveVideoID(rawURL string) (string, error) {
	const op = "validation.ResolveVideoID"

	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", errors.InvalidURL(op, nil, "URL is required")
	}

	m := videoIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", errors.InvalidURL(op, nil, "Invalid YouTube URL")
	}
	return m[1], nil
}

// WatchURL returns the canonical watch page URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// RequestValidationOpts holds options for request validation
type RequestValidationOpts struct {
	MaxContentLength int64
	AllowedMethods   []string
	RequireJSON      bool
}

// ValidateRequest validates HTTP requests
func ValidateRequest(r *http.Request, opts RequestValidationOpts) error {
	const op = "validation.ValidateRequest"

	if len(opts.AllowedMethods) > 0 {
		methodAllowed := false
		for _, method := range opts.AllowedMethods {
			if r.Method == method {
				methodAllowed = true
				break
			}
		}
		if !methodAllowed {
			return errors.E(op, nil, fmt.Sprintf("Method %s not allowed", r.Method), http.StatusMethodNotAllowed)
		}
	}

	if opts.RequireJSON {
		if contentType := r.Header.Get("Content-Type"); !strings.Contains(contentType, "application/json") {
			return errors.InvalidInput(op, nil, "Content-Type must be application/json")
		}
	}

	if opts.MaxContentLength > 0 && r.ContentLength > opts.MaxContentLength {
		return errors.InvalidInput(op, nil, "Request body too large")
	}

	return nil
}
