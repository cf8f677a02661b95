package retry

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/nijaru/yt-summary/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fast = Config{MaxTries: 3, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fast, "test", func() (string, error) {
		calls++
		if calls < 3 {
			return "", fmt.Errorf("transient")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDoGivesUpAfterMaxTries(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fast, "test", func() (int, error) {
		calls++
		return 0, fmt.Errorf("still broken")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"unavailable", errors.Unavailable("op", nil, "no captions")},
		{"not found status", &StatusError{URL: "http://x", StatusCode: http.StatusNotFound}},
		{"forbidden status", &StatusError{URL: "http://x", StatusCode: http.StatusForbidden}},
		{"explicit permanent", Permanent(fmt.Errorf("bad input"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			_, err := Do(context.Background(), fast, "test", func() (string, error) {
				calls++
				return "", tt.err
			})
			require.Error(t, err)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestDoKeepsUnavailableKind(t *testing.T) {
	_, err := Do(context.Background(), fast, "test", func() (string, error) {
		return "", errors.Unavailable("op", nil, "no captions")
	})
	assert.True(t, stderrors.Is(err, errors.ErrProviderUnavailable))
}

func TestDoRetriesServerErrors(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fast, "test", func() (string, error) {
		calls++
		return "", &StatusError{URL: "http://x", StatusCode: http.StatusServiceUnavailable}
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, Config{MaxTries: 5, InitialInterval: time.Second}, "test", func() (string, error) {
		return "", fmt.Errorf("transient")
	})
	require.Error(t, err)
}

func TestRetryable(t *testing.T) {
	cases := map[int]bool{
		http.StatusOK:                  false,
		http.StatusBadRequest:          false,
		http.StatusNotFound:            false,
		http.StatusRequestTimeout:      true,
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusBadGateway:          true,
	}
	for code, want := range cases {
		assert.Equal(t, want, Retryable(code), "status %d", code)
	}
}
