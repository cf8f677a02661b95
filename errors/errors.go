package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kinds of failure the pipeline distinguishes. Match with errors.Is.
var (
	ErrInvalidURL          = stderrors.New("invalid video url")
	ErrProviderUnavailable = stderrors.New("transcript provider unavailable")
	ErrNoTranscript        = stderrors.New("no transcript available")
	ErrSummarization       = stderrors.New("summarization failed")
)

type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
	Op      string `json:"-"`
	Kind    error  `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the kind of this error.
func (e *AppError) Is(target error) bool {
	return e.Kind != nil && e.Kind == target
}

func E(op string, err error, message string, code int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func InvalidInput(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusBadRequest)
}

func NotFound(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusNotFound)
}

func Internal(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusInternalServerError)
}

func InvalidURL(op string, err error, message string) *AppError {
	e := InvalidInput(op, err, message)
	e.Kind = ErrInvalidURL
	return e
}

// Unavailable marks a transcript provider that had nothing to offer. The
// provider chain treats it as a signal to try the next provider.
func Unavailable(op string, err error, message string) *AppError {
	e := E(op, err, message, http.StatusServiceUnavailable)
	e.Kind = ErrProviderUnavailable
	return e
}

func NoTranscript(op string, err error, message string) *AppError {
	e := NotFound(op, err, message)
	e.Kind = ErrNoTranscript
	return e
}

func Summarization(op string, err error, message string) *AppError {
	e := E(op, err, message, http.StatusBadGateway)
	e.Kind = ErrSummarization
	return e
}

func IsNotFound(err error) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == http.StatusNotFound
	}
	return false
}

// IsUnavailable reports whether err, or anything it wraps, is a provider
// unavailability.
func IsUnavailable(err error) bool {
	return stderrors.Is(err, ErrProviderUnavailable)
}

// Code returns the HTTP status for err, or 500 when err carries none.
func Code(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
