package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/nijaru/yt-summary/errors"
	"github.com/nijaru/yt-summary/middleware"
	"github.com/nijaru/yt-summary/pipeline"
	"github.com/nijaru/yt-summary/validation"
	"github.com/sirupsen/logrus"
)

// Pipeline is implemented by *pipeline.Pipeline.
type Pipeline interface {
	Run(ctx context.Context, url string) (*pipeline.Result, error)
}

type SummaryHandler struct {
	pipeline Pipeline

	// Per video locks; concurrent requests for one video run one at a time.
	// An entry lives while some request holds or waits on it.
	mu    sync.Mutex
	locks map[string]*videoLock
}

type videoLock struct {
	sem  chan struct{}
	refs int
}

type createSummaryRequest struct {
	URL string `json:"url"`
}

type summaryResponse struct {
	VideoID  string  `json:"video_id"`
	Source   string  `json:"source"`
	Summary  string  `json:"summary"`
	Chunks   int     `json:"chunks"`
	Duration float64 `json:"duration"`
}

func NewSummaryHandler(p Pipeline) *SummaryHandler {
	return &SummaryHandler{pipeline: p, locks: make(map[string]*videoLock)}
}

// HandleCreateSummary handles POST /api/v1/summary
func (h *SummaryHandler) HandleCreateSummary(w http.ResponseWriter, r *http.Request) {
	if err := validation.ValidateRequest(r, validation.RequestValidationOpts{
		MaxContentLength: 64 * 1024,
		AllowedMethods:   []string{http.MethodPost},
		RequireJSON:      true,
	}); err != nil {
		respondError(w, r, err)
		return
	}

	var req createSummaryRequest
	if err := readJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	h.summarize(w, r, req.URL)
}

// HandleGetSummary handles GET /api/v1/summary?url=...
func (h *SummaryHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	const op = "SummaryHandler.HandleGetSummary"

	url := r.URL.Query().Get("url")
	if url == "" {
		respondError(w, r, errors.InvalidInput(op, nil, "URL parameter is required"))
		return
	}

	h.summarize(w, r, url)
}

func (h *SummaryHandler) summarize(w http.ResponseWriter, r *http.Request, url string) {
	const op = "SummaryHandler.summarize"

	videoID, err := validation.ResolveVideoID(url)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logger := middleware.GetLogger(r.Context()).WithField("video_id", videoID)

	unlock, err := h.lock(r.Context(), videoID)
	if err != nil {
		respondError(w, r, errors.Internal(op, err, "Request cancelled while waiting"))
		return
	}
	defer unlock()

	result, err := h.pipeline.Run(r.Context(), url)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logger.WithFields(logrus.Fields{
		"source": result.Source,
		"chunks": result.Chunks,
	}).Info("Summary served")

	respondJSON(w, r, http.StatusOK, summaryResponse{
		VideoID:  result.VideoID,
		Source:   result.Source,
		Summary:  result.Summary,
		Chunks:   result.Chunks,
		Duration: result.Duration.Seconds(),
	})
}

// lock waits for the video's lock or for ctx to end.
func (h *SummaryHandler) lock(ctx context.Context, videoID string) (func(), error) {
	h.mu.Lock()
	l, ok := h.locks[videoID]
	if !ok {
		l = &videoLock{sem: make(chan struct{}, 1)}
		h.locks[videoID] = l
	}
	l.refs++
	h.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
		return func() {
			<-l.sem
			h.release(videoID, l)
		}, nil
	case <-ctx.Done():
		h.release(videoID, l)
		return nil, ctx.Err()
	}
}

func (h *SummaryHandler) release(videoID string, l *videoLock) {
	h.mu.Lock()
	defer h.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(h.locks, videoID)
	}
}
