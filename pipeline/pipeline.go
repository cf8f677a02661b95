// Package pipeline runs one video through transcript acquisition, chunking
// and summarization.
package pipeline

import (
	"context"
	"time"

	"github.com/nijaru/yt-summary/chunker"
	"github.com/nijaru/yt-summary/errors"
	"github.com/nijaru/yt-summary/validation"
	"github.com/sirupsen/logrus"
)

// TranscriptSource is implemented by *transcript.Chain.
type TranscriptSource interface {
	Get(ctx context.Context, videoID string) (text, source string, err error)
}

// Chunker is implemented by *chunker.Chunker.
type Chunker interface {
	Chunk(ctx context.Context, text string) (chunker.Chunks, error)
}

// ChunkSummarizer is implemented by *summary.Orchestrator.
type ChunkSummarizer interface {
	Summarize(ctx context.Context, chunks chunker.Chunks) (string, error)
}

type Result struct {
	VideoID  string        `json:"video_id"`
	Source   string        `json:"source"`
	Summary  string        `json:"summary"`
	Chunks   int           `json:"chunks"`
	Duration time.Duration `json:"duration"`
}

type Pipeline struct {
	transcripts TranscriptSource
	chunker     Chunker
	summarizer  ChunkSummarizer
	logger      *logrus.Logger
}

func New(transcripts TranscriptSource, c Chunker, s ChunkSummarizer) *Pipeline {
	return &Pipeline{
		transcripts: transcripts,
		chunker:     c,
		summarizer:  s,
		logger:      logrus.StandardLogger(),
	}
}

// Run summarizes the video at url. Nothing is fetched unless the URL yields a
// video id.
func (p *Pipeline) Run(ctx context.Context, url string) (*Result, error) {
	const op = "Pipeline.Run"
	start := time.Now()

	videoID, err := validation.ResolveVideoID(url)
	if err != nil {
		return nil, err
	}
	logger := p.logger.WithField("video_id", videoID)

	text, source, err := p.transcripts.Get(ctx, videoID)
	if err != nil {
		logger.WithError(err).Warn("No transcript")
		return nil, err
	}
	logger = logger.WithField("source", source)

	chunks, err := p.chunker.Chunk(ctx, text)
	if err != nil {
		return nil, errors.Internal(op, err, "Failed to tokenize transcript")
	}
	logger = logger.WithField("chunks", chunks.Len())
	logger.Debug("Transcript chunked")

	summary, err := p.summarizer.Summarize(ctx, chunks)
	if err != nil {
		logger.WithError(err).Error("Summarization failed")
		return nil, err
	}

	result := &Result{
		VideoID:  videoID,
		Source:   source,
		Summary:  summary,
		Chunks:   chunks.Len(),
		Duration: time.Since(start),
	}
	logger.WithField("duration", result.Duration).Info("Summary created")
	return result, nil
}
