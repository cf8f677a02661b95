package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nijaru/yt-summary/chunker"
	"github.com/nijaru/yt-summary/config"
	"github.com/nijaru/yt-summary/handlers"
	"github.com/nijaru/yt-summary/logger"
	"github.com/nijaru/yt-summary/pipeline"
	"github.com/nijaru/yt-summary/providers/audio"
	"github.com/nijaru/yt-summary/providers/captions"
	"github.com/nijaru/yt-summary/providers/scraped"
	"github.com/nijaru/yt-summary/providers/subtitles"
	"github.com/nijaru/yt-summary/retry"
	"github.com/nijaru/yt-summary/scripts"
	"github.com/nijaru/yt-summary/summary"
	"github.com/nijaru/yt-summary/transcript"
	"github.com/nijaru/yt-summary/ytdlp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:           "yt-summary",
		Usage:          "summarize YouTube videos from their transcripts",
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serveAction,
			},
			{
				Name:      "summarize",
				Usage:     "print the summary of one video",
				ArgsUsage: "<url>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "backend",
						Usage: "summary backend (script or gemini)",
					},
					&cli.StringFlag{
						Name:  "lang",
						Usage: "transcript language",
					},
				},
				Action: summarizeAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func serveAction(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server.LogDir, cfg.Server.LogLevel, cfg.Server.Debug)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	server := handlers.NewServer(cfg,
		handlers.WithPipeline(p),
		handlers.WithLogger(log),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

func summarizeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one video URL, got %d arguments", c.NArg())
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if backend := c.String("backend"); backend != "" {
		cfg.Summary.Backend = backend
	}
	if lang := c.String("lang"); lang != "" {
		cfg.Transcript.Language = lang
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// stdout carries the summary only.
	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(logrus.WarnLevel)
	if cfg.Server.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	result, err := p.Run(ctx, c.Args().First())
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, result.Summary)
	return nil
}

func buildPipeline(ctx context.Context, cfg *config.Config) (*pipeline.Pipeline, error) {
	runner, err := scripts.NewScriptRunner(scripts.Config{
		UVPath:      cfg.Scripts.UVPath,
		ScriptsPath: cfg.Scripts.Path,
		Environment: cfg.Scripts.Environment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize script runner: %w", err)
	}

	summarizer, tokenizer, err := summary.New(ctx, cfg.Summary, runner)
	if err != nil {
		return nil, err
	}

	providers, err := buildProviders(ctx, cfg, runner)
	if err != nil {
		return nil, err
	}
	chain := transcript.NewChain(providers...)

	logrus.WithFields(logrus.Fields{
		"providers": chain.Providers(),
		"backend":   cfg.Summary.Backend,
		"language":  cfg.Transcript.Language,
	}).Info("Pipeline ready")

	return pipeline.New(
		chain,
		chunker.New(tokenizer, cfg.Summary.ChunkMaxTokens),
		summary.NewOrchestrator(summarizer, summary.Config{
			MaxLength: cfg.Summary.MaxLength,
			MinLength: cfg.Summary.MinLength,
			Timeout:   cfg.Summary.Timeout,
		}),
	), nil
}

// buildProviders returns the transcript providers in fallback order.
func buildProviders(ctx context.Context, cfg *config.Config, runner *scripts.ScriptRunner) ([]transcript.Provider, error) {
	retryCfg := retry.Config{
		MaxTries:        cfg.Retry.MaxTries,
		InitialInterval: cfg.Retry.InitialInterval,
		MaxInterval:     cfg.Retry.MaxInterval,
	}
	lang := cfg.Transcript.Language

	var providers []transcript.Provider

	if cfg.YouTube.CaptionsEnabled() {
		p, err := captions.New(ctx, captions.Config{
			APIKey:     cfg.YouTube.APIKey,
			OAuthToken: cfg.YouTube.OAuthToken,
			Language:   lang,
			Timeout:    cfg.Transcript.ProviderTimeout,
			Retry:      retryCfg,
		})
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	} else {
		logrus.Info("YOUTUBE_API_KEY not set, captions provider disabled")
	}

	yt := ytdlp.New(cfg.Transcript.YtDlpPath)

	providers = append(providers,
		scraped.New(scraped.Config{
			BaseURL:  cfg.YouTube.WatchBaseURL,
			Language: lang,
			Timeout:  cfg.Transcript.ProviderTimeout,
			Retry:    retryCfg,
		}),
		subtitles.New(yt, subtitles.Config{
			Language: lang,
			Timeout:  cfg.Transcript.ProviderTimeout,
			Retry:    retryCfg,
		}),
		audio.New(yt, runner, audio.Config{
			TempDir:  cfg.Server.TempDir,
			Timeout:  cfg.Transcript.AudioTimeout,
			Model:    cfg.Transcript.WhisperModel,
			Language: lang,
		}),
	)
	return providers, nil
}
