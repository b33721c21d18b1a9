package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"quizrag/internal/config"
	"quizrag/internal/extractor"
	"quizrag/internal/httpapi"
	"quizrag/internal/logger"
	"quizrag/internal/metrics"
	"quizrag/internal/quiz"
	"quizrag/internal/retrieval"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/quizrag/config.yaml if not provided)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.WithComponent("main")

	svc, err := retrieval.NewService(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("init retrieval: %w", err)
	}

	var generator httpapi.QuizGenerator
	if apiKey := os.Getenv(cfg.Quiz.APIKeyEnv); apiKey != "" {
		gen, err := quiz.New(quiz.Config{
			APIKey:   apiKey,
			BaseURL:  cfg.Quiz.BaseURL,
			Model:    cfg.Quiz.Model,
			Timeout:  time.Duration(cfg.Quiz.TimeoutSecs) * time.Second,
			Language: cfg.Quiz.Language,
		})
		if err != nil {
			return fmt.Errorf("init quiz generator: %w", err)
		}
		generator = gen
		log.Info("quiz generation enabled", "model", cfg.Quiz.Model)
	} else {
		log.Warn("quiz generation disabled, API key env is empty", "env", cfg.Quiz.APIKeyEnv)
	}

	m := metrics.New()
	handler := httpapi.New(svc, extractor.New(), generator, m, httpapi.Config{
		UploadDir:         cfg.Upload.Dir,
		MaxUploadBytes:    cfg.Upload.MaxBytes,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		TopK:              cfg.Retrieval.TopK,
	})

	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler.Router(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("API server listening", "addr", apiServer.Addr)
		if err := apiServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("GET /metrics", m.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: metricsMux,
		}
		g.Go(func() error {
			log.Info("metrics server listening", "addr", metricsServer.Addr)
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Server.ShutdownSecs)*time.Second)
		defer cancel()
		if metricsServer != nil {
			_ = metricsServer.Shutdown(shutdownCtx)
		}
		return apiServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
