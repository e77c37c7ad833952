package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ragserver/internal/auth"
	"ragserver/internal/config"
	"ragserver/internal/domain"
	"ragserver/internal/embedding/hash"
	"ragserver/internal/embedding/openai"
	"ragserver/internal/extract"
	"ragserver/internal/realtime"
	"ragserver/internal/server"
	"ragserver/internal/service"
	"ragserver/internal/vectorindex/chroma"
	"ragserver/internal/vectorindex/memory"
	"ragserver/internal/vectorindex/sqlite"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to YAML config file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		log.Error("embedder init failed", "err", err)
		os.Exit(1)
	}
	index, cleanup, err := buildIndex(cfg)
	if err != nil {
		log.Error("vector index init failed", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	svc := service.NewKnowledge(extract.NewRegistry(), embedder, index, service.Limits{
		ChunkSize:      cfg.Ingest.ChunkSize,
		ChunkOverlap:   cfg.Ingest.ChunkOverlap,
		MaxFileBytes:   cfg.Ingest.MaxUploadMB * 1024 * 1024,
		AllowedExts:    cfg.Ingest.AllowedExtSet(),
		DefaultResults: cfg.Retrieval.DefaultResults,
		MinResults:     cfg.Retrieval.MinResults,
		MaxResults:     cfg.Retrieval.MaxResults,
	})

	authSvc, err := auth.Load(cfg.Auth.UsersFile, time.Duration(cfg.Auth.SessionTTLMins)*time.Minute)
	if err != nil {
		log.Error("failed to load users", "file", cfg.Auth.UsersFile, "err", err)
		os.Exit(1)
	}

	rt, err := realtime.NewClient(realtime.Config{
		BaseURL:      cfg.Realtime.BaseURL,
		APIKeyEnv:    cfg.Realtime.APIKeyEnv,
		Model:        cfg.Realtime.Model,
		Voice:        cfg.Realtime.Voice,
		Modalities:   cfg.Realtime.Modalities,
		Instructions: cfg.Realtime.Instructions,
		Timeout:      time.Duration(cfg.Realtime.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Warn("realtime sessions disabled", "err", err)
		rt = nil
	}

	srv := server.New(svc, authSvc, rt, log, server.Config{
		StaticDir:      cfg.Server.StaticDir,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("listening", "addr", cfg.Server.Addr, "index", cfg.Index.Type, "embedder", cfg.Embedder.Type)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func buildEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "openai", "":
		return openai.NewClient(openai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
	case "hash":
		dim := 0
		if cfg.Embedder.Hash != nil {
			dim = cfg.Embedder.Hash.Dimension
		}
		return hash.NewEmbedder(dim), nil
	default:
		return nil, errors.New("unknown embedder: " + cfg.Embedder.Type)
	}
}

func buildIndex(cfg *config.AppConfig) (domain.Index, func(), error) {
	switch cfg.Index.Type {
	case "sqlite", "":
		ix, err := sqlite.Open(cfg.Index.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return ix, func() { ix.Close() }, nil
	case "chroma":
		if cfg.Index.Chroma == nil {
			return nil, nil, errors.New("chroma index config missing")
		}
		ix := chroma.NewIndex(chroma.Config{
			URL:     cfg.Index.Chroma.URL,
			Timeout: time.Duration(cfg.Index.Chroma.TimeoutSecs) * time.Second,
		})
		return ix, func() {}, nil
	case "memory":
		return memory.NewIndex(), func() {}, nil
	default:
		return nil, nil, errors.New("unknown vector index: " + cfg.Index.Type)
	}
}
