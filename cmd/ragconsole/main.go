// ragconsole is an interactive query console over a locally reachable index.
// It assembles the same pipeline as the server, optionally ingests the files
// named on the command line into the given user's namespace, and then drops
// into a search TUI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"ragserver/internal/config"
	"ragserver/internal/domain"
	"ragserver/internal/embedding/hash"
	"ragserver/internal/embedding/openai"
	"ragserver/internal/extract"
	"ragserver/internal/service"
	"ragserver/internal/tui"
	"ragserver/internal/vectorindex/chroma"
	"ragserver/internal/vectorindex/memory"
	"ragserver/internal/vectorindex/sqlite"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "config.yaml", "Path to YAML config file")
	user := flag.String("user", "", "User id whose index to query (required)")
	topK := flag.Int("n", 10, "Number of results per query")
	flag.Parse()
	if *user == "" {
		fmt.Println("Usage: ragconsole --user=ID [--config=config.yaml] [file1.txt ...]")
		os.Exit(1)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}
	index, cleanup, err := buildIndex(cfg)
	if err != nil {
		log.Fatalf("vector index init failed: %v", err)
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

	ctx := context.Background()
	if paths := flag.Args(); len(paths) > 0 {
		var files []domain.Upload
		for _, p := range paths {
			data, err := os.ReadFile(p)
			if err != nil {
				log.Fatalf("read %s: %v", p, err)
			}
			files = append(files, domain.Upload{Filename: filepath.Base(p), Data: data})
		}
		summary, err := svc.Ingest(ctx, *user, files)
		if err != nil {
			log.Fatalf("ingest failed: %v", err)
		}
		for _, w := range summary.Warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
	}

	names, err := svc.ListFiles(ctx, *user)
	if err != nil {
		log.Fatalf("list files failed: %v", err)
	}
	summary := fmt.Sprintf("user=%s  indexed files: %s", *user, strings.Join(names, ", "))
	if len(names) == 0 {
		summary = fmt.Sprintf("user=%s  index is empty", *user)
	}

	m := tui.New(svc, *user, summary, *topK)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
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
