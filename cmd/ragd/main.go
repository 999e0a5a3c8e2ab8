// Ragd is a tenant-aware retrieval-augmented generation daemon.
//
// It ingests documents into a per-tenant knowledge base and answers
// questions against it over HTTP, degrading gracefully when the embedding
// endpoint, vector index, or LLM is unavailable.
//
// Configuration is loaded from an optional YAML file and RAGD_* environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start with defaults
//	ragd
//
//	# Configure via file and environment
//	RAGD_SERVER_PORT=9090 ragd -config /etc/ragd/config.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/chunker"
	"github.com/fyrsmithlabs/ragd/internal/config"
	"github.com/fyrsmithlabs/ragd/internal/docstore"
	"github.com/fyrsmithlabs/ragd/internal/embeddings"
	"github.com/fyrsmithlabs/ragd/internal/httpapi"
	"github.com/fyrsmithlabs/ragd/internal/logging"
	"github.com/fyrsmithlabs/ragd/internal/objectstore"
	"github.com/fyrsmithlabs/ragd/internal/rag"
	"github.com/fyrsmithlabs/ragd/internal/retriever"
	"github.com/fyrsmithlabs/ragd/internal/synthesizer"
	"github.com/fyrsmithlabs/ragd/internal/vectorstore"
)

const shutdownTimeout = 10 * time.Second

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  ragd           Start the ragd daemon\n")
			fmt.Fprintf(os.Stderr, "  ragd version   Show version information\n")
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("ragd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the ragd server and blocks until context is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("Starting ragd",
		zap.Int("port", cfg.Server.Port),
		zap.String("vectorstore", cfg.VectorStore.Provider),
		zap.String("default_tenant", cfg.Tenant.Default))

	// Embedding provider chain: configured TEI endpoints, then the
	// deterministic hash fallback.
	var urls []string
	if cfg.Embeddings.PrimaryURL != "" {
		urls = append(urls, cfg.Embeddings.PrimaryURL)
	}
	if cfg.Embeddings.SecondaryURL != "" {
		urls = append(urls, cfg.Embeddings.SecondaryURL)
	}
	embedder, err := embeddings.NewChain(logger, urls,
		cfg.Embeddings.Model, cfg.Embeddings.Dimension, cfg.Embeddings.Timeout.Duration())
	if err != nil {
		return fmt.Errorf("failed to initialize embeddings: %w", err)
	}

	primary, err := vectorstore.New(ctx, vectorstore.FactoryConfig{
		Provider:  cfg.VectorStore.Provider,
		Dimension: cfg.Embeddings.Dimension,
		Chromem: vectorstore.ChromemConfig{
			Path:       cfg.VectorStore.Chromem.Path,
			Collection: cfg.VectorStore.Chromem.Collection,
			Compress:   cfg.VectorStore.Chromem.Compress,
		},
		Qdrant: vectorstore.QdrantConfig{
			Host:       cfg.VectorStore.Qdrant.Host,
			Port:       cfg.VectorStore.Qdrant.Port,
			Collection: cfg.VectorStore.Qdrant.Collection,
			UseTLS:     cfg.VectorStore.Qdrant.UseTLS,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vector index: %w", err)
	}
	defer func() {
		_ = primary.Close()
	}()

	docs, err := docstore.Open(expandHome(cfg.DocStore.Path), logger)
	if err != nil {
		return fmt.Errorf("failed to open docstore: %w", err)
	}
	defer func() {
		_ = docs.Close()
	}()

	objects, err := objectstore.New(expandHome(cfg.ObjectStore.Path), logger)
	if err != nil {
		return fmt.Errorf("failed to open objectstore: %w", err)
	}

	keyword := vectorstore.NewKeywordSearcher(rag.KeywordSource{Docs: docs})
	index := vectorstore.NewDegradingIndex(primary, keyword, logger)

	rt := retriever.New(embedder, index, retriever.Config{
		TopK:                cfg.Retrieval.TopK,
		SimilarityThreshold: cfg.Retrieval.SimilarityThreshold,
		FallbackTopK:        cfg.Retrieval.FallbackTopK,
	}, logger)

	// Without an API key the synthesizer runs on the template fallback.
	var generator synthesizer.Generator
	if cfg.Synthesizer.APIKey.IsSet() {
		claude, err := synthesizer.NewClaudeGenerator(synthesizer.ClaudeConfig{
			APIKey:    cfg.Synthesizer.APIKey.Value(),
			Model:     cfg.Synthesizer.Model,
			MaxTokens: cfg.Synthesizer.MaxTokens,
			Timeout:   cfg.Synthesizer.Timeout.Duration(),
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize claude generator: %w", err)
		}
		generator = claude
		logger.Info("Answer generation enabled", zap.String("model", cfg.Synthesizer.Model))
	} else {
		logger.Warn("No API key configured, answers use template fallback")
	}
	synth := synthesizer.New(generator, logger)

	ck, err := chunker.New(cfg.Chunking.MaxSize, cfg.Chunking.Overlap)
	if err != nil {
		return fmt.Errorf("failed to initialize chunker: %w", err)
	}

	service := rag.NewService(ck, embedder, index, rt, synth, docs, objects, logger)

	srv, err := httpapi.NewServer(service, logger, &httpapi.Config{
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		DefaultTenant: cfg.Tenant.Default,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// expandHome expands a leading ~ to the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
