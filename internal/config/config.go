// Package config provides configuration loading for ragd.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig indicates invalid configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the root configuration for the ragd daemon.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Log         LogConfig         `koanf:"log"`
	Tenant      TenantConfig      `koanf:"tenant"`
	Chunking    ChunkingConfig    `koanf:"chunking"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Retrieval   RetrievalConfig   `koanf:"retrieval"`
	Synthesizer SynthesizerConfig `koanf:"synthesizer"`
	DocStore    DocStoreConfig    `koanf:"docstore"`
	ObjectStore ObjectStoreConfig `koanf:"objectstore"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of: debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is "json" or "console".
	Format string `koanf:"format"`
}

// TenantConfig holds multi-tenancy settings.
type TenantConfig struct {
	// Default is the tenant assigned to unauthenticated callers.
	Default string `koanf:"default"`
}

// ChunkingConfig controls document chunking.
type ChunkingConfig struct {
	// MaxSize is the maximum chunk length in characters.
	MaxSize int `koanf:"max_size"`
	// Overlap is the number of characters shared between consecutive chunks.
	Overlap int `koanf:"overlap"`
}

// EmbeddingsConfig holds embedding provider settings.
//
// The provider chain is: PrimaryURL, then SecondaryURL (if set), then the
// deterministic hash fallback. Endpoints are TEI-compatible /embed servers.
type EmbeddingsConfig struct {
	PrimaryURL   string   `koanf:"primary_url"`
	SecondaryURL string   `koanf:"secondary_url"`
	Model        string   `koanf:"model"`
	Dimension    int      `koanf:"dimension"`
	Timeout      Duration `koanf:"timeout"`
}

// VectorStoreConfig selects and configures the vector index backend.
type VectorStoreConfig struct {
	// Provider is "memory", "chromem" (default) or "qdrant".
	Provider string        `koanf:"provider"`
	Chromem  ChromemConfig `koanf:"chromem"`
	Qdrant   QdrantConfig  `koanf:"qdrant"`
}

// ChromemConfig configures the embedded chromem-go index.
type ChromemConfig struct {
	Path       string `koanf:"path"`
	Collection string `koanf:"collection"`
	Compress   bool   `koanf:"compress"`
}

// QdrantConfig configures the external Qdrant gRPC index.
type QdrantConfig struct {
	Host       string `koanf:"host"`
	Port       int    `koanf:"port"`
	Collection string `koanf:"collection"`
	UseTLS     bool   `koanf:"use_tls"`
}

// RetrievalConfig controls query-time retrieval.
type RetrievalConfig struct {
	TopK                int     `koanf:"top_k"`
	SimilarityThreshold float32 `koanf:"similarity_threshold"`
	FallbackTopK        int     `koanf:"fallback_top_k"`
}

// SynthesizerConfig holds answer generation settings.
type SynthesizerConfig struct {
	// APIKey is the Anthropic API key. When unset, the synthesizer runs
	// on the template fallback only.
	APIKey    Secret   `koanf:"api_key"`
	Model     string   `koanf:"model"`
	MaxTokens int      `koanf:"max_tokens"`
	Timeout   Duration `koanf:"timeout"`
}

// DocStoreConfig configures the document metadata store.
type DocStoreConfig struct {
	Path string `koanf:"path"`
}

// ObjectStoreConfig configures raw object storage.
type ObjectStoreConfig struct {
	Path string `koanf:"path"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Tenant.Default == "" {
		c.Tenant.Default = "default-tenant"
	}
	if c.Chunking.MaxSize == 0 {
		c.Chunking.MaxSize = 1000
	}
	if c.Chunking.Overlap == 0 {
		c.Chunking.Overlap = 200
	}
	if c.Embeddings.Model == "" {
		c.Embeddings.Model = "BAAI/bge-small-en-v1.5"
	}
	if c.Embeddings.Dimension == 0 {
		c.Embeddings.Dimension = 1536
	}
	if c.Embeddings.Timeout == 0 {
		c.Embeddings.Timeout = Duration(10 * time.Second)
	}
	if c.VectorStore.Provider == "" {
		c.VectorStore.Provider = "chromem"
	}
	if c.VectorStore.Chromem.Path == "" {
		c.VectorStore.Chromem.Path = "~/.config/ragd/vectorstore"
	}
	if c.VectorStore.Chromem.Collection == "" {
		c.VectorStore.Chromem.Collection = "ragd_documents"
	}
	if c.VectorStore.Qdrant.Host == "" {
		c.VectorStore.Qdrant.Host = "localhost"
	}
	if c.VectorStore.Qdrant.Port == 0 {
		c.VectorStore.Qdrant.Port = 6334
	}
	if c.VectorStore.Qdrant.Collection == "" {
		c.VectorStore.Qdrant.Collection = "ragd_documents"
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 3
	}
	if c.Retrieval.SimilarityThreshold == 0 {
		c.Retrieval.SimilarityThreshold = 0.7
	}
	if c.Retrieval.FallbackTopK == 0 {
		c.Retrieval.FallbackTopK = 3
	}
	if c.Synthesizer.Model == "" {
		c.Synthesizer.Model = "claude-sonnet-4-20250514"
	}
	if c.Synthesizer.MaxTokens == 0 {
		c.Synthesizer.MaxTokens = 1024
	}
	if c.Synthesizer.Timeout == 0 {
		c.Synthesizer.Timeout = Duration(30 * time.Second)
	}
	if c.DocStore.Path == "" {
		c.DocStore.Path = "~/.local/share/ragd/docstore"
	}
	if c.ObjectStore.Path == "" {
		c.ObjectStore.Path = "~/.local/share/ragd/objects"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid server port %d", ErrInvalidConfig, c.Server.Port)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: log format must be json or console, got %q", ErrInvalidConfig, c.Log.Format)
	}
	if c.Chunking.MaxSize <= 0 {
		return fmt.Errorf("%w: chunking max_size must be positive", ErrInvalidConfig)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.MaxSize {
		return fmt.Errorf("%w: chunking overlap must be in [0, max_size)", ErrInvalidConfig)
	}
	if c.Embeddings.Dimension <= 0 {
		return fmt.Errorf("%w: embedding dimension must be positive", ErrInvalidConfig)
	}
	switch c.VectorStore.Provider {
	case "memory", "chromem", "qdrant":
	default:
		return fmt.Errorf("%w: unsupported vectorstore provider %q", ErrInvalidConfig, c.VectorStore.Provider)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval top_k must be positive", ErrInvalidConfig)
	}
	if c.Retrieval.SimilarityThreshold < -1 || c.Retrieval.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity threshold must be in [-1, 1]", ErrInvalidConfig)
	}
	return nil
}
