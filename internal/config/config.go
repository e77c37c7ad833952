// Package config loads the application configuration from YAML, filling in
// defaults for everything the file leaves out. Secrets are never stored in
// the file; they are referenced by environment variable name.
package config

import (
	"errors"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP listener and static assets.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	StaticDir      string   `yaml:"static_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// AuthConfig points at the users file and bounds session lifetime.
type AuthConfig struct {
	UsersFile      string `yaml:"users_file"`
	SessionTTLMins int    `yaml:"session_ttl_mins"`
}

// IngestConfig bounds what uploads are accepted and how they are chunked.
type IngestConfig struct {
	ChunkSize         int      `yaml:"chunk_size"`
	ChunkOverlap      int      `yaml:"chunk_overlap"`
	MaxUploadMB       int64    `yaml:"max_upload_mb"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

// RetrievalConfig bounds the result count of queries.
type RetrievalConfig struct {
	DefaultResults int `yaml:"default_results"`
	MinResults     int `yaml:"min_results"`
	MaxResults     int `yaml:"max_results"`
}

// OpenAIEmbedderConfig holds the remote embedding gateway settings.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// HashEmbedderConfig holds the local offline embedder settings.
type HashEmbedderConfig struct {
	Dimension int `yaml:"dimension"`
}

// EmbedderConfig selects and configures the embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Hash   *HashEmbedderConfig   `yaml:"hash,omitempty"`
}

// SQLiteIndexConfig holds the local persistent index settings.
type SQLiteIndexConfig struct {
	Path string `yaml:"path"`
}

// ChromaIndexConfig holds connection details for a remote Chroma server.
type ChromaIndexConfig struct {
	URL         string `yaml:"url"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// IndexConfig selects and configures the vector index backend.
type IndexConfig struct {
	Type   string             `yaml:"type"`
	SQLite *SQLiteIndexConfig `yaml:"sqlite,omitempty"`
	Chroma *ChromaIndexConfig `yaml:"chroma,omitempty"`
}

// RealtimeConfig configures the voice-session pass-through.
type RealtimeConfig struct {
	BaseURL      string   `yaml:"base_url"`
	APIKeyEnv    string   `yaml:"api_key_env"`
	Model        string   `yaml:"model"`
	Voice        string   `yaml:"voice"`
	Modalities   []string `yaml:"modalities"`
	Instructions string   `yaml:"instructions"`
	TimeoutSecs  int      `yaml:"timeout_secs"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Index     IndexConfig     `yaml:"index"`
	Realtime  RealtimeConfig  `yaml:"realtime"`
}

// Load reads a config from the given path. A missing file yields pure
// defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := &AppConfig{}
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// AllowedExtSet normalizes the extension list into a lookup set with leading
// dots and lower case.
func (c IngestConfig) AllowedExtSet() map[string]bool {
	set := make(map[string]bool, len(c.AllowedExtensions))
	for _, e := range c.AllowedExtensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = true
	}
	return set
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":3000"
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = "public"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Auth.UsersFile == "" {
		cfg.Auth.UsersFile = "users.json"
	}
	if cfg.Auth.SessionTTLMins == 0 {
		cfg.Auth.SessionTTLMins = 24 * 60
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 1000
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 200
	}
	if cfg.Ingest.MaxUploadMB == 0 {
		cfg.Ingest.MaxUploadMB = 15
	}
	if len(cfg.Ingest.AllowedExtensions) == 0 {
		cfg.Ingest.AllowedExtensions = []string{"txt", "md", "pdf", "docx", "rtf", "csv", "json", "pptx"}
	}
	if cfg.Retrieval.DefaultResults == 0 {
		cfg.Retrieval.DefaultResults = 3
	}
	if cfg.Retrieval.MinResults == 0 {
		cfg.Retrieval.MinResults = 1
	}
	if cfg.Retrieval.MaxResults == 0 {
		cfg.Retrieval.MaxResults = 10
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "openai"
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI == nil {
		cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
	}
	if cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = "sqlite"
	}
	if cfg.Index.Type == "sqlite" && cfg.Index.SQLite == nil {
		cfg.Index.SQLite = &SQLiteIndexConfig{}
	}
	if cfg.Index.SQLite != nil && cfg.Index.SQLite.Path == "" {
		cfg.Index.SQLite.Path = "data/index.db"
	}
	if cfg.Index.Chroma != nil && cfg.Index.Chroma.TimeoutSecs == 0 {
		cfg.Index.Chroma.TimeoutSecs = 30
	}
	if cfg.Realtime.TimeoutSecs == 0 {
		cfg.Realtime.TimeoutSecs = 20
	}
}
