package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// StorageConfig locates the durable state on disk.
type StorageConfig struct {
	Dir string `yaml:"dir"`
}

// IndexPath is the vector index blob.
func (c StorageConfig) IndexPath() string { return filepath.Join(c.Dir, "index.bin") }

// ChunksPath is the append-only chunk log.
func (c StorageConfig) ChunksPath() string { return filepath.Join(c.Dir, "chunks.jsonl") }

// SourcesPath is the source registry document.
func (c StorageConfig) SourcesPath() string { return filepath.Join(c.Dir, "sources.json") }

// ChunkerConfig configures the sliding-window splitter.
type ChunkerConfig struct {
	MaxChars int `yaml:"max_chars"`
	Overlap  int `yaml:"overlap"`
}

// EmbedderConfig selects and configures the embedding provider.
type EmbedderConfig struct {
	Type      string `yaml:"type"` // "openai" or "ollama"
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
	Host      string `yaml:"host,omitempty"` // ollama only
}

// GeneratorConfig selects and configures the generative model. Type "none"
// disables it; answers then always use the extractive fallback.
type GeneratorConfig struct {
	Type      string `yaml:"type"` // "none", "openai" or "ollama"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
	Host      string `yaml:"host,omitempty"`
}

// LoaderConfig configures document loading.
type LoaderConfig struct {
	FetchTimeoutSecs int `yaml:"fetch_timeout_secs"`
}

// AnswerConfig configures retrieval and answer composition.
type AnswerConfig struct {
	TopK         int `yaml:"top_k"`
	PreviewChars int `yaml:"preview_chars"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Storage   StorageConfig   `yaml:"storage"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Generator GeneratorConfig `yaml:"generator"`
	Loader    LoaderConfig    `yaml:"loader"`
	Answer    AnswerConfig    `yaml:"answer"`
	Server    ServerConfig    `yaml:"server"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "storage"
	}
	if cfg.Chunker.MaxChars == 0 {
		cfg.Chunker.MaxChars = 900
	}
	if cfg.Chunker.Overlap == 0 {
		cfg.Chunker.Overlap = 150
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "openai"
	}
	switch cfg.Embedder.Type {
	case "openai":
		if cfg.Embedder.Model == "" {
			cfg.Embedder.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.Dimension == 0 {
			cfg.Embedder.Dimension = 1536
		}
		if cfg.Embedder.APIKeyEnv == "" {
			cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
		}
	case "ollama":
		if cfg.Embedder.Model == "" {
			cfg.Embedder.Model = "nomic-embed-text"
		}
		if cfg.Embedder.Dimension == 0 {
			cfg.Embedder.Dimension = 768
		}
	}
	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "none"
	}
	switch cfg.Generator.Type {
	case "openai":
		if cfg.Generator.Model == "" {
			cfg.Generator.Model = "gpt-4o-mini"
		}
		if cfg.Generator.APIKeyEnv == "" {
			cfg.Generator.APIKeyEnv = "OPENAI_API_KEY"
		}
	case "ollama":
		if cfg.Generator.Model == "" {
			cfg.Generator.Model = "llama3.2"
		}
	}
	if cfg.Loader.FetchTimeoutSecs == 0 {
		cfg.Loader.FetchTimeoutSecs = 15
	}
	if cfg.Answer.TopK == 0 {
		cfg.Answer.TopK = 5
	}
	if cfg.Answer.PreviewChars == 0 {
		cfg.Answer.PreviewChars = 400
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
}
