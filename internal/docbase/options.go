// Package docbase 组装文档知识库服务。
package docbase

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	logopts "github.com/kart-io/docbase/pkg/options/logger"
	milvusopts "github.com/kart-io/docbase/pkg/options/milvus"
)

// ServerOptions HTTP 服务配置。
type ServerOptions struct {
	Addr            string        `json:"addr" mapstructure:"addr"`
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// DatabaseOptions 关系型数据库配置。
type DatabaseOptions struct {
	Driver string `json:"driver" mapstructure:"driver"`
	DSN    string `json:"dsn" mapstructure:"dsn"`
}

// BlobOptions 原始文件存储配置。
type BlobOptions struct {
	Dir string `json:"dir" mapstructure:"dir"`
}

// LLMOptions 单个模型提供方的连接配置。
type LLMOptions struct {
	Provider   string        `json:"provider" mapstructure:"provider"`
	Endpoint   string        `json:"endpoint" mapstructure:"endpoint"`
	APIKey     string        `json:"api-key" mapstructure:"api-key"`
	Model      string        `json:"model" mapstructure:"model"`
	Timeout    time.Duration `json:"timeout" mapstructure:"timeout"`
	MaxRetries int           `json:"max-retries" mapstructure:"max-retries"`
}

// RAGOptions 检索与合成参数。
type RAGOptions struct {
	Collection    string `json:"collection" mapstructure:"collection"`
	EmbeddingDim  int    `json:"embedding-dim" mapstructure:"embedding-dim"`
	ChunkSize     int    `json:"chunk-size" mapstructure:"chunk-size"`
	ChunkOverlap  int    `json:"chunk-overlap" mapstructure:"chunk-overlap"`
	TopK          int    `json:"top-k" mapstructure:"top-k"`
	HistoryWindow int    `json:"history-window" mapstructure:"history-window"`
	SystemPrompt  string `json:"system-prompt" mapstructure:"system-prompt"`
	IngestWorkers int    `json:"ingest-workers" mapstructure:"ingest-workers"`
}

// CacheOptions 查询嵌入缓存配置。Addr 为空时禁用缓存。
type CacheOptions struct {
	Addr     string        `json:"addr" mapstructure:"addr"`
	Password string        `json:"password" mapstructure:"password"`
	DB       int           `json:"db" mapstructure:"db"`
	TTL      time.Duration `json:"ttl" mapstructure:"ttl"`
}

// Options 服务全量配置。
type Options struct {
	Server    *ServerOptions      `json:"server" mapstructure:"server"`
	Log       *logopts.Options    `json:"log" mapstructure:"log"`
	Milvus    *milvusopts.Options `json:"milvus" mapstructure:"milvus"`
	Database  *DatabaseOptions    `json:"database" mapstructure:"database"`
	Blob      *BlobOptions        `json:"blob" mapstructure:"blob"`
	Embedding *LLMOptions         `json:"embedding" mapstructure:"embedding"`
	Chat      *LLMOptions         `json:"chat" mapstructure:"chat"`
	RAG       *RAGOptions         `json:"rag" mapstructure:"rag"`
	Cache     *CacheOptions       `json:"cache" mapstructure:"cache"`
}

// NewOptions 返回带默认值的配置。
func NewOptions() *Options {
	return &Options{
		Server: &ServerOptions{
			Addr:            ":8080",
			ShutdownTimeout: 15 * time.Second,
		},
		Log:    logopts.NewOptions(),
		Milvus: milvusopts.NewOptions(),
		Database: &DatabaseOptions{
			Driver: "sqlite",
			DSN:    "docbase.db",
		},
		Blob: &BlobOptions{
			Dir: "data/uploads",
		},
		Embedding: &LLMOptions{
			Provider:   "ollama",
			Model:      "nomic-embed-text",
			Timeout:    60 * time.Second,
			MaxRetries: 2,
		},
		Chat: &LLMOptions{
			Provider:   "ollama",
			Model:      "llama3.1",
			Timeout:    120 * time.Second,
			MaxRetries: 1,
		},
		RAG: &RAGOptions{
			Collection:    "docbase_chunks",
			EmbeddingDim:  768,
			ChunkSize:     1000,
			ChunkOverlap:  200,
			TopK:          5,
			HistoryWindow: 10,
			IngestWorkers: 8,
		},
		Cache: &CacheOptions{
			TTL: time.Hour,
		},
	}
}

// AddFlags 注册全部命令行参数。
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Server.Addr, "server.addr", o.Server.Addr, "HTTP listen address.")
	fs.DurationVar(&o.Server.ShutdownTimeout, "server.shutdown-timeout", o.Server.ShutdownTimeout, "Graceful shutdown timeout.")

	o.Log.AddFlags(fs)
	o.Milvus.AddFlags(fs)

	fs.StringVar(&o.Database.Driver, "database.driver", o.Database.Driver, "Database driver (sqlite|mysql|postgres).")
	fs.StringVar(&o.Database.DSN, "database.dsn", o.Database.DSN, "Database DSN (file path for sqlite).")

	fs.StringVar(&o.Blob.Dir, "blob.dir", o.Blob.Dir, "Directory for raw uploaded files.")

	addLLMFlags(fs, "embedding", o.Embedding)
	addLLMFlags(fs, "chat", o.Chat)

	fs.StringVar(&o.RAG.Collection, "rag.collection", o.RAG.Collection, "Vector collection name.")
	fs.IntVar(&o.RAG.EmbeddingDim, "rag.embedding-dim", o.RAG.EmbeddingDim, "Embedding vector dimension.")
	fs.IntVar(&o.RAG.ChunkSize, "rag.chunk-size", o.RAG.ChunkSize, "Chunk size in characters.")
	fs.IntVar(&o.RAG.ChunkOverlap, "rag.chunk-overlap", o.RAG.ChunkOverlap, "Chunk overlap in characters.")
	fs.IntVar(&o.RAG.TopK, "rag.top-k", o.RAG.TopK, "Number of chunks to retrieve per question.")
	fs.IntVar(&o.RAG.HistoryWindow, "rag.history-window", o.RAG.HistoryWindow, "Number of history turns to send to the model.")
	fs.StringVar(&o.RAG.SystemPrompt, "rag.system-prompt", o.RAG.SystemPrompt, "System prompt template, must contain one %s for context.")
	fs.IntVar(&o.RAG.IngestWorkers, "rag.ingest-workers", o.RAG.IngestWorkers, "Concurrent document ingestion workers.")

	fs.StringVar(&o.Cache.Addr, "cache.addr", o.Cache.Addr, "Redis address for the embedding cache (empty disables caching).")
	fs.StringVar(&o.Cache.Password, "cache.password", o.Cache.Password, "Redis password.")
	fs.IntVar(&o.Cache.DB, "cache.db", o.Cache.DB, "Redis database number.")
	fs.DurationVar(&o.Cache.TTL, "cache.ttl", o.Cache.TTL, "Embedding cache TTL.")
}

func addLLMFlags(fs *pflag.FlagSet, prefix string, o *LLMOptions) {
	fs.StringVar(&o.Provider, prefix+".provider", o.Provider, "Provider name (ollama|openai).")
	fs.StringVar(&o.Endpoint, prefix+".endpoint", o.Endpoint, "Provider base URL.")
	fs.StringVar(&o.APIKey, prefix+".api-key", o.APIKey, "Provider API key.")
	fs.StringVar(&o.Model, prefix+".model", o.Model, "Model name.")
	fs.DurationVar(&o.Timeout, prefix+".timeout", o.Timeout, "Request timeout.")
	fs.IntVar(&o.MaxRetries, prefix+".max-retries", o.MaxRetries, "Retries for transient failures.")
}

// Validate 校验配置。
func (o *Options) Validate() error {
	if o.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if err := o.Log.Validate(); err != nil {
		return err
	}
	if errs := o.Milvus.Validate(); len(errs) > 0 {
		return errs[0]
	}
	if o.Database.Driver == "" || o.Database.DSN == "" {
		return fmt.Errorf("database.driver and database.dsn are required")
	}
	if o.Blob.Dir == "" {
		return fmt.Errorf("blob.dir is required")
	}
	if o.Embedding.Provider == "" || o.Embedding.Model == "" {
		return fmt.Errorf("embedding provider and model are required")
	}
	if o.Chat.Provider == "" || o.Chat.Model == "" {
		return fmt.Errorf("chat provider and model are required")
	}
	if o.RAG.EmbeddingDim <= 0 {
		return fmt.Errorf("rag.embedding-dim must be positive")
	}
	if o.RAG.ChunkSize <= 0 {
		return fmt.Errorf("rag.chunk-size must be positive")
	}
	if o.RAG.ChunkOverlap < 0 || o.RAG.ChunkOverlap >= o.RAG.ChunkSize {
		return fmt.Errorf("rag.chunk-overlap must be in [0, chunk-size)")
	}
	return nil
}

// Complete 补全派生配置。
func (o *Options) Complete() error {
	return o.Log.Complete()
}
