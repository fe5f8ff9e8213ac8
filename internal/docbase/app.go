package docbase

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/kart-io/logger"
	"github.com/redis/go-redis/v9"

	"github.com/kart-io/docbase/internal/docbase/biz"
	"github.com/kart-io/docbase/internal/docbase/handler"
	"github.com/kart-io/docbase/internal/docbase/router"
	"github.com/kart-io/docbase/internal/docbase/store"
	"github.com/kart-io/docbase/pkg/component/blob"
	"github.com/kart-io/docbase/pkg/component/milvus"
	"github.com/kart-io/docbase/pkg/llm"
	"github.com/kart-io/docbase/pkg/pool"
)

// Run 组装依赖并运行服务，直到收到退出信号。
func Run(opts *Options) error {
	if err := opts.Log.Init(); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 关系型存储
	factory, err := store.NewDatastore(&store.DBOptions{
		Driver: opts.Database.Driver,
		DSN:    opts.Database.DSN,
	})
	if err != nil {
		return err
	}
	defer factory.Close()

	if err := store.AutoMigrate(factory.DB()); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// 向量索引
	milvusClient, err := milvus.New(opts.Milvus)
	if err != nil {
		return err
	}
	defer milvusClient.Close(context.Background())

	vectors := store.NewMilvusVectorStore(milvusClient, opts.RAG.Collection, opts.RAG.EmbeddingDim)
	if err := vectors.EnsureCollection(ctx); err != nil {
		return err
	}

	// 模型提供方
	embedder, err := llm.NewEmbeddingProvider(llmConfig(opts.Embedding))
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}
	chatProvider, err := llm.NewChatProvider(llmConfig(opts.Chat))
	if err != nil {
		return fmt.Errorf("failed to create chat provider: %w", err)
	}

	// 原始文件存储
	blobs, err := blob.NewLocalStore(opts.Blob.Dir)
	if err != nil {
		return err
	}

	// 摄取工作池
	workers, err := pool.NewPool("ingest", &pool.Config{
		Capacity:         opts.RAG.IngestWorkers,
		ExpiryDuration:   60 * time.Second,
		MaxBlockingTasks: 256,
	})
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer workers.ReleaseTimeout(30 * time.Second)

	// 嵌入缓存（可选）
	var cache *biz.EmbeddingCache
	if opts.Cache.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     opts.Cache.Addr,
			Password: opts.Cache.Password,
			DB:       opts.Cache.DB,
		})
		cache = biz.NewEmbeddingCache(redisClient, opts.Cache.TTL)
		if err := cache.Ping(ctx); err != nil {
			logger.Warnw("Embedding cache unreachable, continuing without it", "error", err.Error())
			cache = nil
		}
		defer redisClient.Close()
	}

	// 业务服务
	chunker := biz.NewChunker(opts.RAG.ChunkSize, opts.RAG.ChunkOverlap)
	indexer := biz.NewIndexer(vectors, embedder, chunker)
	retriever := biz.NewRetriever(vectors, embedder, cache, opts.RAG.TopK)
	synthesizer := biz.NewSynthesizer(chatProvider, &biz.SynthesizerConfig{
		SystemPrompt:  opts.RAG.SystemPrompt,
		HistoryWindow: opts.RAG.HistoryWindow,
	})

	projectSvc := biz.NewProjectService(factory, vectors)
	documentSvc := biz.NewDocumentService(factory, blobs, biz.NewExtractor(), indexer, workers)
	chatSvc := biz.NewChatService(factory, retriever, synthesizer)

	engine := router.New(&router.Handlers{
		Project:  handler.NewProjectHandler(projectSvc),
		Document: handler.NewDocumentHandler(documentSvc),
		Chat:     handler.NewChatHandler(chatSvc),
	})

	server := &http.Server{
		Addr:    opts.Server.Addr,
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", opts.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func llmConfig(o *LLMOptions) *llm.Config {
	return &llm.Config{
		Provider:   o.Provider,
		Endpoint:   o.Endpoint,
		APIKey:     o.APIKey,
		Model:      o.Model,
		Timeout:    o.Timeout,
		MaxRetries: o.MaxRetries,
	}
}
