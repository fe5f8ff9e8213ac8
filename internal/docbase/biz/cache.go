package biz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kart-io/logger"
	"github.com/redis/go-redis/v9"
)

// EmbeddingCache 缓存查询文本的嵌入向量，避免重复调用嵌入服务。
// client 为 nil 时所有操作都是空操作。
type EmbeddingCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewEmbeddingCache 创建嵌入缓存。
func NewEmbeddingCache(client *redis.Client, ttl time.Duration) *EmbeddingCache {
	return &EmbeddingCache{
		client: client,
		ttl:    ttl,
		prefix: "docbase:embed:",
	}
}

// key 用查询文本的 SHA-256 生成缓存键。
func (c *EmbeddingCache) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + hex.EncodeToString(sum[:])
}

// Get 返回缓存的向量，未命中返回 (nil, false)。
func (c *EmbeddingCache) Get(ctx context.Context, text string) ([]float32, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, c.key(text)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warnw("Embedding cache get failed", "error", err.Error())
		}
		return nil, false
	}

	var vector []float32
	if err := json.Unmarshal(data, &vector); err != nil {
		logger.Warnw("Embedding cache entry corrupt", "error", err.Error())
		return nil, false
	}
	return vector, true
}

// Set 写入缓存，失败只记录告警。
func (c *EmbeddingCache) Set(ctx context.Context, text string, vector []float32) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(vector)
	if err != nil {
		logger.Warnw("Embedding cache marshal failed", "error", err.Error())
		return
	}
	if err := c.client.Set(ctx, c.key(text), data, c.ttl).Err(); err != nil {
		logger.Warnw("Embedding cache set failed", "error", err.Error())
	}
}

// Ping 检查缓存后端连通性。
func (c *EmbeddingCache) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("embedding cache not configured")
	}
	return c.client.Ping(ctx).Err()
}
