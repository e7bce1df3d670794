package memory

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"
)

const (
	// embedBatchSize 单次请求的最大文本数
	embedBatchSize = 100
	// defaultEmbeddingModel 未配置模型时使用
	defaultEmbeddingModel = "text-embedding-ada-002"
)

// EmbeddingConfig Embedding 配置
type EmbeddingConfig struct {
	APIKey  string
	BaseURL string
	Model   string // 如 "text-embedding-ada-002"
}

// EmbeddingService 向量嵌入服务，实现 eino 的 embedding.Embedder 接口
// 在 eino-ext 的 OpenAI Embedder 之上增加分批请求和单条查询缓存
type EmbeddingService struct {
	embedder embedding.Embedder
	model    string
	cache    *EmbeddingCache // 可选，缓存单条查询的 embedding 结果
}

var _ embedding.Embedder = (*EmbeddingService)(nil)

// NewEmbeddingService 创建 Embedding 服务（复用 Eino）
func NewEmbeddingService(cfg *EmbeddingConfig, cache *EmbeddingCache) (*EmbeddingService, error) {
	model := cfg.Model
	if model == "" {
		model = defaultEmbeddingModel
	}

	embedder, err := openai.NewEmbedder(context.Background(), &openai.EmbeddingConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   model,
		Timeout: 30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &EmbeddingService{
		embedder: embedder,
		model:    model,
		cache:    cache,
	}, nil
}

// EmbedStrings 批量获取文本的向量表示，按 embedBatchSize 分批请求
func (s *EmbeddingService) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	result := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		batch := texts[start:end]

		vectors, err := s.embedder.EmbedStrings(ctx, batch, opts...)
		if err != nil {
			return nil, fmt.Errorf("embedding failed: %w", err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("embedding returned %d vectors for %d texts", len(vectors), len(batch))
		}
		result = append(result, vectors...)

		if len(texts) > embedBatchSize {
			logx.Debug("Embedded %d/%d texts", end, len(texts))
		}
	}
	return result, nil
}

// Embed 获取单条文本的向量表示，优先读取 Redis 缓存
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float64, error) {
	cacheKey := s.calculateCacheKey(text)
	if s.cache != nil {
		cached, err := s.cache.GetEmbedding(ctx, cacheKey)
		if err != nil {
			logx.Warn("Failed to read embedding cache: %v", err)
		} else if cached != nil {
			logx.Debug("Embedding cache hit: key=%s", cacheKey)
			return cached, nil
		}
	}

	vectors, err := s.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	result := vectors[0]

	if s.cache != nil {
		if err := s.cache.SetEmbedding(ctx, cacheKey, result); err != nil {
			logx.Warn("Failed to cache embedding: %v", err)
		}
	}
	return result, nil
}

// GetModel 获取当前模型标识
func (s *EmbeddingService) GetModel() string {
	return s.model
}

// calculateCacheKey 计算缓存键
func (s *EmbeddingService) calculateCacheKey(text string) string {
	hash := sha256.Sum256([]byte(s.model + ":" + text))
	return fmt.Sprintf("emb:%x", hash[:16])
}
