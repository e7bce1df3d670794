package cmd

import (
	"context"
	"errors"
	"fmt"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tanakon8529/micro-ai-chatbot/internal/agent"
	"github.com/tanakon8529/micro-ai-chatbot/internal/config"
	"github.com/tanakon8529/micro-ai-chatbot/internal/database"
	"github.com/tanakon8529/micro-ai-chatbot/internal/knowledge"
	"github.com/tanakon8529/micro-ai-chatbot/internal/llm"
	"github.com/tanakon8529/micro-ai-chatbot/internal/memory"
	"github.com/tanakon8529/micro-ai-chatbot/internal/service"
)

// app 一次进程内共享的组件
type app struct {
	cfg *config.Config

	redis     *redis.Client
	db        *gorm.DB
	cache     *memory.SemanticCache
	store     *memory.ConversationStore
	retriever *knowledge.Retriever
	logs      *service.AnswerLogService
}

// newApp 连接 Redis、SQLite，并创建检索器；不加载索引
func newApp(cfg *config.Config) (*app, error) {
	client, err := memory.NewRedisClient(cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	db, err := database.OpenApp(cfg.Database.Path)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	embedder, err := memory.NewEmbeddingService(&memory.EmbeddingConfig{
		APIKey:  cfg.Embedding.APIKey,
		BaseURL: cfg.Embedding.BaseURL,
		Model:   cfg.Embedding.Model,
	}, memory.NewEmbeddingCache(client, cfg.Embedding.CacheTTL))
	if err != nil {
		_ = database.Close(db)
		_ = client.Close()
		return nil, err
	}

	a := &app{
		cfg:   cfg,
		redis: client,
		db:    db,
		cache: memory.NewSemanticCache(client, cfg.Cache.Key, cfg.Cache.Threshold),
		store: memory.NewConversationStore(client, cfg.Conversation.MaxMessages, cfg.Conversation.TTL),
		retriever: knowledge.NewRetriever(embedder, knowledge.Options{
			CorpusDir:    cfg.Knowledge.CorpusDir,
			PersistDir:   cfg.Knowledge.PersistDir,
			TopK:         cfg.Knowledge.TopK,
			ChunkSize:    cfg.Knowledge.ChunkSize,
			ChunkOverlap: cfg.Knowledge.ChunkOverlap,
		}),
		logs: service.NewAnswerLogService(db),
	}
	logx.Info("✅ Connected to Redis %s and database %s", cfg.RedisAddr(), cfg.Database.Path)
	return a, nil
}

// openIndex 加载索引，rebuild 为 true 时强制从语料重建
func (a *app) openIndex(ctx context.Context, rebuild bool) error {
	if rebuild {
		return a.retriever.Rebuild(ctx)
	}
	return a.retriever.Open(ctx)
}

// newRegistry 按配置注册模型后端，至少需要一个
func newRegistry(ctx context.Context, cfg *config.Config) (*llm.Registry, error) {
	registry := llm.NewRegistry()

	if cfg.LLM.OpenAI.APIKey != "" {
		backend := llm.NewOpenAIBackend(&llm.OpenAIConfig{
			APIKey:  cfg.LLM.OpenAI.APIKey,
			BaseURL: cfg.LLM.OpenAI.BaseURL,
			Model:   cfg.LLM.OpenAI.Model,
		})
		if err := registry.Register(llm.ModelGPT, backend); err != nil {
			return nil, err
		}
	} else {
		logx.Warn("llm.openai.api_key not set, model %s disabled", llm.ModelGPT)
	}

	if cfg.LLM.Bedrock.Region != "" && cfg.LLM.Bedrock.ModelID != "" {
		backend, err := llm.NewBedrockBackend(ctx, &llm.BedrockConfig{
			AccessKeyID:     cfg.LLM.Bedrock.AccessKeyID,
			SecretAccessKey: cfg.LLM.Bedrock.SecretAccessKey,
			Region:          cfg.LLM.Bedrock.Region,
			ModelID:         cfg.LLM.Bedrock.ModelID,
		})
		if err != nil {
			return nil, err
		}
		if err := registry.Register(llm.ModelClaude, backend); err != nil {
			return nil, err
		}
	} else {
		logx.Warn("llm.bedrock.region or model_id not set, model %s disabled", llm.ModelClaude)
	}

	if len(registry.Names()) == 0 {
		return nil, errors.New("no model backend configured, set llm.openai.api_key or llm.bedrock")
	}
	return registry, nil
}

// newPipeline 组装应答流程
func (a *app) newPipeline(ctx context.Context) (*agent.Pipeline, error) {
	registry, err := newRegistry(ctx, a.cfg)
	if err != nil {
		return nil, err
	}

	persona := agent.Persona{
		Name:        a.cfg.Pipeline.Persona.Name,
		Description: a.cfg.Pipeline.Persona.Description,
		Role:        a.cfg.Pipeline.Persona.Role,
		AddOn:       a.cfg.Pipeline.Persona.AddOn,
	}

	pipeline, err := agent.NewPipeline(agent.Deps{
		Cache:     a.cache,
		Store:     a.store,
		Retriever: a.retriever,
		Backends:  registry,
		Logger:    a.logs,
		Persona:   persona,
		Options: agent.Options{
			MaxInFlight:    a.cfg.Pipeline.MaxInFlight,
			TopK:           a.cfg.Knowledge.TopK,
			BackendTimeout: a.cfg.LLM.Timeout,
			Generate: llm.GenerateOptions{
				Temperature: a.cfg.LLM.Temperature,
				MaxTokens:   a.cfg.LLM.MaxTokens,
			},
			AllowedUsers: a.cfg.Pipeline.AllowedUsers,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	logx.Info("🤖 Answer pipeline ready, models %v, max in flight %d", registry.Names(), a.cfg.Pipeline.MaxInFlight)
	return pipeline, nil
}

// Close 释放连接
func (a *app) Close() {
	if err := database.Close(a.db); err != nil {
		logx.Warn("Failed to close database: %v", err)
	}
	if err := a.redis.Close(); err != nil {
		logx.Warn("Failed to close redis: %v", err)
	}
}
