package config

import "time"

// Config 服务全局配置
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Redis        RedisConfig        `mapstructure:"redis"`
	LLM          LLMConfig          `mapstructure:"llm"`
	Embedding    EmbeddingConfig    `mapstructure:"embedding"`
	Knowledge    KnowledgeConfig    `mapstructure:"knowledge"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Pipeline     PipelineConfig     `mapstructure:"pipeline"`
	Database     DatabaseConfig     `mapstructure:"database"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Port  int  `mapstructure:"port"`
	Debug bool `mapstructure:"debug"`
}

// AuthConfig 认证配置
// Tokens 为静态令牌；外部签发的令牌以 token:<value> 存放在 Redis 中
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Tokens  []string `mapstructure:"tokens"`
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LLMConfig 模型后端配置
type LLMConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	OpenAI      OpenAIConfig  `mapstructure:"openai"`
	Bedrock     BedrockConfig `mapstructure:"bedrock"`
}

// OpenAIConfig GPT 后端配置
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// BedrockConfig Claude (AWS Bedrock) 后端配置
type BedrockConfig struct {
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Region          string `mapstructure:"region"`
	ModelID         string `mapstructure:"model_id"`
}

// EmbeddingConfig Embedding 配置
type EmbeddingConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Model    string        `mapstructure:"model"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// KnowledgeConfig 向量索引配置
type KnowledgeConfig struct {
	CorpusDir      string `mapstructure:"corpus_dir"`
	PersistDir     string `mapstructure:"persist_dir"`
	TopK           int    `mapstructure:"top_k"`
	ChunkSize      int    `mapstructure:"chunk_size"`
	ChunkOverlap   int    `mapstructure:"chunk_overlap"`
	RebuildOnStart bool   `mapstructure:"rebuild_on_start"`
	Watch          bool   `mapstructure:"watch"`
}

// CacheConfig 语义缓存配置
type CacheConfig struct {
	Key       string  `mapstructure:"key"`
	Threshold float64 `mapstructure:"threshold"`
}

// ConversationConfig 对话历史配置
type ConversationConfig struct {
	MaxMessages  int           `mapstructure:"max_messages"`
	TTL          time.Duration `mapstructure:"ttl"`
	ClearOnStart bool          `mapstructure:"clear_on_start"`
}

// PipelineConfig 问答流水线配置
type PipelineConfig struct {
	MaxInFlight  int           `mapstructure:"max_in_flight"`
	AllowedUsers []string      `mapstructure:"allowed_users"`
	Persona      PersonaConfig `mapstructure:"persona"`
}

// PersonaConfig 机器人人设
type PersonaConfig struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Role        string `mapstructure:"role"`
	AddOn       string `mapstructure:"add_on"`
}

// DatabaseConfig SQLite 配置
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}
