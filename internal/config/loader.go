package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig 加载配置文件
// 配置文件不存在时使用默认值，环境变量 CHATBOT_* 覆盖文件中的值
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		// 默认配置文件搜索路径
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.chatbot")
		v.AddConfigPath("/etc/chatbot")
	}

	// 支持环境变量
	v.SetEnvPrefix("CHATBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 设置默认值
	setDefaults(v)
	bindSecrets(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果是找不到配置文件，则使用默认配置
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 替换环境变量
	expandEnvVars(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// Server 默认配置
	v.SetDefault("server.http.port", 8080)
	v.SetDefault("server.http.debug", false)

	// Auth 默认配置
	v.SetDefault("auth.enabled", false)

	// Redis 默认配置
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// LLM 默认配置
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 10000)
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.bedrock.region", "us-east-1")
	v.SetDefault("llm.bedrock.model_id", "anthropic.claude-3-5-sonnet-20240620-v1:0")

	// Embedding 默认配置
	v.SetDefault("embedding.model", "text-embedding-ada-002")
	v.SetDefault("embedding.cache_ttl", "24h")

	// Knowledge 默认配置
	v.SetDefault("knowledge.corpus_dir", "./data/docs")
	v.SetDefault("knowledge.persist_dir", "./data/index")
	v.SetDefault("knowledge.top_k", 5)
	v.SetDefault("knowledge.chunk_size", 1000)
	v.SetDefault("knowledge.chunk_overlap", 200)
	v.SetDefault("knowledge.rebuild_on_start", false)
	v.SetDefault("knowledge.watch", false)

	// Cache 默认配置
	v.SetDefault("cache.key", "cache_questions")
	v.SetDefault("cache.threshold", 0.98)

	// Conversation 默认配置
	v.SetDefault("conversation.max_messages", 50)
	v.SetDefault("conversation.ttl", "24h")
	v.SetDefault("conversation.clear_on_start", false)

	// Pipeline 默认配置
	v.SetDefault("pipeline.max_in_flight", 10)
	v.SetDefault("pipeline.persona.name", "Anong (Ann)")
	v.SetDefault("pipeline.persona.description", "Thoughtful, respectful, and enthusiastic about helping customers. She is tech-savvy and always eager to assist with clear, well-informed advice.")
	v.SetDefault("pipeline.persona.role", "You are an AI Assistant.")
	v.SetDefault("pipeline.persona.add_on", "Use the following documents to answer the question.")

	// Database 默认配置
	v.SetDefault("database.path", "./data/chatbot.db")
}

// secretKeys 没有默认值的键，Unmarshal 只读取已知键的环境变量
var secretKeys = []string{
	"auth.tokens",
	"redis.password",
	"llm.openai.api_key",
	"llm.openai.base_url",
	"llm.bedrock.access_key_id",
	"llm.bedrock.secret_access_key",
	"embedding.api_key",
	"embedding.base_url",
}

// bindSecrets 让只通过 CHATBOT_* 环境变量或 .env 提供的密钥也能被读取
func bindSecrets(v *viper.Viper) {
	for _, key := range secretKeys {
		_ = v.BindEnv(key)
	}
}

// expandEnvVars 展开环境变量
func expandEnvVars(config *Config) {
	config.LLM.OpenAI.APIKey = os.ExpandEnv(config.LLM.OpenAI.APIKey)
	config.LLM.Bedrock.AccessKeyID = os.ExpandEnv(config.LLM.Bedrock.AccessKeyID)
	config.LLM.Bedrock.SecretAccessKey = os.ExpandEnv(config.LLM.Bedrock.SecretAccessKey)
	config.Embedding.APIKey = os.ExpandEnv(config.Embedding.APIKey)
	config.Redis.Password = os.ExpandEnv(config.Redis.Password)

	// Embedding 默认复用 OpenAI 的密钥
	if config.Embedding.APIKey == "" {
		config.Embedding.APIKey = config.LLM.OpenAI.APIKey
	}

	// 展开 Auth 配置中的环境变量
	for i, token := range config.Auth.Tokens {
		config.Auth.Tokens[i] = os.ExpandEnv(token)
	}
}

// Validate 校验配置取值范围
func (c *Config) Validate() error {
	if c.Cache.Threshold <= 0 || c.Cache.Threshold > 1 {
		return fmt.Errorf("cache.threshold must be in (0, 1], got %f", c.Cache.Threshold)
	}
	if c.Conversation.MaxMessages <= 0 {
		return fmt.Errorf("conversation.max_messages must be positive, got %d", c.Conversation.MaxMessages)
	}
	if c.Conversation.TTL <= 0 {
		return fmt.Errorf("conversation.ttl must be positive, got %s", c.Conversation.TTL)
	}
	// temperature 为 0 时不会随请求发送，服务端会使用默认值 1
	if c.LLM.Temperature <= 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be in (0, 2], got %f", c.LLM.Temperature)
	}
	if c.Pipeline.MaxInFlight <= 0 {
		return fmt.Errorf("pipeline.max_in_flight must be positive, got %d", c.Pipeline.MaxInFlight)
	}
	if c.Knowledge.TopK <= 0 {
		return fmt.Errorf("knowledge.top_k must be positive, got %d", c.Knowledge.TopK)
	}
	if c.Knowledge.ChunkOverlap >= c.Knowledge.ChunkSize {
		return fmt.Errorf("knowledge.chunk_overlap (%d) must be smaller than knowledge.chunk_size (%d)",
			c.Knowledge.ChunkOverlap, c.Knowledge.ChunkSize)
	}
	return nil
}

// RedisAddr 返回 host:port 形式的 Redis 地址
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
