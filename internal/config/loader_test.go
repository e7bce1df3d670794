package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "server:\n  http:\n    port: 9000\n"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.HTTP.Port != 9000 {
		t.Errorf("Server.HTTP.Port = %d, want 9000", cfg.Server.HTTP.Port)
	}
	if cfg.Conversation.MaxMessages != 50 {
		t.Errorf("Conversation.MaxMessages = %d, want 50", cfg.Conversation.MaxMessages)
	}
	if cfg.Conversation.TTL != 24*time.Hour {
		t.Errorf("Conversation.TTL = %s, want 24h", cfg.Conversation.TTL)
	}
	if cfg.Cache.Threshold != 0.98 {
		t.Errorf("Cache.Threshold = %f, want 0.98", cfg.Cache.Threshold)
	}
	if cfg.Cache.Key != "cache_questions" {
		t.Errorf("Cache.Key = %q, want cache_questions", cfg.Cache.Key)
	}
	if cfg.Pipeline.MaxInFlight != 10 {
		t.Errorf("Pipeline.MaxInFlight = %d, want 10", cfg.Pipeline.MaxInFlight)
	}
	if cfg.Knowledge.TopK != 5 {
		t.Errorf("Knowledge.TopK = %d, want 5", cfg.Knowledge.TopK)
	}
	if cfg.LLM.Timeout != 60*time.Second {
		t.Errorf("LLM.Timeout = %s, want 60s", cfg.LLM.Timeout)
	}
	if cfg.RedisAddr() != "localhost:6379" {
		t.Errorf("RedisAddr() = %q", cfg.RedisAddr())
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("CHATBOT_CONVERSATION_MAX_MESSAGES", "20")
	t.Setenv("CHATBOT_REDIS_HOST", "redis.internal")

	cfg, err := LoadConfig(writeConfig(t, "conversation:\n  max_messages: 30\n"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Conversation.MaxMessages != 20 {
		t.Errorf("Conversation.MaxMessages = %d, want 20 from env", cfg.Conversation.MaxMessages)
	}
	if cfg.Redis.Host != "redis.internal" {
		t.Errorf("Redis.Host = %q, want redis.internal", cfg.Redis.Host)
	}
}

func TestLoadConfig_ExpandsSecrets(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-test")
	t.Setenv("TEST_TOKEN", "secret-token")

	cfg, err := LoadConfig(writeConfig(t, `
llm:
  openai:
    api_key: ${TEST_OPENAI_KEY}
auth:
  enabled: true
  tokens:
    - ${TEST_TOKEN}
`))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.LLM.OpenAI.APIKey != "sk-test" {
		t.Errorf("LLM.OpenAI.APIKey = %q, want sk-test", cfg.LLM.OpenAI.APIKey)
	}
	if cfg.Embedding.APIKey != "sk-test" {
		t.Errorf("Embedding.APIKey = %q, want fallback to OpenAI key", cfg.Embedding.APIKey)
	}
	if len(cfg.Auth.Tokens) != 1 || cfg.Auth.Tokens[0] != "secret-token" {
		t.Errorf("Auth.Tokens = %v", cfg.Auth.Tokens)
	}
}

func TestLoadConfig_EnvSecrets(t *testing.T) {
	t.Setenv("CHATBOT_LLM_OPENAI_API_KEY", "sk-env")
	t.Setenv("CHATBOT_LLM_BEDROCK_ACCESS_KEY_ID", "AKIAENV")
	t.Setenv("CHATBOT_LLM_BEDROCK_SECRET_ACCESS_KEY", "secret-env")
	t.Setenv("CHATBOT_REDIS_PASSWORD", "pw-env")
	t.Setenv("CHATBOT_AUTH_TOKENS", "tok-env")

	cfg, err := LoadConfig(writeConfig(t, "server:\n  http:\n    port: 9000\n"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.LLM.OpenAI.APIKey != "sk-env" {
		t.Errorf("LLM.OpenAI.APIKey = %q, want sk-env", cfg.LLM.OpenAI.APIKey)
	}
	if cfg.Embedding.APIKey != "sk-env" {
		t.Errorf("Embedding.APIKey = %q, want fallback to OpenAI key", cfg.Embedding.APIKey)
	}
	if cfg.LLM.Bedrock.AccessKeyID != "AKIAENV" || cfg.LLM.Bedrock.SecretAccessKey != "secret-env" {
		t.Errorf("LLM.Bedrock keys = %q / %q", cfg.LLM.Bedrock.AccessKeyID, cfg.LLM.Bedrock.SecretAccessKey)
	}
	if cfg.Redis.Password != "pw-env" {
		t.Errorf("Redis.Password = %q, want pw-env", cfg.Redis.Password)
	}
	if len(cfg.Auth.Tokens) != 1 || cfg.Auth.Tokens[0] != "tok-env" {
		t.Errorf("Auth.Tokens = %v, want [tok-env]", cfg.Auth.Tokens)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{"valid", "cache:\n  threshold: 0.9\n", false},
		{"threshold above one", "cache:\n  threshold: 1.5\n", true},
		{"zero max messages", "conversation:\n  max_messages: 0\n", true},
		{"zero in flight", "pipeline:\n  max_in_flight: 0\n", true},
		{"zero temperature", "llm:\n  temperature: 0\n", true},
		{"temperature above two", "llm:\n  temperature: 2.5\n", true},
		{"overlap too large", "knowledge:\n  chunk_size: 100\n  chunk_overlap: 100\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.yaml))
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadConfig() with explicit missing file should fail")
	}
}
