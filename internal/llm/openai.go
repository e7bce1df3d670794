package llm

import (
	"context"
	"crypto/tls"
	"net/http"
	"strings"
	"time"

	"cnb.cool/zhiqiangwang/pkg/logx"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig OpenAI 兼容接口配置
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIBackend GPT 后端
type OpenAIBackend struct {
	config *OpenAIConfig
	client *openai.Client
}

// NewOpenAIBackend 创建 GPT 后端
func NewOpenAIBackend(config *OpenAIConfig) *OpenAIBackend {
	clientConfig := openai.DefaultConfig(config.APIKey)

	if config.BaseURL != "" {
		// 直接使用配置的 BaseURL,不自动添加 /v1
		clientConfig.BaseURL = config.BaseURL
		logx.Debug("OpenAI client BaseURL: %s", config.BaseURL)
	}

	// 禁用 HTTP/2,强制使用 HTTP/1.1 以避免 INTERNAL_ERROR
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSNextProto:        make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
	}

	// 超时由调用方的 context 控制
	clientConfig.HTTPClient = &http.Client{
		Transport: transport,
		Timeout:   600 * time.Second,
	}

	logx.Info("OpenAI backend initialized, model %s", config.Model)

	return &OpenAIBackend{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

// Name 返回模型标识
func (b *OpenAIBackend) Name() string {
	return ModelGPT
}

// Generate 单轮对话生成答案
func (b *OpenAIBackend) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		// 字段带 omitempty，0 不会被发送，配置校验要求大于 0
		Temperature: float32(opts.Temperature),
	})
	if err != nil {
		return "", backendError(ModelGPT, "chat completion failed", err)
	}

	if len(resp.Choices) == 0 {
		return "", backendError(ModelGPT, "empty response from model", nil)
	}

	logx.Debug("OpenAI usage: prompt=%d completion=%d", resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
