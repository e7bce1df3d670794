package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// anthropicVersion Bedrock 上 Anthropic 消息接口的版本
const anthropicVersion = "bedrock-2023-05-31"

// BedrockConfig AWS Bedrock 配置，密钥为空时使用默认凭证链
type BedrockConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	ModelID         string
}

// ModelInvoker bedrockruntime.Client 中用到的方法
type ModelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockBackend Claude 后端
type BedrockBackend struct {
	client  ModelInvoker
	modelID string
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature"`
	Messages         []claudeMessage `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// NewBedrockBackend 创建 Claude 后端
func NewBedrockBackend(ctx context.Context, cfg *BedrockConfig) (*BedrockBackend, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	logx.Info("Bedrock backend initialized, model %s in %s", cfg.ModelID, cfg.Region)
	return NewBedrockBackendWithClient(bedrockruntime.NewFromConfig(awsCfg), cfg.ModelID), nil
}

// NewBedrockBackendWithClient 使用给定的客户端创建 Claude 后端
func NewBedrockBackendWithClient(client ModelInvoker, modelID string) *BedrockBackend {
	return &BedrockBackend{client: client, modelID: modelID}
}

// Name 返回模型标识
func (b *BedrockBackend) Name() string {
	return ModelClaude
}

// Generate 调用 InvokeModel 并拼接返回的文本片段
func (b *BedrockBackend) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 10000
	}

	body, err := json.Marshal(claudeRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		Temperature:      opts.Temperature,
		Messages:         []claudeMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", backendError(ModelClaude, "failed to encode request", err)
	}

	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", backendError(ModelClaude, "invoke model failed", err)
	}

	var resp claudeResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", backendError(ModelClaude, "malformed response", err)
	}

	var sb strings.Builder
	for _, part := range resp.Content {
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}
