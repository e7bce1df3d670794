package llm

import (
	"context"
	"fmt"
)

// 支持的模型标识
const (
	ModelGPT    = "GPT"
	ModelClaude = "CLAUDE"
)

// GenerateOptions 生成参数
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int // 仅 Claude 使用
}

// Backend 模型后端: 给定 prompt 生成答案
// 实现在构造后只读，可被并发调用
type Backend interface {
	Name() string
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// BackendError 模型调用失败，保留供应商返回的信息
type BackendError struct {
	Backend string
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s backend: %s: %v", e.Backend, e.Message, e.Err)
	}
	return fmt.Sprintf("%s backend: %s", e.Backend, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func backendError(backend, message string, err error) error {
	return &BackendError{Backend: backend, Message: message, Err: err}
}
