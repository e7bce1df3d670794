package agent

import (
	"errors"
	"fmt"
)

// Kind 错误分类，决定对外的 HTTP 状态码
type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindOverload   Kind = "overload"
	KindBackend    Kind = "backend"
	KindInternal   Kind = "internal"
)

// 错误码
const (
	CodeRequest  = "02" // 对话存储读写失败
	CodeResponse = "03" // 检索失败或模型返回空答案
	CodeModel    = "04" // 模型调用失败
)

// Error 应答流程的结构化错误
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Detail 对外展示的错误描述
func (e *Error) Detail() string {
	if e.Err != nil && e.Kind == KindBackend {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// KindOf 返回错误的分类，非 *Error 视为 internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// NewValidationError 输入校验失败
func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewAuthError 认证失败
func NewAuthError(message string) *Error {
	return &Error{Kind: KindAuth, Message: message}
}

func overloadError() *Error {
	return &Error{Kind: KindOverload, Message: "server is busy, too many requests in flight"}
}

func backendError(code, message string, err error) *Error {
	return &Error{Kind: KindBackend, Code: code, Message: message, Err: err}
}
