package server

import (
	"context"
	"errors"
	"strings"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/tanakon8529/micro-ai-chatbot/internal/agent"
)

// ErrInvalidToken 令牌无效
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenValidator 校验访问令牌
// 静态令牌来自配置，外部签发的令牌以 token:<value> 存放在 Redis 中
type TokenValidator struct {
	enabled bool
	static  map[string]struct{}
	client  *redis.Client
}

// NewTokenValidator 创建令牌校验器，client 可为空
func NewTokenValidator(enabled bool, tokens []string, client *redis.Client) *TokenValidator {
	static := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			static[t] = struct{}{}
		}
	}
	return &TokenValidator{enabled: enabled, static: static, client: client}
}

// Enabled 是否启用认证
func (v *TokenValidator) Enabled() bool {
	return v != nil && v.enabled
}

// Validate 校验令牌
func (v *TokenValidator) Validate(ctx context.Context, token string) error {
	if !v.Enabled() {
		return nil
	}
	if token == "" {
		return ErrInvalidToken
	}
	if _, ok := v.static[token]; ok {
		return nil
	}
	if v.client == nil {
		return ErrInvalidToken
	}

	n, err := v.client.Exists(ctx, "token:"+token).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidToken
	}
	return nil
}

// extractToken 从 token 或 Authorization 请求头中读取令牌
func extractToken(c *gin.Context) string {
	header := c.GetHeader("token")
	if header == "" {
		header = c.GetHeader("Authorization")
	}
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		header = strings.TrimSpace(header[7:])
	}
	return header
}

// authMiddleware 令牌认证中间件
func (s *HTTPGinServer) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.tokens.Enabled() {
			c.Next()
			return
		}

		err := s.tokens.Validate(c.Request.Context(), extractToken(c))
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, ErrInvalidToken):
			s.fail(c, agent.NewAuthError(err.Error()))
		default:
			logx.Error("Token lookup failed: %v", err)
			s.fail(c, err)
		}
	}
}
