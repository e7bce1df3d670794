package server

import (
	"errors"
	"net/http"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/gin-gonic/gin"

	"github.com/tanakon8529/micro-ai-chatbot/internal/agent"
	"github.com/tanakon8529/micro-ai-chatbot/internal/model"
)

// success 返回成功响应
func (s *HTTPGinServer) success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, model.Response{
		Msg:  model.MsgSuccess,
		Data: data,
	})
}

// fail 按错误分类返回错误响应
func (s *HTTPGinServer) fail(c *gin.Context, err error) {
	kind := agent.KindOf(err)
	status := statusFor(kind)

	body := &model.ErrorBody{Kind: string(kind), Detail: "internal server error"}
	var e *agent.Error
	if errors.As(err, &e) {
		body.Code = e.Code
		body.Detail = e.Detail()
	}

	if status >= http.StatusInternalServerError {
		logx.Error("❌ Request %s failed: %v", c.GetString(requestIDHeader), err)
	}
	c.AbortWithStatusJSON(status, model.Response{
		Msg:   model.MsgError,
		Error: body,
	})
}

// statusFor 错误分类 -> HTTP 状态码
func statusFor(kind agent.Kind) int {
	switch kind {
	case agent.KindValidation:
		return http.StatusBadRequest
	case agent.KindAuth:
		return http.StatusUnauthorized
	case agent.KindOverload:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
