package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tanakon8529/micro-ai-chatbot/internal/agent"
	"github.com/tanakon8529/micro-ai-chatbot/internal/config"
	"github.com/tanakon8529/micro-ai-chatbot/internal/memory"
)

const requestIDHeader = "X-Request-ID"

// Answerer 应答流程
type Answerer interface {
	Answer(ctx context.Context, req agent.Request) (*agent.Result, error)
	History(ctx context.Context, userID, topicID string) ([]memory.Turn, error)
}

// CacheStats 语义缓存统计
type CacheStats interface {
	Stats() memory.CacheStats
}

// Deps HTTP 服务依赖，Logs 与 Knowledge 为空时不注册运维接口
type Deps struct {
	Pipeline  Answerer
	Cache     CacheStats
	Tokens    *TokenValidator
	Logs      AnswerLogs
	Knowledge KnowledgeBase
	Version   VersionInfo
}

// HTTPGinServer 基于 Gin 的 HTTP 服务器
type HTTPGinServer struct {
	config *config.Config
	engine *gin.Engine
	server *http.Server

	pipeline  Answerer
	cache     CacheStats
	tokens    *TokenValidator
	logs      AnswerLogs
	knowledge KnowledgeBase
	version   VersionInfo
}

// NewHTTPGinServer 创建基于 Gin 的 HTTP 服务器
func NewHTTPGinServer(cfg *config.Config, deps Deps) *HTTPGinServer {
	// 设置 Gin 模式
	if cfg.Server.HTTP.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &HTTPGinServer{
		config:    cfg,
		engine:    gin.New(),
		pipeline:  deps.Pipeline,
		cache:     deps.Cache,
		tokens:    deps.Tokens,
		logs:      deps.Logs,
		knowledge: deps.Knowledge,
		version:   deps.Version,
	}

	s.registerMiddlewares()
	s.registerRoutes()

	return s
}

// Handler 返回 HTTP 处理器
func (s *HTTPGinServer) Handler() http.Handler {
	return s.engine
}

// registerMiddlewares 注册中间件
func (s *HTTPGinServer) registerMiddlewares() {
	// 恢复中间件 - 从 panic 恢复
	s.engine.Use(gin.Recovery())

	s.engine.Use(s.requestIDMiddleware())
	s.engine.Use(s.loggingMiddleware())
	s.engine.Use(s.corsMiddleware())
}

// requestIDMiddleware 透传或生成请求 ID
func (s *HTTPGinServer) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// loggingMiddleware 自定义日志中间件
func (s *HTTPGinServer) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method
		id := c.GetString(requestIDHeader)

		logx.Info("HTTP request, id %s, method %s, path %s, remote_addr %s", id, method, path, c.ClientIP())

		c.Next()

		logx.Info("HTTP response, id %s, method %s, path %s, status %d, duration %s",
			id, method, path, c.Writer.Status(), time.Since(start))
	}
}

// corsMiddleware CORS 中间件
func (s *HTTPGinServer) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, token, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// registerRoutes 注册路由
func (s *HTTPGinServer) registerRoutes() {
	v1 := s.engine.Group("/v1")
	{
		v1.GET("/health/", s.handleHealth)
		v1.GET("/version/", s.handleVersion)

		chat := v1.Group("")
		chat.Use(s.authMiddleware())
		{
			chat.POST("/ask/", s.handleAsk)
			chat.POST("/conversation/", s.handleConversation)
		}

		admin := v1.Group("/admin")
		admin.Use(s.authMiddleware())
		{
			if s.logs != nil {
				admin.GET("/logs/", s.handleListLogs)
			}
			if s.knowledge != nil {
				admin.GET("/knowledge/stats/", s.handleKnowledgeStats)
				admin.POST("/knowledge/search/", s.handleKnowledgeSearch)
				admin.POST("/knowledge/rebuild/", s.handleKnowledgeRebuild)
			}
		}
	}
}

// Start 启动 HTTP 服务器
func (s *HTTPGinServer) Start() error {
	addr := fmt.Sprintf("0.0.0.0:%d", s.config.Server.HTTP.Port)

	// 写超时需覆盖一次完整的模型调用
	writeTimeout := s.config.LLM.Timeout + 30*time.Second

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout,
	}

	logx.Info("🛜 Starting HTTP Server (Gin), Addr %s", addr)
	return s.server.ListenAndServe()
}

// Stop 停止 HTTP 服务器
func (s *HTTPGinServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
