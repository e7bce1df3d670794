package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/tanakon8529/micro-ai-chatbot/internal/knowledge"
	"github.com/tanakon8529/micro-ai-chatbot/internal/llm"
	"github.com/tanakon8529/micro-ai-chatbot/internal/memory"
	"github.com/tanakon8529/micro-ai-chatbot/internal/model"
)

// 答案来源
const (
	TypeCache           = "cache"
	TypeGenerate        = "generate"
	TypeVectorStoreInfo = "vector_store_info"
	TypeNoValidQuestion = "no_valid_question"
)

// DefaultBackendTimeout 单次模型调用的超时
const DefaultBackendTimeout = 60 * time.Second

const metaLastActive = "last_active"

// AnswerCache 语义缓存
type AnswerCache interface {
	Check(ctx context.Context, question string) (string, bool)
	Add(ctx context.Context, question, answer string)
}

// ConversationStore 会话历史存储
type ConversationStore interface {
	Append(ctx context.Context, userID, topicID, sender, message string) error
	History(ctx context.Context, userID, topicID string, limit int) ([]memory.Turn, error)
	SetMetadata(ctx context.Context, userID, topicID, field, value string) error
}

// Retriever 知识检索
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]*knowledge.Document, error)
	Info() string
}

// AnswerLogger 答案审计日志
type AnswerLogger interface {
	Record(ctx context.Context, entry *model.ChatLog) error
}

// Options 流程参数
type Options struct {
	MaxInFlight    int
	TopK           int
	HistoryLimit   int // <=0 时读取存储保留的全部消息
	BackendTimeout time.Duration
	Generate       llm.GenerateOptions
	AllowedUsers   []string // 为空时不限制
}

// Deps 流程依赖，Logger 可选
type Deps struct {
	Cache     AnswerCache
	Store     ConversationStore
	Retriever Retriever
	Backends  *llm.Registry
	Logger    AnswerLogger
	Persona   Persona
	Options   Options
}

// Request 一次提问
type Request struct {
	UserID   string
	TopicID  string
	Question string
	Model    string
}

// Result 提问结果
type Result struct {
	Answer  string `json:"answer"`
	TypeRes string `json:"type_res"`
}

// Pipeline 应答流程: 校验、准入、缓存、检索、生成、记录历史
type Pipeline struct {
	cache     AnswerCache
	store     ConversationStore
	retriever Retriever
	backends  *llm.Registry
	logger    AnswerLogger
	persona   Persona
	opts      Options

	gate    *Gate
	locks   *SessionLocks
	allowed map[string]struct{}
}

// NewPipeline 创建应答流程
func NewPipeline(deps Deps) (*Pipeline, error) {
	switch {
	case deps.Cache == nil:
		return nil, fmt.Errorf("pipeline: cache is required")
	case deps.Store == nil:
		return nil, fmt.Errorf("pipeline: conversation store is required")
	case deps.Retriever == nil:
		return nil, fmt.Errorf("pipeline: retriever is required")
	case deps.Backends == nil || len(deps.Backends.Names()) == 0:
		return nil, fmt.Errorf("pipeline: at least one model backend is required")
	}

	opts := deps.Options
	if opts.TopK <= 0 {
		opts.TopK = knowledge.DefaultTopK
	}
	if opts.BackendTimeout <= 0 {
		opts.BackendTimeout = DefaultBackendTimeout
	}

	persona := deps.Persona
	if persona.Name == "" {
		persona = DefaultPersona()
	}

	var allowed map[string]struct{}
	if len(opts.AllowedUsers) > 0 {
		allowed = make(map[string]struct{}, len(opts.AllowedUsers))
		for _, u := range opts.AllowedUsers {
			allowed[u] = struct{}{}
		}
	}

	return &Pipeline{
		cache:     deps.Cache,
		store:     deps.Store,
		retriever: deps.Retriever,
		backends:  deps.Backends,
		logger:    deps.Logger,
		persona:   persona,
		opts:      opts,
		gate:      NewGate(opts.MaxInFlight),
		locks:     NewSessionLocks(),
		allowed:   allowed,
	}, nil
}

// Gate 返回准入控制，用于健康检查展示
func (p *Pipeline) Gate() *Gate {
	return p.gate
}

// Models 已注册的模型标识
func (p *Pipeline) Models() []string {
	return p.backends.Names()
}

func (p *Pipeline) validateSession(userID, topicID string) error {
	if strings.TrimSpace(userID) == "" {
		return NewValidationError("user_id is required")
	}
	if strings.TrimSpace(topicID) == "" {
		return NewValidationError("topic_id is required")
	}
	if p.allowed != nil {
		if _, ok := p.allowed[userID]; !ok {
			return NewValidationError("user %s is not allowed", userID)
		}
	}
	return nil
}

func (p *Pipeline) validate(req Request) error {
	if err := p.validateSession(req.UserID, req.TopicID); err != nil {
		return err
	}
	if strings.TrimSpace(req.Question) == "" {
		return NewValidationError("question is required")
	}
	if !p.backends.Has(req.Model) {
		return NewValidationError("model must be one of %s", strings.Join(p.backends.Names(), ", "))
	}
	return nil
}

// Answer 回答一个问题
// 同一会话的请求串行执行，不同会话互不阻塞
func (p *Pipeline) Answer(ctx context.Context, req Request) (*Result, error) {
	if err := p.validate(req); err != nil {
		return nil, err
	}

	if !p.gate.TryAcquire() {
		logx.Warn("Reject request from user %s: %d requests in flight", req.UserID, p.gate.InFlight())
		return nil, overloadError()
	}
	defer p.gate.Release()

	start := time.Now()
	question := strings.TrimSpace(req.Question)

	if IsDiagnostic(question) {
		logx.Info("🔍 Vector store diagnostics requested by user %s", req.UserID)
		return &Result{Answer: p.retriever.Info(), TypeRes: TypeVectorStoreInfo}, nil
	}

	normalized := memory.NormalizeQuestion(question)
	if normalized == "" {
		return &Result{Answer: "", TypeRes: TypeNoValidQuestion}, nil
	}

	// 调用方在排队期间离开时不再占用模型调用
	unlock, err := p.locks.LockContext(ctx, sessionKey(req.UserID, req.TopicID))
	if err != nil {
		return nil, backendError(CodeRequest, "request canceled while waiting for session", err)
	}
	defer unlock()

	history, err := p.store.History(ctx, req.UserID, req.TopicID, p.opts.HistoryLimit)
	if err != nil {
		return nil, backendError(CodeRequest, "failed to load conversation history", err)
	}

	result := &Result{TypeRes: TypeCache}
	if answer, ok := p.cache.Check(ctx, normalized); ok {
		result.Answer = answer
	} else {
		answer, err := p.generate(ctx, req.Model, normalized, history)
		if err != nil {
			return nil, err
		}
		result.Answer = answer
		result.TypeRes = TypeGenerate
	}

	// 答案已生成，客户端断开也要完成写入
	persistCtx := context.WithoutCancel(ctx)
	if result.TypeRes == TypeGenerate {
		p.cache.Add(persistCtx, normalized, result.Answer)
	}
	if err := p.appendExchange(persistCtx, req, question, result.Answer); err != nil {
		return nil, err
	}

	latency := time.Since(start)
	logx.Info("✅ Answered user %s topic %s via %s in %s", req.UserID, req.TopicID, result.TypeRes, latency.Round(time.Millisecond))
	p.record(persistCtx, req, question, result, latency)
	return result, nil
}

func (p *Pipeline) generate(ctx context.Context, modelName, question string, history []memory.Turn) (string, error) {
	backend, err := p.backends.Get(modelName)
	if err != nil {
		return "", NewValidationError("model must be one of %s", strings.Join(p.backends.Names(), ", "))
	}

	docs, err := p.retriever.Retrieve(ctx, question, p.opts.TopK)
	if err != nil {
		return "", backendError(CodeResponse, "failed to retrieve documents", err)
	}

	prompt := p.persona.BuildPrompt(docs, BuildQuestion(history, question))
	logx.Debug("Prompt built: model=%s, docs=%d, history=%d, length=%d", backend.Name(), len(docs), len(history), len(prompt))

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.opts.BackendTimeout)
	defer cancel()

	answer, err := backend.Generate(callCtx, prompt, p.opts.Generate)
	if err != nil {
		logx.Error("❌ Model %s failed: %v", backend.Name(), err)
		return "", backendError(CodeModel, "model call failed", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", backendError(CodeResponse, "model returned an empty answer", nil)
	}
	return answer, nil
}

func (p *Pipeline) appendExchange(ctx context.Context, req Request, question, answer string) error {
	if err := p.store.Append(ctx, req.UserID, req.TopicID, memory.SenderUser, question); err != nil {
		return backendError(CodeRequest, "failed to save user message", err)
	}
	if err := p.store.Append(ctx, req.UserID, req.TopicID, memory.SenderBot, answer); err != nil {
		return backendError(CodeRequest, "failed to save bot message", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if err := p.store.SetMetadata(ctx, req.UserID, req.TopicID, metaLastActive, now); err != nil {
		return backendError(CodeRequest, "failed to update session metadata", err)
	}
	return nil
}

func (p *Pipeline) record(ctx context.Context, req Request, question string, result *Result, latency time.Duration) {
	if p.logger == nil {
		return
	}
	entry := &model.ChatLog{
		UserID:    req.UserID,
		TopicID:   req.TopicID,
		Model:     strings.ToUpper(strings.TrimSpace(req.Model)),
		TypeRes:   result.TypeRes,
		Question:  question,
		Answer:    result.Answer,
		LatencyMs: latency.Milliseconds(),
	}
	if err := p.logger.Record(ctx, entry); err != nil {
		logx.Warn("Failed to record answer log: %v", err)
	}
}

// History 返回会话的全部历史消息，按时间正序
func (p *Pipeline) History(ctx context.Context, userID, topicID string) ([]memory.Turn, error) {
	if err := p.validateSession(userID, topicID); err != nil {
		return nil, err
	}
	turns, err := p.store.History(ctx, userID, topicID, 0)
	if err != nil {
		return nil, backendError(CodeRequest, "failed to load conversation history", err)
	}
	return turns, nil
}
