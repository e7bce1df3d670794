package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/tanakon8529/micro-ai-chatbot/internal/knowledge"
	"github.com/tanakon8529/micro-ai-chatbot/internal/llm"
	"github.com/tanakon8529/micro-ai-chatbot/internal/memory"
	"github.com/tanakon8529/micro-ai-chatbot/internal/model"
)

type fakeRetriever struct {
	docs  []*knowledge.Document
	err   error
	info  string
	calls atomic.Int32
}

func (r *fakeRetriever) Retrieve(_ context.Context, _ string, _ int) ([]*knowledge.Document, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return r.docs, nil
}

func (r *fakeRetriever) Info() string {
	return r.info
}

// fakeBackend 根据 fn 生成答案，并记录收到的 prompt
type fakeBackend struct {
	name string
	fn   func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
	calls   atomic.Int32
}

func (b *fakeBackend) Name() string { return b.name }

func (b *fakeBackend) Generate(ctx context.Context, prompt string, _ llm.GenerateOptions) (string, error) {
	b.calls.Add(1)
	b.mu.Lock()
	b.prompts = append(b.prompts, prompt)
	b.mu.Unlock()
	return b.fn(ctx, prompt)
}

func (b *fakeBackend) lastPrompt() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.prompts) == 0 {
		return ""
	}
	return b.prompts[len(b.prompts)-1]
}

func constBackend(name, answer string) *fakeBackend {
	return &fakeBackend{name: name, fn: func(context.Context, string) (string, error) {
		return answer, nil
	}}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []model.ChatLog
}

func (l *recordingLogger) Record(_ context.Context, entry *model.ChatLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, *entry)
	return nil
}

type testEnv struct {
	mr        *miniredis.Miniredis
	store     *memory.ConversationStore
	cache     *memory.SemanticCache
	retriever *fakeRetriever
	gpt       *fakeBackend
	claude    *fakeBackend
	logger    *recordingLogger
	pipeline  *Pipeline
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	env := &testEnv{
		mr:    mr,
		store: memory.NewConversationStore(client, 50, 0),
		cache: memory.NewSemanticCache(client, "", 0),
		retriever: &fakeRetriever{
			docs: []*knowledge.Document{
				{ID: "1", Content: "Paris is the capital of France.", Source: "france.txt"},
				{ID: "2", Content: "Spiders have eight legs.", Source: "spider.txt"},
			},
			info: "Vector store contains 2 total documents.",
		},
		gpt:    constBackend(llm.ModelGPT, "Paris."),
		claude: constBackend(llm.ModelClaude, "Paris, from Claude."),
		logger: &recordingLogger{},
	}
	env.pipeline = env.newPipeline(t, opts)
	return env
}

func (e *testEnv) newPipeline(t *testing.T, opts Options) *Pipeline {
	t.Helper()
	registry := llm.NewRegistry()
	if err := registry.Register(llm.ModelGPT, e.gpt); err != nil {
		t.Fatal(err)
	}
	if err := registry.Register(llm.ModelClaude, e.claude); err != nil {
		t.Fatal(err)
	}

	p, err := NewPipeline(Deps{
		Cache:     e.cache,
		Store:     e.store,
		Retriever: e.retriever,
		Backends:  registry,
		Logger:    e.logger,
		Options:   opts,
	})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}

func (e *testEnv) history(t *testing.T, user, topic string) []memory.Turn {
	t.Helper()
	turns, err := e.store.History(context.Background(), user, topic, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	return turns
}

func requireKind(t *testing.T, err error, kind Kind, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *agent.Error, got %T: %v", err, err)
	}
	if e.Kind != kind {
		t.Fatalf("kind = %s, want %s (%v)", e.Kind, kind, err)
	}
	if code != "" && e.Code != code {
		t.Fatalf("code = %q, want %q", e.Code, code)
	}
}

func conversationKeys(mr *miniredis.Miniredis) []string {
	var keys []string
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, "chatbot:user:") {
			keys = append(keys, k)
		}
	}
	return keys
}
