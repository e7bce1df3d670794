package memory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// newEmbeddingServer 返回一个按文本长度生成向量的假 embeddings 接口
func newEmbeddingServer(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp := openai.EmbeddingResponse{Object: "list", Model: openai.EmbeddingModel(req.Model)}
		for i := range req.Input {
			resp.Data = append(resp.Data, openai.Embedding{
				Object:    "embedding",
				Embedding: []float32{float32(len(req.Input[i])), 1},
				Index:     i,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestEmbeddingService(t *testing.T, cfg *EmbeddingConfig, cache *EmbeddingCache) *EmbeddingService {
	t.Helper()
	svc, err := NewEmbeddingService(cfg, cache)
	if err != nil {
		t.Fatalf("NewEmbeddingService() error = %v", err)
	}
	return svc
}

func TestEmbeddingService_EmbedStringsBatches(t *testing.T) {
	var calls atomic.Int64
	srv := newEmbeddingServer(t, &calls)
	svc := newTestEmbeddingService(t, &EmbeddingConfig{APIKey: "test", BaseURL: srv.URL}, nil)

	texts := make([]string, 250)
	for i := range texts {
		texts[i] = strings.Repeat("x", i%7+1)
	}

	vectors, err := svc.EmbedStrings(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedStrings() error = %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("EmbedStrings() len = %d, want %d", len(vectors), len(texts))
	}
	for i, vec := range vectors {
		if vec[0] != float64(len(texts[i])) {
			t.Fatalf("vectors[%d][0] = %f, want %d", i, vec[0], len(texts[i]))
		}
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("requests = %d, want 3 batches", got)
	}
	if svc.GetModel() != "text-embedding-ada-002" {
		t.Errorf("GetModel() = %q", svc.GetModel())
	}
}

func TestEmbeddingService_EmbedUsesCache(t *testing.T) {
	var calls atomic.Int64
	srv := newEmbeddingServer(t, &calls)
	client, _ := newTestRedis(t)
	svc := newTestEmbeddingService(t, &EmbeddingConfig{APIKey: "test", BaseURL: srv.URL},
		NewEmbeddingCache(client, time.Hour))

	ctx := context.Background()
	first, err := svc.Embed(ctx, "hello")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	second, err := svc.Embed(ctx, "hello")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	if calls.Load() != 1 {
		t.Errorf("requests = %d, want 1 with cache", calls.Load())
	}
	if first[0] != 5 || second[0] != 5 {
		t.Errorf("Embed() = %v / %v, want first component 5", first, second)
	}
}

func TestEmbeddingService_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	svc := newTestEmbeddingService(t, &EmbeddingConfig{APIKey: "bad", BaseURL: srv.URL}, nil)
	if _, err := svc.Embed(context.Background(), "hello"); err == nil {
		t.Error("Embed() should fail on provider error")
	}
}
