package memory

import (
	"context"
	"testing"
)

func TestNormalizeQuestion(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  What is Go?  ", "What is Go?"},
		{"User: What is Go?", "What is Go?"},
		{"Bot:Hello", "Hello"},
		{"User:", ""},
		{"User:Bot: hi", "hi"},
		{"Bot:User: hi", "hi"},
		{"Bot:User:hi", "User:hi"},
		{"user: lower prefix", "user: lower prefix"},
	}
	for _, tt := range tests {
		if got := NormalizeQuestion(tt.in); got != tt.want {
			t.Errorf("NormalizeQuestion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSemanticCache_HitAndMiss(t *testing.T) {
	client, _ := newTestRedis(t)
	ctx := context.Background()
	cache := NewSemanticCache(client, "cache_questions", 0.98)

	if _, hit := cache.Check(ctx, "anything"); hit {
		t.Fatal("Check() on empty cache should miss")
	}

	cache.Add(ctx, "What is the capital of France?", "Paris")

	hits := []string{
		"What is the capital of France?",
		"User:   what is the capital of france?",
		"  WHAT IS THE CAPITAL OF FRANCE  ",
	}
	for _, q := range hits {
		answer, hit := cache.Check(ctx, q)
		if !hit || answer != "Paris" {
			t.Errorf("Check(%q) = (%q, %v), want (Paris, true)", q, answer, hit)
		}
	}

	if answer, hit := cache.Check(ctx, "What is the capital of Spain?"); hit {
		t.Errorf("Check(Spain) = (%q, true), want miss", answer)
	}

	stats := cache.Stats()
	if stats.HitCount != 3 || stats.MissCount != 2 || stats.TotalQueries != 5 {
		t.Errorf("Stats() = %+v, want 3 hits 2 misses", stats)
	}
}

func TestSemanticCache_AddIsIdempotent(t *testing.T) {
	client, _ := newTestRedis(t)
	ctx := context.Background()
	cache := NewSemanticCache(client, "cache_questions", 0.98)

	cache.Add(ctx, "What is the capital of France?", "Paris")
	cache.Add(ctx, "What is the capital of France?", "Paris")
	cache.Add(ctx, "User: What is the capital of France?", "Paris, France")

	entries, err := cache.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("List() = %d entries, want 1", len(entries))
	}
	if entries[0].Question != "What is the capital of France?" || entries[0].Answer != "Paris" {
		t.Errorf("entry = %+v, first answer must not be overwritten", entries[0])
	}

	cache.Add(ctx, "What is the capital of Spain?", "Madrid")
	if n := client.HLen(ctx, "cache_questions").Val(); n != 2 {
		t.Errorf("HLen = %d, want 2 after adding a distinct question", n)
	}
}

func TestSemanticCache_RemoveAndClear(t *testing.T) {
	client, _ := newTestRedis(t)
	ctx := context.Background()
	cache := NewSemanticCache(client, "cache_questions", 0.98)

	cache.Add(ctx, "first question here", "one")
	cache.Add(ctx, "second unrelated topic", "two")

	cache.Remove(ctx, "User: first question here")
	if _, hit := cache.Check(ctx, "first question here"); hit {
		t.Error("removed entry still hits")
	}
	if _, hit := cache.Check(ctx, "second unrelated topic"); !hit {
		t.Error("remaining entry should still hit")
	}

	cache.Clear(ctx)
	if client.Exists(ctx, "cache_questions").Val() != 0 {
		t.Error("Clear() left the cache hash behind")
	}
}

func TestSemanticCache_StorageFailureDegradesToMiss(t *testing.T) {
	client, mr := newTestRedis(t)
	ctx := context.Background()
	cache := NewSemanticCache(client, "cache_questions", 0.98)
	cache.Add(ctx, "What is the capital of France?", "Paris")

	mr.SetError("ERR simulated failure")
	if _, hit := cache.Check(ctx, "What is the capital of France?"); hit {
		t.Error("Check() should miss when storage fails")
	}
	cache.Add(ctx, "another question", "answer")
	mr.SetError("")

	if n := client.HLen(ctx, "cache_questions").Val(); n != 1 {
		t.Errorf("HLen = %d, want 1", n)
	}
}
