package knowledge

import (
	"context"
	"hash/fnv"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/cloudwego/eino/components/embedding"
)

const fakeDim = 256

// hashEmbedder 按词哈希到固定维度的词袋向量，相同词越多越相似
type hashEmbedder struct {
	calls atomic.Int64
	texts atomic.Int64
}

func (e *hashEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	e.calls.Add(1)
	e.texts.Add(int64(len(texts)))
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = hashVector(t)
	}
	return out, nil
}

func hashVector(text string) []float64 {
	vec := make([]float64, fakeDim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%fakeDim]++
	}
	vec[fakeDim-1] += 0.01
	return vec
}
