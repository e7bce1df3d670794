package memory

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// sparseVector 稀疏向量: 词表下标 -> 权重
type sparseVector map[int]float64

// TFIDF 在一组问题上拟合的 TF-IDF 模型
// 与常见实现保持一致: 小写化、至少两个字符的词、平滑 idf、L2 归一化
type TFIDF struct {
	vocabulary map[string]int
	idf        []float64
	docs       []sparseVector
}

// FitTFIDF 基于语料拟合模型，并计算语料中每个文档的向量
func FitTFIDF(corpus []string) *TFIDF {
	m := &TFIDF{vocabulary: make(map[string]int)}

	tokenized := make([][]string, len(corpus))
	docFreq := make(map[int]int)
	for i, doc := range corpus {
		tokens := tokenize(doc)
		tokenized[i] = tokens

		seen := make(map[int]bool, len(tokens))
		for _, tok := range tokens {
			idx, ok := m.vocabulary[tok]
			if !ok {
				idx = len(m.vocabulary)
				m.vocabulary[tok] = idx
			}
			if !seen[idx] {
				seen[idx] = true
				docFreq[idx]++
			}
		}
	}

	n := float64(len(corpus))
	m.idf = make([]float64, len(m.vocabulary))
	for idx := range m.idf {
		m.idf[idx] = math.Log((1+n)/(1+float64(docFreq[idx]))) + 1
	}

	m.docs = make([]sparseVector, len(corpus))
	for i, tokens := range tokenized {
		m.docs[i] = m.vectorize(tokens)
	}
	return m
}

// Len 返回语料中文档数
func (m *TFIDF) Len() int {
	return len(m.docs)
}

// Similarities 计算 text 与语料中每个文档的余弦相似度，结果位于 [0,1]
func (m *TFIDF) Similarities(text string) []float64 {
	query := m.vectorize(tokenize(text))
	scores := make([]float64, len(m.docs))
	for i, doc := range m.docs {
		scores[i] = dot(query, doc)
	}
	return scores
}

// Best 返回相似度最高的文档下标和分数；多个最大值时取第一个
func (m *TFIDF) Best(text string) (int, float64) {
	scores := m.Similarities(text)
	if len(scores) == 0 {
		return -1, 0
	}

	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	return best, scores[best]
}

// vectorize 计算 L2 归一化的 tf-idf 向量，未登录词被忽略
func (m *TFIDF) vectorize(tokens []string) sparseVector {
	vec := make(sparseVector)
	for _, tok := range tokens {
		if idx, ok := m.vocabulary[tok]; ok {
			vec[idx]++
		}
	}

	var norm float64
	for idx, tf := range vec {
		w := tf * m.idf[idx]
		vec[idx] = w
		norm += w * w
	}
	if norm == 0 {
		return vec
	}

	norm = math.Sqrt(norm)
	for idx := range vec {
		vec[idx] /= norm
	}
	return vec
}

func dot(a, b sparseVector) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	var sum float64
	for idx, w := range a {
		sum += w * b[idx]
	}
	// 浮点误差可能略超过 1
	return math.Min(sum, 1)
}

// tokenize 小写化并按非单词字符切分，丢弃单字符的词
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_')
	})

	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
