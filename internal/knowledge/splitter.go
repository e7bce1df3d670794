package knowledge

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/google/uuid"
)

// Splitter 按分隔符切分文本并合并为带重叠的切片
// 长度按字符 (rune) 计算
type Splitter struct {
	Separator    string
	ChunkSize    int
	ChunkOverlap int
}

// NewSplitter 创建切分器，默认以换行切分，1000 字符，重叠 200
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	return &Splitter{
		Separator:    "\n",
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	}
}

// Split 切分文本
func (s *Splitter) Split(text string) []string {
	var splits []string
	for _, part := range strings.Split(text, s.Separator) {
		if part != "" {
			splits = append(splits, part)
		}
	}
	return s.merge(splits)
}

// merge 贪心合并片段，超过 ChunkSize 时输出并从头部丢弃片段直到不超过 ChunkOverlap
func (s *Splitter) merge(splits []string) []string {
	sepLen := utf8.RuneCountInString(s.Separator)

	var (
		chunks  []string
		current []string
		total   int
	)
	joinLen := func() int {
		if len(current) > 0 {
			return sepLen
		}
		return 0
	}

	for _, part := range splits {
		partLen := utf8.RuneCountInString(part)

		if total+partLen+joinLen() > s.ChunkSize {
			if total > s.ChunkSize {
				logx.Warn("Created a chunk of size %d, which is longer than the specified %d", total, s.ChunkSize)
			}
			if len(current) > 0 {
				if chunk := s.join(current); chunk != "" {
					chunks = append(chunks, chunk)
				}
				for total > s.ChunkOverlap || (total+partLen+joinLen() > s.ChunkSize && total > 0) {
					drop := utf8.RuneCountInString(current[0])
					if len(current) > 1 {
						drop += sepLen
					}
					total -= drop
					current = current[1:]
				}
			}
		}

		current = append(current, part)
		total += partLen
		if len(current) > 1 {
			total += sepLen
		}
	}

	if chunk := s.join(current); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func (s *Splitter) join(parts []string) string {
	return strings.TrimSpace(strings.Join(parts, s.Separator))
}

// SplitDocuments 切分一组文档，按顺序分配位置和 ID
func (s *Splitter) SplitDocuments(docs []SourceDocument) []Chunk {
	var chunks []Chunk
	for _, doc := range docs {
		parts := s.Split(doc.Content)
		for i, part := range parts {
			chunks = append(chunks, Chunk{
				ID:       uuid.NewString(),
				Content:  part,
				Source:   doc.Source,
				Position: len(chunks),
				Metadata: map[string]string{
					"source":      doc.Source,
					"chunk_index": strconv.Itoa(i),
				},
			})
		}
		logx.Info("Split document '%s' into %d chunks", doc.Source, len(parts))
	}
	return chunks
}
