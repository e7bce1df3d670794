package knowledge

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/cloudwego/eino/components/embedding"
)

// DefaultTopK 默认检索切片数量
const DefaultTopK = 5

// queryEmbedder 支持单条查询缓存的 embedding 服务
type queryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Options 检索器配置
type Options struct {
	CorpusDir    string
	PersistDir   string
	TopK         int
	ChunkSize    int
	ChunkOverlap int
}

// Retriever 知识检索器，持有当前的向量索引
// 检索持读锁，重建完成后在写锁下替换索引
type Retriever struct {
	mu    sync.RWMutex
	index *Index

	buildMu  sync.Mutex // 同一时间只允许一次构建
	embedder embedding.Embedder
	splitter *Splitter
	opts     Options
}

// NewRetriever 创建知识检索器
func NewRetriever(embedder embedding.Embedder, opts Options) *Retriever {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	return &Retriever{
		embedder: embedder,
		splitter: NewSplitter(opts.ChunkSize, opts.ChunkOverlap),
		opts:     opts,
	}
}

// Open 加载持久化的索引，文件不完整时从语料重新构建
func (r *Retriever) Open(ctx context.Context) error {
	if ArtifactsExist(r.opts.PersistDir) {
		ix, err := LoadIndex(r.opts.PersistDir)
		if err == nil {
			r.swap(ix)
			return nil
		}
		logx.Warn("Failed to load persisted index, rebuilding: %v", err)
	}
	return r.Rebuild(ctx)
}

// Rebuild 删除持久化文件并从语料重新构建索引
// 阻塞操作，构建期间检索仍使用旧索引
func (r *Retriever) Rebuild(ctx context.Context) error {
	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	start := time.Now()
	logx.Info("🔨 Building vector index from %s", r.opts.CorpusDir)

	if err := RemoveArtifacts(r.opts.PersistDir); err != nil {
		logx.Error("Failed to delete existing index artifacts: %v", err)
	}

	docs, err := LoadCorpus(r.opts.CorpusDir)
	if err != nil {
		return err
	}

	chunks := r.splitter.SplitDocuments(docs)
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks were created from corpus %s", r.opts.CorpusDir)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	raw, err := r.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed corpus: %w", err)
	}

	vectors := make([][]float32, len(raw))
	for i, v := range raw {
		vectors[i] = ToFloat32(v)
	}

	ix, err := NewIndex(chunks, vectors)
	if err != nil {
		return err
	}
	if err := SaveIndex(r.opts.PersistDir, ix); err != nil {
		return err
	}

	r.swap(ix)
	logx.Info("✅ Vector index rebuilt: %d chunks in %.2fs", ix.Len(), time.Since(start).Seconds())
	return nil
}

func (r *Retriever) swap(ix *Index) {
	r.mu.Lock()
	r.index = ix
	r.mu.Unlock()
}

// Retrieve 检索与问题最相关的 k 个切片，k<=0 时使用默认值
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]*Document, error) {
	if k <= 0 {
		k = r.opts.TopK
	}

	vec, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.index == nil {
		return nil, ErrIndexNotReady
	}

	hits, err := r.index.Search(ToFloat32(vec), k)
	if err != nil {
		return nil, err
	}

	docs := make([]*Document, len(hits))
	for i, h := range hits {
		docs[i] = &Document{
			ID:       h.Chunk.ID,
			Content:  h.Chunk.Content,
			Source:   h.Chunk.Source,
			Score:    float64(h.Score),
			Metadata: h.Chunk.Metadata,
		}
	}

	logx.Debug("Vector search found %d documents (query embedding dim=%d)", len(docs), len(vec))
	return docs, nil
}

func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float64, error) {
	if qe, ok := r.embedder.(queryEmbedder); ok {
		return qe.Embed(ctx, query)
	}

	vectors, err := r.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

// Len 返回当前索引中的切片数量
func (r *Retriever) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.index == nil {
		return 0
	}
	return r.index.Len()
}

// Info 返回索引概况: 切片总数和前五个切片的预览
func (r *Retriever) Info() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.index == nil {
		return "Vector store is not initialized."
	}
	if r.index.Len() == 0 {
		return "Vector store is empty."
	}

	chunks := r.index.Chunks()
	var b strings.Builder
	fmt.Fprintf(&b, "Vector store contains %d total documents.\n\n", len(chunks))
	b.WriteString("Sample of document contents:\n")
	for i := 0; i < len(chunks) && i < 5; i++ {
		fmt.Fprintf(&b, "\n%d. Content: %s...\n", i+1, preview(chunks[i].Content, 200))
		if chunks[i].Source != "" {
			fmt.Fprintf(&b, "   Source: %s\n", chunks[i].Source)
		}
		b.WriteString("---\n")
	}
	return b.String()
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return strings.TrimSpace(strings.ReplaceAll(string(r), "\n", " "))
}
