package knowledge

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cnb.cool/zhiqiangwang/pkg/logx"

	"github.com/tanakon8529/micro-ai-chatbot/internal/database"
	"github.com/tanakon8529/micro-ai-chatbot/internal/model"
)

// 持久化文件
const (
	VectorFileName = "index.vec"
	TableFileName  = "index.db"

	vectorMagic   = "CBVI"
	vectorVersion = uint32(1)
	insertBatch   = 100
)

type vectorHeader struct {
	Magic   [4]byte
	Version uint32
	Dim     uint32
	Count   uint32
}

// ArtifactsExist 向量文件和旁路表是否都存在
func ArtifactsExist(dir string) bool {
	for _, name := range []string{VectorFileName, TableFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

// RemoveArtifacts 删除持久化文件，不存在时忽略
func RemoveArtifacts(dir string) error {
	for _, name := range []string{VectorFileName, TableFileName} {
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete %s: %w", path, err)
		}
		logx.Debug("Deleted index artifact: %s", path)
	}
	return nil
}

// SaveIndex 将索引写入 dir: 二进制向量文件 + SQLite 旁路表
func SaveIndex(dir string, ix *Index) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	if err := RemoveArtifacts(dir); err != nil {
		return err
	}

	if err := saveTable(filepath.Join(dir, TableFileName), ix); err != nil {
		return err
	}
	// 向量文件最后写入，先写临时文件再重命名
	if err := saveVectors(filepath.Join(dir, VectorFileName), ix); err != nil {
		return err
	}

	logx.Info("💾 Vector index persisted at %s (%d chunks, dim=%d)", dir, ix.Len(), ix.Dim())
	return nil
}

func saveVectors(path string, ix *Index) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create vector file: %w", err)
	}

	w := bufio.NewWriter(f)
	header := vectorHeader{Version: vectorVersion, Dim: uint32(ix.dim), Count: uint32(len(ix.vectors))}
	copy(header.Magic[:], vectorMagic)

	err = binary.Write(w, binary.LittleEndian, header)
	for i := 0; err == nil && i < len(ix.vectors); i++ {
		err = binary.Write(w, binary.LittleEndian, ix.vectors[i])
	}
	if err == nil {
		err = w.Flush()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write vector file: %w", err)
	}

	return os.Rename(tmp, path)
}

func saveTable(path string, ix *Index) error {
	db, err := database.OpenIndexTable(path)
	if err != nil {
		return err
	}
	defer database.Close(db)

	rows := make([]model.KnowledgeChunk, 0, len(ix.chunks))
	for _, c := range ix.chunks {
		meta, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode chunk metadata: %w", err)
		}
		rows = append(rows, model.KnowledgeChunk{
			Position: c.Position,
			ChunkID:  c.ID,
			Source:   c.Source,
			Content:  c.Content,
			Metadata: string(meta),
		})
	}
	if len(rows) == 0 {
		return nil
	}

	if err := db.CreateInBatches(rows, insertBatch).Error; err != nil {
		return fmt.Errorf("failed to write index side-table: %w", err)
	}
	return nil
}

// LoadIndex 从 dir 读取持久化的索引
func LoadIndex(dir string) (*Index, error) {
	vectors, dim, err := loadVectors(filepath.Join(dir, VectorFileName))
	if err != nil {
		return nil, err
	}

	chunks, err := loadTable(filepath.Join(dir, TableFileName))
	if err != nil {
		return nil, err
	}

	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("index side-table has %d rows but vector file has %d vectors", len(chunks), len(vectors))
	}

	ix := &Index{dim: dim, vectors: vectors, chunks: chunks}
	logx.Info("📂 Loaded vector index from %s (%d chunks, dim=%d)", dir, ix.Len(), ix.Dim())
	return ix, nil
}

func loadVectors(path string) ([][]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open vector file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var header vectorHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, 0, fmt.Errorf("failed to read vector file header: %w", err)
	}
	if string(header.Magic[:]) != vectorMagic {
		return nil, 0, fmt.Errorf("invalid vector file: bad magic %q", header.Magic[:])
	}
	if header.Version != vectorVersion {
		return nil, 0, fmt.Errorf("unsupported vector file version %d", header.Version)
	}

	vectors := make([][]float32, header.Count)
	for i := range vectors {
		vec := make([]float32, header.Dim)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return nil, 0, fmt.Errorf("failed to read vector %d: %w", i, err)
		}
		vectors[i] = vec
	}

	if _, err := r.ReadByte(); err != io.EOF {
		return nil, 0, fmt.Errorf("invalid vector file: trailing data")
	}
	return vectors, int(header.Dim), nil
}

func loadTable(path string) ([]Chunk, error) {
	db, err := database.OpenIndexTable(path)
	if err != nil {
		return nil, err
	}
	defer database.Close(db)

	var rows []model.KnowledgeChunk
	if err := db.Order("position ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read index side-table: %w", err)
	}

	chunks := make([]Chunk, len(rows))
	for i, row := range rows {
		if row.Position != i {
			return nil, fmt.Errorf("index side-table is missing position %d", i)
		}
		meta := make(map[string]string)
		if row.Metadata != "" {
			if err := json.Unmarshal([]byte(row.Metadata), &meta); err != nil {
				logx.Warn("Failed to parse metadata for chunk %d: %v", i, err)
			}
		}
		chunks[i] = Chunk{
			ID:       row.ChunkID,
			Content:  row.Content,
			Source:   row.Source,
			Position: row.Position,
			Metadata: meta,
		}
	}
	return chunks, nil
}
