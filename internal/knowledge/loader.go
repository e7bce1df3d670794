package knowledge

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cnb.cool/zhiqiangwang/pkg/logx"
)

// supportedExtensions 可直接读取的文本格式
var supportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// IsCorpusFile 判断文件是否会被加载进语料
func IsCorpusFile(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// LoadCorpus 递归加载目录下的文本文档，按路径排序
// PDF 等二进制格式会被跳过并记录警告
func LoadCorpus(dir string) ([]SourceDocument, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("corpus directory does not exist at path: %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus path is not a directory: %s", dir)
	}

	var docs []SourceDocument
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		if !IsCorpusFile(path) {
			if strings.EqualFold(filepath.Ext(path), ".pdf") {
				logx.Warn("Skip PDF file %s: only plain text documents are indexed", path)
			}
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			logx.Warn("Skip empty document %s", path)
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		docs = append(docs, SourceDocument{
			Source:  filepath.ToSlash(rel),
			Content: string(content),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents found in directory: %s", dir)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Source < docs[j].Source })
	logx.Info("Loaded %d documents from %s", len(docs), dir)
	return docs, nil
}
