package knowledge

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadCorpus(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.md", "# Beta\ncontent")
	writeFile(t, dir, "a.txt", "alpha content")
	writeFile(t, dir, "nested/c.TXT", "gamma content")
	writeFile(t, dir, "manual.pdf", "%PDF-1.4 binary")
	writeFile(t, dir, "empty.txt", "   \n")
	writeFile(t, dir, "image.png", "png")

	docs, err := LoadCorpus(dir)
	if err != nil {
		t.Fatalf("LoadCorpus() error = %v", err)
	}

	want := []string{"a.txt", "b.md", "nested/c.TXT"}
	if len(docs) != len(want) {
		t.Fatalf("LoadCorpus() = %d docs, want %d", len(docs), len(want))
	}
	for i, src := range want {
		if docs[i].Source != src {
			t.Errorf("docs[%d].Source = %q, want %q", i, docs[i].Source, src)
		}
	}
}

func TestLoadCorpus_Errors(t *testing.T) {
	if _, err := LoadCorpus(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("LoadCorpus() on missing dir should fail")
	}

	dir := t.TempDir()
	writeFile(t, dir, "only.pdf", "%PDF")
	if _, err := LoadCorpus(dir); err == nil {
		t.Error("LoadCorpus() with no text documents should fail")
	}
}
