package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMediaResolver(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "plug.jpg"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	m := NewMediaResolver(dir)

	if got, ok := m.Resolve("plug.jpg"); !ok || got != filepath.Join(dir, "plug.jpg") {
		t.Fatalf("resolve = %q, %v", got, ok)
	}
	if _, ok := m.Resolve("missing.jpg"); ok {
		t.Fatal("missing file resolved")
	}
	if _, ok := m.Resolve("../../../etc/passwd"); ok {
		t.Fatal("traversal resolved outside media dir")
	}
	if _, ok := (*MediaResolver)(nil).Resolve("plug.jpg"); ok {
		t.Fatal("nil resolver resolved")
	}
}
