package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
}

func TestFolderAdapterDiscoverListsRegularFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "b.pdf", "b")
	writeTempFile(t, dir, "a.pdf", "a")
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	adapter := NewFolderAdapter(dir)
	docs, err := adapter.Discover(context.Background(), Config{}, 0)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 files (subdir excluded), got %d: %+v", len(docs), docs)
	}
	if docs[0].Filename != "a.pdf" || docs[1].Filename != "b.pdf" {
		t.Errorf("expected lexical order a.pdf, b.pdf, got %s, %s", docs[0].Filename, docs[1].Filename)
	}
}

func TestFolderAdapterDiscoverRespectsBatchSize(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "a.pdf", "a")
	writeTempFile(t, dir, "b.pdf", "b")
	writeTempFile(t, dir, "c.pdf", "c")

	adapter := NewFolderAdapter(dir)
	docs, err := adapter.Discover(context.Background(), Config{}, 2)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected batchSize=2 to cap results, got %d", len(docs))
	}
}

func TestFolderAdapterFetchReturnsFileBytes(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "a.pdf", "hello world")

	adapter := NewFolderAdapter(dir)
	got, err := adapter.Fetch(context.Background(), filepath.Join(dir, "a.pdf"))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(got) != "hello world" {
		t.Errorf("Fetch = %q", got)
	}
}

func TestFolderAdapterValidateRequiresExistingDir(t *testing.T) {
	adapter := NewFolderAdapter(t.TempDir())
	if !adapter.Validate(Config{}) {
		t.Error("expected existing temp dir to validate")
	}
	if adapter.Validate(Config{FolderRoot: "/nonexistent/path/xyz"}) {
		t.Error("expected nonexistent dir to fail validation")
	}
}

func TestFolderAdapterCountCapsAtMax(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "a.pdf", "a")
	writeTempFile(t, dir, "b.pdf", "b")
	writeTempFile(t, dir, "c.pdf", "c")

	adapter := NewFolderAdapter(dir)
	n, err := adapter.Count(context.Background(), Config{}, 2)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("Count with max=2 over 3 files should return 2, got %d", n)
	}
}
