package source

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"

	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/domain"
)

// FolderAdapter is spec.md §6's required adapter: a local filesystem
// directory of documents, one file per document.
type FolderAdapter struct {
	defaultRoot string
}

// NewFolderAdapter constructs a folder adapter defaulting to root when a
// call's Config.FolderRoot is empty.
func NewFolderAdapter(root string) *FolderAdapter {
	return &FolderAdapter{defaultRoot: root}
}

func (a *FolderAdapter) root(cfg Config) string {
	if cfg.FolderRoot != "" {
		return cfg.FolderRoot
	}
	return a.defaultRoot
}

// Validate implements Adapter.Validate: the resolved root must exist and be
// a directory.
func (a *FolderAdapter) Validate(cfg Config) bool {
	root := a.root(cfg)
	if root == "" {
		return false
	}
	info, err := os.Stat(root)
	return err == nil && info.IsDir()
}

// Discover implements Adapter.Discover: lists up to batchSize regular files
// directly under the folder root, in deterministic (lexical) filename
// order, so repeated calls against an unchanged folder are stable.
func (a *FolderAdapter) Discover(ctx context.Context, cfg Config, batchSize int) ([]domain.DocumentInfo, error) {
	root := a.root(cfg)
	if root == "" {
		return nil, fmt.Errorf("folder adapter: no root configured")
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("folder adapter: read dir %s: %w", root, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	if batchSize > 0 && len(names) > batchSize {
		names = names[:batchSize]
	}

	out := make([]domain.DocumentInfo, 0, len(names))
	for _, name := range names {
		full := filepath.Join(root, name)
		info, err := os.Stat(full)
		if err != nil {
			continue
		}
		out = append(out, domain.DocumentInfo{
			SourcePath: full,
			Filename:   name,
			MimeType:   mime.TypeByExtension(filepath.Ext(name)),
			Size:       info.Size(),
		})
	}
	return out, nil
}

// Count implements Adapter.Count.
func (a *FolderAdapter) Count(ctx context.Context, cfg Config, max int) (int, error) {
	root := a.root(cfg)
	if root == "" {
		return 0, fmt.Errorf("folder adapter: no root configured")
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, fmt.Errorf("folder adapter: read dir %s: %w", root, err)
	}
	n := 0
	for _, e := range entries {
		if e.Type().IsRegular() {
			n++
			if max > 0 && n >= max {
				return n, nil
			}
		}
	}
	return n, nil
}

// Fetch implements Adapter.Fetch: sourcePath is the absolute file path
// Discover returned.
func (a *FolderAdapter) Fetch(ctx context.Context, sourcePath string) ([]byte, error) {
	b, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("folder adapter: read %s: %w", sourcePath, err)
	}
	return b, nil
}
