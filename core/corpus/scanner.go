// Package corpus loads documents for the vector store from structured files
// or by scanning a directory tree.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"

	"github.com/adalundhe/semhash/core/vectorstore"
)

// DefaultMaxFileSize is the largest file Scan will read (1MB).
const DefaultMaxFileSize int64 = 1 << 20

var (
	// ErrRootPathEmpty indicates the root path was not specified.
	ErrRootPathEmpty = errors.New("root path cannot be empty")

	// ErrRootPathNotDir indicates the root path is not a directory.
	ErrRootPathNotDir = errors.New("root path is not a directory")

	// ErrInvalidPattern indicates a glob pattern could not be compiled.
	ErrInvalidPattern = errors.New("invalid glob pattern")
)

var defaultExcludedDirs = map[string]struct{}{
	".git":         {},
	".semhash":     {},
	"node_modules": {},
	"vendor":       {},
	"dist":         {},
	"build":        {},
	".cache":       {},
}

// ScanConfig controls which files Scan turns into documents.
type ScanConfig struct {
	// Root is the directory to walk.
	Root string

	// Include patterns match against the slash-separated relative path or
	// the base name. Empty means every file.
	Include []string

	// Exclude patterns take precedence over Include.
	Exclude []string

	// MaxFileSize skips larger files. Zero or less uses DefaultMaxFileSize.
	MaxFileSize int64
}

type scanner struct {
	cfg      ScanConfig
	includes []glob.Glob
	excludes []glob.Glob
}

// Scan walks cfg.Root and returns one document per matching file. The
// document ID is the slash-separated path relative to Root; Meta carries
// "path" and "size". Unreadable files are skipped.
func Scan(ctx context.Context, cfg ScanConfig) ([]vectorstore.Document, error) {
	if err := validateRoot(cfg.Root); err != nil {
		return nil, err
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}

	s := &scanner{cfg: cfg}
	var err error
	if s.includes, err = compileGlobs(cfg.Include); err != nil {
		return nil, err
	}
	if s.excludes, err = compileGlobs(cfg.Exclude); err != nil {
		return nil, err
	}

	var docs []vectorstore.Document
	walkErr := filepath.WalkDir(cfg.Root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if os.IsPermission(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if _, skip := defaultExcludedDirs[d.Name()]; skip && path != cfg.Root {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		doc, ok := s.readFile(path, d)
		if ok {
			docs = append(docs, doc)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("scan %s: %w", cfg.Root, walkErr)
	}

	return docs, nil
}

func (s *scanner) readFile(path string, d fs.DirEntry) (vectorstore.Document, bool) {
	rel, err := filepath.Rel(s.cfg.Root, path)
	if err != nil {
		return vectorstore.Document{}, false
	}
	rel = filepath.ToSlash(rel)

	if !s.shouldInclude(rel, d.Name()) {
		return vectorstore.Document{}, false
	}

	info, err := d.Info()
	if err != nil || info.Size() > s.cfg.MaxFileSize {
		return vectorstore.Document{}, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return vectorstore.Document{}, false
	}

	return vectorstore.Document{
		ID:   rel,
		Text: string(data),
		Meta: map[string]any{
			"path": rel,
			"size": info.Size(),
		},
	}, true
}

func (s *scanner) shouldInclude(rel, name string) bool {
	if matchesAny(s.excludes, rel, name) {
		return false
	}
	return len(s.includes) == 0 || matchesAny(s.includes, rel, name)
}

func matchesAny(matchers []glob.Glob, rel, name string) bool {
	for _, m := range matchers {
		if m.Match(rel) || m.Match(name) {
			return true
		}
	}
	return false
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		m, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.Join(ErrInvalidPattern, err)
		}
		matchers = append(matchers, m)
	}
	return matchers, nil
}

func validateRoot(root string) error {
	if root == "" {
		return ErrRootPathEmpty
	}
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return ErrRootPathNotDir
	}
	return nil
}
