// Package fetch implements HtmlFetcher (spec.md §4.7 / §6): path or URL
// in, {original, simplified} HTML out. Declared an external collaborator
// in spec.md §1, but shipped here with two concrete implementations so
// the pipeline is runnable without a caller-supplied Fetcher.
package fetch

import (
	"context"
	"os"
	"path/filepath"

	"github.com/theRebelliousNerd/parseforge/internal/errs"
	"github.com/theRebelliousNerd/parseforge/internal/simplify"
)

// Result is the {original, simplified} pair an HtmlFetcher produces for
// one Document id.
type Result struct {
	OriginalHTML   string
	SimplifiedHTML string
}

// Fetcher resolves a Document id (a corpus-relative path, or a URL when
// driven by BrowserFetcher) to its original and simplified HTML.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (Result, error)
}

// FileFetcher reads id as a filesystem path relative to Root.
type FileFetcher struct {
	Root string
}

// NewFileFetcher returns a Fetcher rooted at a corpus directory (or the
// single file's directory, for a single-document corpus).
func NewFileFetcher(root string) *FileFetcher {
	return &FileFetcher{Root: root}
}

// Fetch reads the file named by id, a corpus-root-relative slash-separated
// path as produced by document.IDForPath, and simplifies it. An
// already-absolute id (what IDForPath returns when filepath.Rel fails)
// is read as-is.
func (f *FileFetcher) Fetch(ctx context.Context, id string) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, errs.New(errs.KindCancelled, id, ctx.Err())
	default:
	}

	path := id
	if !filepath.IsAbs(id) {
		path = filepath.Join(f.Root, filepath.FromSlash(id))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, errs.New(errs.KindFetch, id, err)
	}
	original := string(data)
	return Result{
		OriginalHTML:   original,
		SimplifiedHTML: simplify.Simplify(original),
	}, nil
}
