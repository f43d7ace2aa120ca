// Package document defines the immutable Document value and corpus
// ingestion (spec.md §3, §6).
package document

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/theRebelliousNerd/parseforge/internal/errs"
)

// Document is an immutable HTML input, created on ingest and destroyed
// at the end of a run (spec.md §3). ID is derived from the file path.
type Document struct {
	ID             string
	OriginalHTML   string
	SimplifiedHTML string
}

// htmlExtensions are the file suffixes treated as corpus members
// (spec.md §6: "every *.html / *.htm file").
var htmlExtensions = map[string]bool{".html": true, ".htm": true}

// ListCorpusFiles resolves a corpus path to a sorted slice of file
// paths. If path is a file, it is the sole entry, exactly as given. If a
// directory, every *.html/*.htm file under it is returned as an absolute
// path, sorted by absolute path
// (spec.md §6). An empty result is a ConfigError (spec.md §8 boundary:
// "Empty corpus -> ConfigError").
func ListCorpusFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errs.New(errs.KindIO, path, err)
	}

	var files []string
	if !info.IsDir() {
		files = append(files, path)
	} else {
		walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if htmlExtensions[strings.ToLower(filepath.Ext(p))] {
				abs, err := filepath.Abs(p)
				if err != nil {
					return err
				}
				files = append(files, abs)
			}
			return nil
		})
		if walkErr != nil {
			return nil, errs.New(errs.KindIO, path, walkErr)
		}
	}

	sort.Strings(files)

	if len(files) == 0 {
		return nil, errs.New(errs.KindConfig, path, errEmptyCorpus)
	}
	return files, nil
}

var errEmptyCorpus = emptyCorpusError{}

type emptyCorpusError struct{}

func (emptyCorpusError) Error() string { return "corpus contains no *.html/*.htm documents" }

// IDForPath derives a Document id from an absolute file path relative to
// root, using forward slashes regardless of host OS.
func IDForPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}
