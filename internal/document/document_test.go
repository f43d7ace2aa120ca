package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theRebelliousNerd/parseforge/internal/errs"
)

func TestListCorpusFiles_SortedByAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c.html", "a.htm", "b.html", "ignore.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("<html></html>"), 0o644))
	}

	files, err := ListCorpusFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{"a.htm", "b.html", "c.html"}, names)
}

func TestListCorpusFiles_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "only.html")
	require.NoError(t, os.WriteFile(path, []byte("<html></html>"), 0o644))

	files, err := ListCorpusFiles(path)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestListCorpusFiles_EmptyIsConfigError(t *testing.T) {
	dir := t.TempDir()
	_, err := ListCorpusFiles(dir)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindConfig))
}

func TestIDForPath_UsesForwardSlashes(t *testing.T) {
	id := IDForPath("/corpus", filepath.FromSlash("/corpus/sub/page.html"))
	assert.Equal(t, "sub/page.html", id)
}
