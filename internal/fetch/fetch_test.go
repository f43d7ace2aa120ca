package fetch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theRebelliousNerd/parseforge/internal/errs"
)

func TestFileFetcher_ReadsRelativeID(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "a.html"), []byte("<html><script>x</script><h1>Hi</h1></html>"), 0o644))

	f := NewFileFetcher(dir)
	res, err := f.Fetch(context.Background(), "sub/a.html")
	require.NoError(t, err)
	assert.Contains(t, res.OriginalHTML, "<script>")
	assert.NotContains(t, res.SimplifiedHTML, "<script>")
}

func TestFileFetcher_ReadsAbsoluteID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.html")
	require.NoError(t, os.WriteFile(path, []byte("<h1>Hi</h1>"), 0o644))

	f := NewFileFetcher(dir)
	res, err := f.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, res.OriginalHTML, "Hi")
}

func TestFileFetcher_MissingFileIsFetchError(t *testing.T) {
	f := NewFileFetcher(t.TempDir())
	_, err := f.Fetch(context.Background(), "missing.html")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindFetch))
}

func TestFileFetcher_CancelledContext(t *testing.T) {
	f := NewFileFetcher(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Fetch(ctx, "anything.html")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindCancelled))
}
