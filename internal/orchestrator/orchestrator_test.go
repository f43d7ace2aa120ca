package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theRebelliousNerd/parseforge/internal/config"
	"github.com/theRebelliousNerd/parseforge/internal/logging"
	"github.com/theRebelliousNerd/parseforge/internal/model"
)

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	docs := map[string]string{
		"a.html": "<h1>Widget</h1><p>$9.99</p>",
		"b.html": "<h1>Gadget</h1><p>$4.99</p>",
		"c.html": "<h1>Gizmo</h1><p>$1.99</p>",
	}
	for name, body := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

const artifactSource = `
package artifact

import "strings"

func Extract(simplifiedHTML string) (map[string]string, error) {
	title := ""
	if idx := strings.Index(simplifiedHTML, "<h1>"); idx >= 0 {
		rest := simplifiedHTML[idx+4:]
		if end := strings.Index(rest, "</h1>"); end >= 0 {
			title = rest[:end]
		}
	}
	return map[string]string{"title": title}, nil
}
`

func TestOrchestrator_ExtractWithCode_AppliesArtifactAcrossCorpus(t *testing.T) {
	dir := writeCorpus(t)
	logFactory, err := logging.NewFactory(config.DefaultLoggingConfig())
	require.NoError(t, err)

	o, err := New(*config.Default(), model.NewFixtureClient(), logFactory, "")
	require.NoError(t, err)

	res, err := o.ExtractWithCode(context.Background(), dir, artifactSource)
	require.NoError(t, err)
	assert.Equal(t, 3, res.SuccessCount)
	assert.Equal(t, 0, res.FailedCount)
}

func TestOrchestrator_Classify_PartitionsCorpus(t *testing.T) {
	dir := writeCorpus(t)
	logFactory, err := logging.NewFactory(config.DefaultLoggingConfig())
	require.NoError(t, err)

	o, err := New(*config.Default(), model.NewFixtureClient(), logFactory, "")
	require.NoError(t, err)

	res, err := o.Classify(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, res.Clusters, 3)
	assert.Len(t, res.DocumentIDs, 3)
}

func TestOrchestrator_ExtractSchema_UsesFixtureReplies(t *testing.T) {
	dir := writeCorpus(t)
	logFactory, err := logging.NewFactory(config.DefaultLoggingConfig())
	require.NoError(t, err)

	replies := []string{
		`{"title":{"type":"string","valueSamples":["Widget"],"locators":["h1"]}}`,
		`{"title":{"type":"string","valueSamples":["Gadget"],"locators":["h1"]},"price":{"type":"float","valueSamples":["$4.99"],"locators":["p"]}}`,
	}
	client := model.NewFixtureClient(replies...)
	o, err := New(*config.Default(), client, logFactory, "")
	require.NoError(t, err)

	res, err := o.ExtractSchema(context.Background(), dir, 2, nil)
	require.NoError(t, err)
	require.NotNil(t, res.FinalSchema)
	assert.Contains(t, res.FinalSchema.Names(), "title")
	assert.Contains(t, res.FinalSchema.Names(), "price")
}

func TestOrchestrator_PersistsToRunDir(t *testing.T) {
	dir := writeCorpus(t)
	runDir := t.TempDir()
	logFactory, err := logging.NewFactory(config.DefaultLoggingConfig())
	require.NoError(t, err)

	o, err := New(*config.Default(), model.NewFixtureClient(), logFactory, runDir)
	require.NoError(t, err)

	_, err = o.ExtractWithCode(context.Background(), dir, artifactSource)
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(runDir, "result"))
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}
