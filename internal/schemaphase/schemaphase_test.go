package schemaphase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theRebelliousNerd/parseforge/internal/config"
	"github.com/theRebelliousNerd/parseforge/internal/fetch"
	"github.com/theRebelliousNerd/parseforge/internal/logging"
	"github.com/theRebelliousNerd/parseforge/internal/model"
	"github.com/theRebelliousNerd/parseforge/internal/prompt"
)

func writeFile(dir, name, content string) error {
	return os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644)
}

func newTestLogger(t *testing.T) *logging.Logger {
	t.Helper()
	f, err := logging.NewFactory(config.DefaultLoggingConfig())
	require.NoError(t, err)
	return f.Get(logging.CategorySchemaPhase)
}

func TestSchemaPhase_AutoMode_UnionOfNamesAcrossThreeExemplars(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeFile(dir, "ex1.html", "<h1>Widget</h1><p>$9.99</p>"))
	require.NoError(t, writeFile(dir, "ex2.html", "<h1>Gadget</h1><span class=brand>Acme</span>"))
	require.NoError(t, writeFile(dir, "ex3.html", "<h1>Gizmo</h1><p>$1.99</p><span class=brand>Acme</span>"))

	fetcher := fetch.NewFileFetcher(dir)
	p, err := prompt.New()
	require.NoError(t, err)

	replies := []string{
		`{"title":{"type":"string","description":"name","valueSamples":["Widget"],"locators":["h1"]}}`,
		`{"title":{"type":"string","description":"name","valueSamples":["Gadget"],"locators":["h1"]},"brand":{"type":"string","description":"brand","valueSamples":["Acme"],"locators":["span.brand"]}}`,
		`{"title":{"type":"string","description":"name","valueSamples":["Gizmo"],"locators":["h1"]},"price":{"type":"float","description":"price","valueSamples":["$1.99"],"locators":["p"]},"brand":{"type":"string","description":"brand","valueSamples":["Acme"],"locators":["span.brand"]}}`,
	}
	client := model.NewFixtureClient(replies...)

	phase := New(fetcher, client, p, nil, nil, newTestLogger(t))
	cfg := *config.Default()
	cfg.IterationRounds = 3

	res, err := phase.Run(context.Background(), cfg, []string{"ex1.html", "ex2.html", "ex3.html"}, nil)
	require.NoError(t, err)
	require.False(t, res.Failed)

	names := res.FinalSchema.Names()
	assert.Contains(t, names, "title")
	assert.Contains(t, names, "brand")
	assert.Contains(t, names, "price")
}

func TestSchemaPhase_PredefinedMode_NamesNeverGrow(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeFile(dir, "ex1.html", "<h1>Widget</h1>"))

	fetcher := fetch.NewFileFetcher(dir)
	p, err := prompt.New()
	require.NoError(t, err)

	reply := `{"title":{"type":"string","description":"name","valueSamples":["Widget"],"locators":["h1"]},"extra":{"type":"string","valueSamples":["nope"],"locators":["x"]}}`
	client := model.NewFixtureClient(reply)

	phase := New(fetcher, client, p, nil, nil, newTestLogger(t))
	cfg := *config.Default()
	cfg.SchemaMode = config.SchemaModePredefined
	cfg.PredefinedSchema = []string{"title", "price"}
	cfg.IterationRounds = 1

	res, err := phase.Run(context.Background(), cfg, []string{"ex1.html"}, nil)
	require.NoError(t, err)

	names := res.FinalSchema.Names()
	assert.ElementsMatch(t, []string{"title", "price"}, names)
}

func TestSchemaPhase_ParseFailureRetriesThenFailsRound(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeFile(dir, "ex1.html", "<h1>Widget</h1>"))

	fetcher := fetch.NewFileFetcher(dir)
	p, err := prompt.New()
	require.NoError(t, err)

	client := model.NewFixtureClient("not json", "still not json", "nope")

	phase := New(fetcher, client, p, nil, nil, newTestLogger(t))
	cfg := *config.Default()
	cfg.IterationRounds = 1

	res, err := phase.Run(context.Background(), cfg, []string{"ex1.html"}, nil)
	require.NoError(t, err)
	assert.True(t, res.Failed)
	require.Len(t, res.Rounds, 1)
	assert.True(t, res.Rounds[0].Failed)
}

func TestSchemaPhase_MajorityRoundSuccessIsRequired(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeFile(dir, "ex1.html", "<h1>A</h1>"))
	require.NoError(t, writeFile(dir, "ex2.html", "<h1>B</h1>"))
	require.NoError(t, writeFile(dir, "ex3.html", "<h1>C</h1>"))

	fetcher := fetch.NewFileFetcher(dir)
	p, err := prompt.New()
	require.NoError(t, err)

	client := model.NewFixtureClient(
		`{"title":{"type":"string","valueSamples":["A"],"locators":["h1"]}}`,
		"garbage", "garbage", "garbage",
		"garbage", "garbage", "garbage",
	)

	phase := New(fetcher, client, p, nil, nil, newTestLogger(t))
	cfg := *config.Default()
	cfg.IterationRounds = 3

	res, err := phase.Run(context.Background(), cfg, []string{"ex1.html", "ex2.html", "ex3.html"}, nil)
	require.NoError(t, err)
	assert.True(t, res.Failed, "only 1/3 rounds succeeded, below ceil(3/2)=2")
}

// TestSchemaPhase_EarlyStopConvergenceIsNotFailure covers the case the
// majority threshold must not punish: every exemplar the phase actually
// ran against succeeded and produced the same schema twice in a row, so
// it finalizes early and marks the rest of a large exemplar budget
// Skipped. Those skipped rounds must not count against the threshold.
func TestSchemaPhase_EarlyStopConvergenceIsNotFailure(t *testing.T) {
	dir := t.TempDir()
	var ids []string
	for i := 0; i < 10; i++ {
		name := "ex" + string(rune('0'+i)) + ".html"
		require.NoError(t, writeFile(dir, name, "<h1>Same</h1>"))
		ids = append(ids, name)
	}

	fetcher := fetch.NewFileFetcher(dir)
	p, err := prompt.New()
	require.NoError(t, err)

	reply := `{"title":{"type":"string","description":"name","valueSamples":["Same"],"locators":["h1"]}}`
	client := model.NewFixtureClient(reply)

	phase := New(fetcher, client, p, nil, nil, newTestLogger(t))
	cfg := *config.Default()
	cfg.IterationRounds = 10

	res, err := phase.Run(context.Background(), cfg, ids, nil)
	require.NoError(t, err)
	assert.False(t, res.Failed, "3 executed rounds all succeeded and converged; must not fail just because 7 rounds were skipped")

	var skipped int
	for _, r := range res.Rounds {
		if r.Skipped {
			skipped++
		}
	}
	assert.Equal(t, 7, skipped)
}
