package codephase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theRebelliousNerd/parseforge/internal/config"
	"github.com/theRebelliousNerd/parseforge/internal/evaluate"
	"github.com/theRebelliousNerd/parseforge/internal/logging"
	"github.com/theRebelliousNerd/parseforge/internal/model"
	"github.com/theRebelliousNerd/parseforge/internal/schema"
)

func newTestLogger(t *testing.T) *logging.Logger {
	t.Helper()
	f, err := logging.NewFactory(config.DefaultLoggingConfig())
	require.NoError(t, err)
	return f.Get(logging.CategoryCodePhase)
}

func titleSchema() *schema.Schema {
	s := schema.New()
	s.Set(&schema.FieldSpec{Name: "title", Type: schema.KindString, Locators: []string{"h1"}})
	return s
}

const wrongArtifact = "```go\n" + `package artifact

func Extract(simplifiedHTML string) (map[string]string, error) {
	return map[string]string{"title": "wrong"}, nil
}
` + "\n```"

const correctArtifact = "```go\n" + `package artifact

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
` + "\n```"

func exemplarSet() []Exemplar {
	return []Exemplar{
		{DocumentID: "doc-1", SimplifiedHTML: "<h1>Widget</h1>", Expected: map[string][]string{"title": {"Widget"}}},
	}
}

// TestPhase_RepairReplacesFailingArtifact exercises the generate ->
// verify -> repair loop end to end: the first generated artifact
// extracts the wrong value and fails verification, and the repaired
// artifact passes and becomes the final artifact.
func TestPhase_RepairReplacesFailingArtifact(t *testing.T) {
	client := model.NewFixtureClient(wrongArtifact, correctArtifact)
	p := New(client, nil, nil, time.Second, newTestLogger(t))

	result, err := p.Run(context.Background(), titleSchema(), exemplarSet())
	require.NoError(t, err)
	assert.False(t, result.Failed)
	assert.Contains(t, result.FinalArtifactSource, "strings.Index")

	require.GreaterOrEqual(t, len(result.Iterations), 2)
	assert.False(t, result.Iterations[0].Passed)
	assert.True(t, result.Iterations[1].Passed)
}

func TestEvaluateDiff_UsedByRepair(t *testing.T) {
	diff := evaluate.Diff("title", []string{"Widget"}, []string{"wrong"})
	assert.NotEmpty(t, diff)
	assert.True(t, strings.Contains(diff, "Widget") || strings.Contains(diff, "wrong"))
}

// TestPhase_VerifyHonorsPerExemplarDeadline confirms an artifact that
// never returns fails only its own verify iteration instead of hanging
// the whole CodePhase run (spec.md §4.8 per-call deadline).
func TestPhase_VerifyHonorsPerExemplarDeadline(t *testing.T) {
	hangingArtifact := "```go\n" + `package artifact

func Extract(simplifiedHTML string) (map[string]string, error) {
	for {
	}
}
` + "\n```"

	client := model.NewFixtureClient(hangingArtifact)
	p := New(client, nil, nil, 20*time.Millisecond, newTestLogger(t))

	done := make(chan struct{})
	var result Result
	var err error
	go func() {
		result, err = p.Run(context.Background(), titleSchema(), exemplarSet())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return within the per-exemplar deadline bound")
	}
	require.Error(t, err)
	assert.True(t, result.Failed)
}
