package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theRebelliousNerd/parseforge/internal/schema"
)

func TestFileLayout_WriteRoundSchema(t *testing.T) {
	dir := t.TempDir()
	l := NewFileLayout(dir)

	s := schema.New()
	s.Set(&schema.FieldSpec{Name: "title", Type: schema.KindString, Locators: []string{"h1"}})

	require.NoError(t, l.WriteRoundSchema(0, s))

	path := filepath.Join(dir, "schemas", "merged_schema_round_0.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got schema.Schema
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, []string{"title"}, got.Order)
}

func TestFileLayout_WriteFinalSchemaAndArtifact(t *testing.T) {
	dir := t.TempDir()
	l := NewFileLayout(dir)

	s := schema.New()
	s.Set(&schema.FieldSpec{Name: "price", Type: schema.KindFloat})
	require.NoError(t, l.WriteFinalSchema(s))
	assert.FileExists(t, filepath.Join(dir, "schemas", "final_schema.json"))

	require.NoError(t, l.WriteArtifact("go", "package main\n"))
	assert.FileExists(t, filepath.Join(dir, "parsers", "final_parser.go"))
}

func TestFileLayout_WriteResult_SanitizesDocID(t *testing.T) {
	dir := t.TempDir()
	l := NewFileLayout(dir)

	require.NoError(t, l.WriteResult("sub/dir:item.html", map[string]string{"title": "x"}))
	assert.FileExists(t, filepath.Join(dir, "result", "sub_dir_item.html.json"))
}

func TestRunStore_InsertAndQuery(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenRunStore(filepath.Join(dir, "store.db"))
	require.NoError(t, err)
	defer s.Close()

	before := schema.New()
	after := schema.New()
	after.Set(&schema.FieldSpec{Name: "title", Type: schema.KindString})

	require.NoError(t, s.InsertRound(0, "doc-1", before, after, "discovered 1 field"))
	require.NoError(t, s.InsertIteration(0, "package main\n", false, 0.4))
	require.NoError(t, s.InsertEvaluation(0, "title", 1.0, 0.2, 0.33))

	var roundCount int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM rounds`).Scan(&roundCount))
	assert.Equal(t, 1, roundCount)

	var f1 float64
	require.NoError(t, s.db.QueryRow(`SELECT f1 FROM evaluations WHERE field = ?`, "title").Scan(&f1))
	assert.InDelta(t, 0.33, f1, 1e-9)
}

func TestRunStore_InsertRoundUpsertsByIndex(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenRunStore(filepath.Join(dir, "store.db"))
	require.NoError(t, err)
	defer s.Close()

	before := schema.New()
	after := schema.New()

	require.NoError(t, s.InsertRound(0, "doc-1", before, after, "first"))
	require.NoError(t, s.InsertRound(0, "doc-1", before, after, "second"))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM rounds`).Scan(&count))
	assert.Equal(t, 1, count)
}
