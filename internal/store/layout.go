// Package store persists SchemaPhase rounds, the final schema, the
// synthesized Artifact, and per-document Records to the run directory
// layout of spec.md §6, with an optional sqlite mirror (SPEC_FULL.md §6).
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/theRebelliousNerd/parseforge/internal/errs"
	"github.com/theRebelliousNerd/parseforge/internal/schema"
)

// FileLayout writes the persisted-state file layout spec.md §6 defines:
//
//	<run>/schemas/merged_schema_round_<i>.json
//	<run>/schemas/final_schema.json
//	<run>/parsers/final_parser.<ext>
//	<run>/result/<docId>.json
type FileLayout struct {
	Root string
}

// NewFileLayout returns a FileLayout rooted at runDir. It does not
// create directories eagerly; each Write* method creates its own
// subdirectory on first use.
func NewFileLayout(runDir string) *FileLayout {
	return &FileLayout{Root: runDir}
}

func (l *FileLayout) schemasDir() string { return filepath.Join(l.Root, "schemas") }
func (l *FileLayout) parsersDir() string { return filepath.Join(l.Root, "parsers") }
func (l *FileLayout) resultDir() string  { return filepath.Join(l.Root, "result") }

// WriteRoundSchema persists the merged schema for round i.
func (l *FileLayout) WriteRoundSchema(index int, s *schema.Schema) error {
	return l.writeJSON(l.schemasDir(), roundFileName(index), s)
}

func roundFileName(index int) string {
	return "merged_schema_round_" + strconv.Itoa(index) + ".json"
}

// WriteFinalSchema persists the SchemaPhase's finalSchema.
func (l *FileLayout) WriteFinalSchema(s *schema.Schema) error {
	return l.writeJSON(l.schemasDir(), "final_schema.json", s)
}

// WriteArtifact persists the final synthesized Artifact blob with its
// native extension (e.g. "go").
func (l *FileLayout) WriteArtifact(ext string, source string) error {
	dir := l.parsersDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.New(errs.KindIO, dir, err)
	}
	path := filepath.Join(dir, "final_parser."+ext)
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		return errs.New(errs.KindIO, path, err)
	}
	return nil
}

// WriteResult persists one document's Record (or error entry) keyed by
// document id.
func (l *FileLayout) WriteResult(docID string, payload any) error {
	dir := l.resultDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.New(errs.KindIO, dir, err)
	}
	path := filepath.Join(dir, sanitizeDocID(docID)+".json")
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return errs.New(errs.KindIO, path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.New(errs.KindIO, path, err)
	}
	return nil
}

func (l *FileLayout) writeJSON(dir, name string, v any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.New(errs.KindIO, dir, err)
	}
	path := filepath.Join(dir, name)
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errs.New(errs.KindIO, path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.New(errs.KindIO, path, err)
	}
	return nil
}

// sanitizeDocID replaces path separators so a document id can be used as
// a flat filename under result/.
func sanitizeDocID(id string) string {
	out := make([]rune, 0, len(id))
	for _, r := range id {
		switch r {
		case '/', '\\', ':':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

