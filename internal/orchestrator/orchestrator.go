// Package orchestrator composes LayoutClusterer, SchemaPhase, CodePhase,
// and BatchRunner into the five public operations spec.md §4.10 names.
package orchestrator

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/theRebelliousNerd/parseforge/internal/batch"
	"github.com/theRebelliousNerd/parseforge/internal/cluster"
	"github.com/theRebelliousNerd/parseforge/internal/codephase"
	"github.com/theRebelliousNerd/parseforge/internal/config"
	"github.com/theRebelliousNerd/parseforge/internal/document"
	"github.com/theRebelliousNerd/parseforge/internal/errs"
	"github.com/theRebelliousNerd/parseforge/internal/fetch"
	"github.com/theRebelliousNerd/parseforge/internal/logging"
	"github.com/theRebelliousNerd/parseforge/internal/model"
	"github.com/theRebelliousNerd/parseforge/internal/prompt"
	"github.com/theRebelliousNerd/parseforge/internal/schema"
	"github.com/theRebelliousNerd/parseforge/internal/schemaphase"
	"github.com/theRebelliousNerd/parseforge/internal/store"
)

// EditGate is re-exported so callers of Orchestrator never need to
// import internal/schemaphase directly.
type EditGate = schemaphase.EditGate

// Orchestrator threads one Config through every phase constructor
// (Design Note "Global configuration": no package-level state).
type Orchestrator struct {
	cfg    config.Config
	client model.Client
	log    *logging.Logger

	layout   *store.FileLayout // nil unless a run directory was configured
	runStore *store.RunStore   // nil unless Config.Store.Enabled
}

// New constructs an Orchestrator. runDir may be empty to disable file
// persistence (in-memory-only operation, used by tests and by
// extract-with-code flows that don't need a schema/artifact trail).
func New(cfg config.Config, client model.Client, logFactory *logging.Factory, runDir string) (*Orchestrator, error) {
	o := &Orchestrator{cfg: cfg, client: client, log: logFactory.Get(logging.CategoryBoot)}

	if runDir != "" {
		o.layout = store.NewFileLayout(runDir)
	}
	if cfg.Store.Enabled {
		path := cfg.Store.Path
		if path == "" && runDir != "" {
			path = filepath.Join(runDir, "store.db")
		}
		if path != "" {
			rs, err := store.OpenRunStore(path)
			if err != nil {
				return nil, err
			}
			o.runStore = rs
		}
	}
	return o, nil
}

// Close releases any open RunStore handle.
func (o *Orchestrator) Close() error {
	if o.runStore != nil {
		return o.runStore.Close()
	}
	return nil
}

// ExtractDataResult is extractData's output.
type ExtractDataResult struct {
	Schema         *schema.Schema
	ArtifactSource string
	Batch          batch.Result
}

// ExtractData runs the full pipeline: SchemaPhase -> optional edit gate
// -> CodePhase -> BatchRunner (spec.md §4.10 "extractData").
func (o *Orchestrator) ExtractData(ctx context.Context, corpusPath string, rounds int, seedSchema *schema.Schema, gate EditGate) (ExtractDataResult, error) {
	schemaResult, exemplars, fetcher, ids, err := o.runSchemaAndGate(ctx, corpusPath, rounds, seedSchema, gate)
	if fetcher != nil {
		defer closeFetcher(fetcher, o.log)
	}
	if err != nil {
		return ExtractDataResult{}, err
	}

	codeResult, err := o.runCodePhase(ctx, schemaResult.FinalSchema, exemplars)
	if err != nil {
		return ExtractDataResult{Schema: schemaResult.FinalSchema}, err
	}

	runner := batch.New(fetcher, codeResult.FinalArtifactSource, o.cfg.BatchWorkers, o.cfg.ExecutorDeadline(), o.log)
	batchResult, err := runner.Run(ctx, ids)
	if err != nil {
		return ExtractDataResult{Schema: schemaResult.FinalSchema, ArtifactSource: codeResult.FinalArtifactSource}, err
	}

	if o.layout != nil {
		for _, entry := range batchResult.Entries {
			payload := entryPayload(entry)
			if werr := o.layout.WriteResult(entry.DocumentID, payload); werr != nil {
				o.log.Warnf("persist result for %s: %v", entry.DocumentID, werr)
			}
		}
	}

	return ExtractDataResult{
		Schema:         schemaResult.FinalSchema,
		ArtifactSource: codeResult.FinalArtifactSource,
		Batch:          batchResult,
	}, nil
}

// ExtractSchemaResult is extractSchema's output.
type ExtractSchemaResult struct {
	FinalSchema        *schema.Schema
	IntermediateSchemas []*schema.Schema
}

// ExtractSchema runs only SchemaPhase (+ optional edit gate), per
// spec.md §4.10 "extractSchema".
func (o *Orchestrator) ExtractSchema(ctx context.Context, corpusPath string, rounds int, gate EditGate) (ExtractSchemaResult, error) {
	schemaResult, _, fetcher, _, err := o.runSchemaAndGate(ctx, corpusPath, rounds, nil, gate)
	if fetcher != nil {
		defer closeFetcher(fetcher, o.log)
	}
	if err != nil {
		return ExtractSchemaResult{}, err
	}
	var intermediate []*schema.Schema
	for _, r := range schemaResult.Rounds {
		if r.SchemaAfter != nil {
			intermediate = append(intermediate, r.SchemaAfter)
		}
	}
	return ExtractSchemaResult{FinalSchema: schemaResult.FinalSchema, IntermediateSchemas: intermediate}, nil
}

// InferCodeResult is inferCode's output.
type InferCodeResult struct {
	Schema         *schema.Schema
	ArtifactSource string
}

// InferCode runs SchemaPhase only if schemaIn is nil, then CodePhase,
// per spec.md §4.10 "inferCode".
func (o *Orchestrator) InferCode(ctx context.Context, corpusPath string, schemaIn *schema.Schema, rounds int) (InferCodeResult, error) {
	var finalSchema *schema.Schema
	var exemplars []codephase.Exemplar

	if schemaIn != nil {
		finalSchema = schemaIn
		fetcher, ids, err := o.resolveCorpus(corpusPath)
		if err != nil {
			return InferCodeResult{}, err
		}
		defer closeFetcher(fetcher, o.log)
		exemplars, err = o.exemplarsFromIDs(ctx, fetcher, ids, finalSchema, rounds)
		if err != nil {
			return InferCodeResult{}, err
		}
	} else {
		schemaResult, ex, fetcher, _, err := o.runSchemaAndGate(ctx, corpusPath, rounds, nil, schemaphase.Identity)
		if fetcher != nil {
			defer closeFetcher(fetcher, o.log)
		}
		if err != nil {
			return InferCodeResult{}, err
		}
		finalSchema = schemaResult.FinalSchema
		exemplars = ex
	}

	codeResult, err := o.runCodePhase(ctx, finalSchema, exemplars)
	if err != nil {
		return InferCodeResult{Schema: finalSchema}, err
	}
	return InferCodeResult{Schema: finalSchema, ArtifactSource: codeResult.FinalArtifactSource}, nil
}

// ExtractWithCode applies a caller-supplied Artifact source across the
// corpus without running either phase, per spec.md §4.10
// "extractWithCode".
func (o *Orchestrator) ExtractWithCode(ctx context.Context, corpusPath, artifactSource string) (batch.Result, error) {
	fetcher, ids, err := o.resolveCorpus(corpusPath)
	if err != nil {
		return batch.Result{}, err
	}
	defer closeFetcher(fetcher, o.log)
	runner := batch.New(fetcher, artifactSource, o.cfg.BatchWorkers, o.cfg.ExecutorDeadline(), o.log)
	result, err := runner.Run(ctx, ids)
	if err != nil {
		return batch.Result{}, err
	}
	if o.layout != nil {
		for _, entry := range result.Entries {
			if werr := o.layout.WriteResult(entry.DocumentID, entryPayload(entry)); werr != nil {
				o.log.Warnf("persist result for %s: %v", entry.DocumentID, werr)
			}
		}
	}
	return result, nil
}

// ClassifyResult is classify's output.
type ClassifyResult struct {
	Clusters []int // label per document id, same order as DocumentIDs
	DocumentIDs []string
	Noise    []string // document ids with label -1
}

// Classify partitions the corpus with LayoutClusterer only, per
// spec.md §4.10 "classify".
func (o *Orchestrator) Classify(ctx context.Context, corpusPath string) (ClassifyResult, error) {
	fetcher, ids, err := o.resolveCorpus(corpusPath)
	if err != nil {
		return ClassifyResult{}, err
	}
	defer closeFetcher(fetcher, o.log)

	rawHTML := make([]string, len(ids))
	for i, id := range ids {
		select {
		case <-ctx.Done():
			return ClassifyResult{}, errs.New(errs.KindCancelled, "classify", ctx.Err())
		default:
		}
		res, ferr := fetcher.Fetch(ctx, id)
		if ferr != nil {
			return ClassifyResult{}, ferr
		}
		rawHTML[i] = res.OriginalHTML
	}

	labels, err := cluster.Cluster(rawHTML, cluster.Options{
		Eps:        o.cfg.ClusterEps,
		MinSamples: o.cfg.ClusterMinSamples,
	})
	if err != nil {
		return ClassifyResult{}, err
	}

	var noise []string
	for i, label := range labels {
		if label == -1 {
			noise = append(noise, ids[i])
		}
	}
	return ClassifyResult{Clusters: labels, DocumentIDs: ids, Noise: noise}, nil
}

// resolveCorpus lists a corpus path and returns a Fetcher rooted at its
// directory plus the corpus-relative document ids. A corpusPath that is
// itself an http(s):// URL is treated as a single-document corpus
// rendered through BrowserFetcher (spec.md §4.6 "HtmlFetcher" accepts
// "a corpus-relative path, or a URL when driven by BrowserFetcher").
func (o *Orchestrator) resolveCorpus(corpusPath string) (fetch.Fetcher, []string, error) {
	if strings.HasPrefix(corpusPath, "http://") || strings.HasPrefix(corpusPath, "https://") {
		bf, err := fetch.NewBrowserFetcher(o.cfg.Browser)
		if err != nil {
			return nil, nil, err
		}
		return bf, []string{corpusPath}, nil
	}

	files, err := document.ListCorpusFiles(corpusPath)
	if err != nil {
		return nil, nil, err
	}
	root := corpusPath
	if len(files) == 1 && files[0] == corpusPath {
		root = filepath.Dir(corpusPath)
	} else if abs, aerr := filepath.Abs(corpusPath); aerr == nil {
		// directory corpus: files are absolute, so root must be too for
		// IDForPath to yield corpus-relative ids.
		root = abs
	}
	ids := make([]string, len(files))
	for i, f := range files {
		ids[i] = document.IDForPath(root, f)
	}
	return fetch.NewFileFetcher(root), ids, nil
}

// runSchemaAndGate runs SchemaPhase, applies the edit gate, and
// re-runs in predefined mode if the gate introduced new field names
// (spec.md §4.6 "Schema Edit gate").
func (o *Orchestrator) runSchemaAndGate(ctx context.Context, corpusPath string, rounds int, seedSchema *schema.Schema, gate EditGate) (schemaphase.Result, []codephase.Exemplar, fetch.Fetcher, []string, error) {
	fetcher, ids, err := o.resolveCorpus(corpusPath)
	if err != nil {
		return schemaphase.Result{}, nil, nil, nil, err
	}

	cfg := o.cfg
	cfg.IterationRounds = rounds
	exemplarIDs := pickExemplars(ids, rounds)

	prompter, err := prompt.New()
	if err != nil {
		return schemaphase.Result{}, nil, nil, nil, err
	}

	phase := schemaphase.New(fetcher, o.client, prompter, o.layout, o.runStore, o.log)
	result, err := phase.Run(ctx, cfg, exemplarIDs, seedSchema)
	if err != nil {
		return result, nil, fetcher, ids, err
	}

	if gate != nil {
		before := result.FinalSchema.Names()
		edited, gerr := gate(result.FinalSchema)
		if gerr != nil {
			return result, nil, fetcher, ids, errs.New(errs.KindInternal, "edit gate", gerr)
		}
		if introducesNewNames(before, edited.Names()) {
			predefCfg := cfg
			predefCfg.SchemaMode = config.SchemaModePredefined
			predefCfg.PredefinedSchema = edited.Names()
			result, err = phase.Run(ctx, predefCfg, exemplarIDs, edited)
			if err != nil {
				return result, nil, fetcher, ids, err
			}
		} else {
			result.FinalSchema = edited
		}
	}

	exemplars, err := o.exemplarsFromRounds(ctx, fetcher, result.Rounds)
	if err != nil {
		return result, nil, fetcher, ids, err
	}
	return result, exemplars, fetcher, ids, nil
}

func (o *Orchestrator) runCodePhase(ctx context.Context, finalSchema *schema.Schema, exemplars []codephase.Exemplar) (codephase.Result, error) {
	phase := codephase.New(o.client, o.layout, o.runStore, o.cfg.ExecutorDeadline(), o.log)
	return phase.Run(ctx, finalSchema, exemplars)
}

func (o *Orchestrator) exemplarsFromRounds(ctx context.Context, fetcher fetch.Fetcher, rounds []schemaphase.Round) ([]codephase.Exemplar, error) {
	simplified := map[string]string{}
	for _, r := range rounds {
		if r.Failed {
			continue
		}
		if _, ok := simplified[r.ExemplarID]; ok {
			continue
		}
		res, err := fetcher.Fetch(ctx, r.ExemplarID)
		if err != nil {
			return nil, err
		}
		simplified[r.ExemplarID] = res.SimplifiedHTML
	}
	return codephase.RoundsToExemplars(rounds, simplified), nil
}

func (o *Orchestrator) exemplarsFromIDs(ctx context.Context, fetcher fetch.Fetcher, ids []string, s *schema.Schema, rounds int) ([]codephase.Exemplar, error) {
	exemplarIDs := pickExemplars(ids, rounds)
	var out []codephase.Exemplar
	for _, id := range exemplarIDs {
		res, err := fetcher.Fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		expected := map[string][]string{}
		for _, name := range s.Names() {
			expected[name] = s.Get(name).ValueSamples
		}
		out = append(out, codephase.Exemplar{DocumentID: id, SimplifiedHTML: res.SimplifiedHTML, Expected: expected})
	}
	return out, nil
}

// pickExemplars takes the first n document ids (already sorted by
// document.ListCorpusFiles), clamped to the corpus size.
func pickExemplars(ids []string, n int) []string {
	if n > len(ids) {
		n = len(ids)
	}
	return append([]string(nil), ids[:n]...)
}

func introducesNewNames(before, after []string) bool {
	existing := make(map[string]bool, len(before))
	for _, n := range before {
		existing[n] = true
	}
	for _, n := range after {
		if !existing[n] {
			return true
		}
	}
	return false
}

// closeFetcher releases a BrowserFetcher's browser process. FileFetcher
// holds no resources and doesn't implement io.Closer.
func closeFetcher(f fetch.Fetcher, log *logging.Logger) {
	if c, ok := f.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Warnf("close fetcher: %v", err)
		}
	}
}

func entryPayload(e batch.Entry) any {
	if e.Err != nil {
		return map[string]string{"error": e.Err.Error()}
	}
	return e.Record
}
