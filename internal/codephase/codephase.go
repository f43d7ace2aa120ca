// Package codephase implements CodePhase (spec.md §4.7): the
// generate/verify/repair loop that synthesizes a deterministic Artifact
// from finalSchema and exemplar HTML.
package codephase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/theRebelliousNerd/parseforge/internal/errs"
	"github.com/theRebelliousNerd/parseforge/internal/evaluate"
	"github.com/theRebelliousNerd/parseforge/internal/executor"
	"github.com/theRebelliousNerd/parseforge/internal/logging"
	"github.com/theRebelliousNerd/parseforge/internal/model"
	"github.com/theRebelliousNerd/parseforge/internal/schema"
	"github.com/theRebelliousNerd/parseforge/internal/schemaphase"
	"github.com/theRebelliousNerd/parseforge/internal/shapecheck"
	"github.com/theRebelliousNerd/parseforge/internal/store"
)

const (
	generateRetries = 3   // R, spec.md §4.7 step 1
	repairAttempts  = 3   // M, spec.md §4.7 step 3
	passThreshold   = 0.8 // τ, spec.md §4.7 step 2
)

// Exemplar pairs one SchemaPhase round's document with its expected
// field values, the input CodePhase verifies artifacts against.
type Exemplar struct {
	DocumentID     string
	SimplifiedHTML string
	Expected       map[string][]string // field -> expected sample values
}

// Iteration records one generate-or-repair attempt.
type Iteration struct {
	Index          int
	ArtifactSource string
	Passed         bool
	AggregateF1    float64
	FieldScores    []evaluate.FieldScore
	Err            error
}

// Result is CodePhase's terminal output.
type Result struct {
	FinalArtifactSource string
	Iterations          []Iteration
	Failed              bool
}

// Phase runs the generate/verify/repair loop.
type Phase struct {
	client   model.Client
	layout   *store.FileLayout
	runStore *store.RunStore
	deadline time.Duration // per-exemplar Executor.Extract deadline, spec.md §4.8
	log      *logging.Logger
}

func New(client model.Client, layout *store.FileLayout, runStore *store.RunStore, deadline time.Duration, log *logging.Logger) *Phase {
	return &Phase{client: client, layout: layout, runStore: runStore, deadline: deadline, log: log}
}

// Run synthesizes an Artifact for finalSchema against a set of
// exemplars (one per successful SchemaPhase round, per spec.md §4.7).
func (p *Phase) Run(ctx context.Context, finalSchema *schema.Schema, exemplars []Exemplar) (Result, error) {
	if len(exemplars) == 0 {
		return Result{}, errs.New(errs.KindConfig, "codephase", fmt.Errorf("at least one exemplar is required"))
	}

	var iterations []Iteration
	var bestPassing *Iteration
	var lastSource string
	var lastDiagnostics string

	source, err := p.generate(ctx, finalSchema, exemplars[0], generateRetries)
	if err != nil {
		return Result{Failed: true}, err
	}
	lastSource = source

	for attempt := 0; attempt <= repairAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return Result{Iterations: iterations, Failed: true}, errs.New(errs.KindCancelled, "codephase", ctx.Err())
		default:
		}

		iter, scores, fieldExpected, fieldExtracted := p.verify(ctx, attempt, lastSource, finalSchema, exemplars)
		iterations = append(iterations, iter)

		if p.runStore != nil {
			if werr := p.runStore.InsertIteration(attempt, lastSource, iter.Passed, iter.AggregateF1); werr != nil {
				p.log.Warnf("mirror iteration %d to store: %v", attempt, werr)
			}
			for _, s := range scores {
				if werr := p.runStore.InsertEvaluation(attempt, s.Field, s.Precision, s.Recall, s.F1); werr != nil {
					p.log.Warnf("mirror evaluation for %s: %v", s.Field, werr)
				}
			}
		}

		if iter.Passed {
			if bestPassing == nil || iter.AggregateF1 > bestPassing.AggregateF1 {
				it := iter
				bestPassing = &it
			}
		}

		if attempt == repairAttempts {
			break
		}

		// Keep repairing even after a pass: spec.md's tie-break rule
		// ("highest aggregate F1; on ties, earliest iteration") only
		// matters if more than one iteration can pass, so the loop
		// spends its whole repair budget rather than stopping at the
		// first success.
		repaired, rerr := p.repair(ctx, finalSchema, exemplars, lastSource, iter, scores, fieldExpected, fieldExtracted)
		if rerr != nil {
			lastDiagnostics = rerr.Error()
			break
		}
		lastSource = repaired
	}

	if bestPassing == nil {
		p.log.Warnf("codephase failed after %d iterations: %s", len(iterations), lastDiagnostics)
		return Result{Iterations: iterations, Failed: true, FinalArtifactSource: lastSource},
			errs.New(errs.KindCodeGeneration, "codephase", fmt.Errorf("no iteration passed verification"))
	}

	if p.layout != nil {
		if werr := p.layout.WriteArtifact("go", bestPassing.ArtifactSource); werr != nil {
			p.log.Warnf("persist final artifact: %v", werr)
		}
	}

	return Result{FinalArtifactSource: bestPassing.ArtifactSource, Iterations: iterations}, nil
}

// generate prompts the model for an initial Artifact, retrying parse/
// shape failures up to retries times (spec.md §4.7 step 1).
func (p *Phase) generate(ctx context.Context, s *schema.Schema, exemplar Exemplar, retries int) (string, error) {
	sysMsg := "You are a code-synthesis assistant. Generate a single self-contained " +
		"Go source file declaring `package artifact` with a function " +
		"`func Extract(simplifiedHTML string) (map[string]string, error)` " +
		"that extracts the given fields from simplified HTML using only the " +
		"Go standard library."
	userPrompt := buildGeneratePrompt(s, exemplar)

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		select {
		case <-ctx.Done():
			return "", errs.New(errs.KindCancelled, "codephase generate", ctx.Err())
		default:
		}
		reply, err := p.client.Complete(ctx, sysMsg, userPrompt, false)
		if err != nil {
			lastErr = errs.New(errs.KindModel, "generate", err)
			continue
		}
		source := extractCodeBlock(reply)
		if err := shapecheck.Check(source); err != nil {
			lastErr = errs.New(errs.KindCodeGeneration, "generate shape check", err)
			continue
		}
		return source, nil
	}
	return "", lastErr
}

// verify runs the Artifact under Executor against every exemplar and
// scores it with the Evaluator (spec.md §4.7 step 2).
func (p *Phase) verify(ctx context.Context, index int, source string, s *schema.Schema, exemplars []Exemplar) (Iteration, []evaluate.FieldScore, map[string][]string, map[string][]string) {
	ex, err := executor.New(source)
	if err != nil {
		return Iteration{Index: index, ArtifactSource: source, Err: err}, nil, nil, nil
	}

	fieldExtracted := map[string][]string{}
	fieldExpected := map[string][]string{}
	var runErr error

	for _, exemplar := range exemplars {
		// A fresh per-exemplar deadline (spec.md §4.8), same isolation
		// guarantee BatchRunner gives each document: one exemplar
		// hanging must not stall verification of the rest.
		extractCtx, cancel := context.WithTimeout(ctx, p.deadline)
		rec, err := ex.Extract(extractCtx, exemplar.SimplifiedHTML)
		cancel()
		if err != nil {
			runErr = err
			continue
		}
		for _, name := range s.Names() {
			fieldExtracted[name] = append(fieldExtracted[name], rec[name])
			fieldExpected[name] = append(fieldExpected[name], exemplar.Expected[name]...)
		}
	}

	if runErr != nil && len(fieldExtracted) == 0 {
		return Iteration{Index: index, ArtifactSource: source, Err: runErr}, nil, nil, nil
	}

	var scores []evaluate.FieldScore
	passingFields := 0
	for _, name := range s.Names() {
		score := evaluate.ScoreField(name, fieldExtracted[name], fieldExpected[name])
		scores = append(scores, score)
		if score.F1 >= passThreshold {
			passingFields++
		}
	}
	agg := evaluate.Aggregate(scores)

	required := int(math.Ceil(float64(len(s.Names())) * 0.7))
	passed := passingFields >= required && runErr == nil

	return Iteration{
		Index:          index,
		ArtifactSource: source,
		Passed:         passed,
		AggregateF1:    agg.F1,
		FieldScores:    scores,
		Err:            runErr,
	}, scores, fieldExpected, fieldExtracted
}

// repair builds a repair prompt from the previous Artifact, per-field
// diffs pooled over all exemplars for every field below passThreshold
// (lowest F1 first), and any execution error, then asks the
// model for a revised Artifact (spec.md §4.7 step 3).
func (p *Phase) repair(ctx context.Context, s *schema.Schema, exemplars []Exemplar, prevSource string, iter Iteration, scores []evaluate.FieldScore, fieldExpected, fieldExtracted map[string][]string) (string, error) {
	sysMsg := "You are repairing a Go extractor that failed verification. " +
		"Respond with the complete corrected `package artifact` source, " +
		"using only the Go standard library."

	var b strings.Builder
	b.WriteString("Previous artifact:\n```go\n")
	b.WriteString(prevSource)
	b.WriteString("\n```\n\n")
	if iter.Err != nil {
		b.WriteString("Execution error: " + iter.Err.Error() + "\n\n")
	}
	b.WriteString("Per-field diffs (expected vs actual), worst first:\n")
	ordered := append([]evaluate.FieldScore(nil), scores...)
	sort.SliceStable(ordered, func(a, b int) bool { return ordered[a].F1 < ordered[b].F1 })
	for _, sc := range ordered {
		if sc.F1 >= passThreshold {
			continue
		}
		b.WriteString(fmt.Sprintf("- %s: F1=%.2f\n", sc.Field, sc.F1))
		diff := evaluate.Diff(sc.Field, fieldExpected[sc.Field], fieldExtracted[sc.Field])
		if diff != "" {
			b.WriteString("  diff (-expected +actual):\n")
			for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
				b.WriteString("  " + line + "\n")
			}
		}
	}
	b.WriteString("\nRespond with the complete revised source.")

	reply, err := p.client.Complete(ctx, sysMsg, b.String(), false)
	if err != nil {
		return "", errs.New(errs.KindModel, "repair", err)
	}
	source := extractCodeBlock(reply)
	if err := shapecheck.Check(source); err != nil {
		return "", errs.New(errs.KindCodeGeneration, "repair shape check", err)
	}
	return source, nil
}

func buildGeneratePrompt(s *schema.Schema, exemplar Exemplar) string {
	var b strings.Builder
	b.WriteString("Fields to extract:\n")
	for _, name := range s.Names() {
		f := s.Get(name)
		b.WriteString(fmt.Sprintf("- %s (%s): %s\n", f.Name, f.Type, f.Description))
		for _, loc := range f.Locators {
			b.WriteString("  locator: " + loc + "\n")
		}
	}
	b.WriteString("\nExemplar simplified HTML:\n")
	b.WriteString(exemplar.SimplifiedHTML)
	return b.String()
}

// extractCodeBlock strips a ```go fenced block if present, else returns
// reply unchanged (a ModelClient may or may not fence its code reply).
func extractCodeBlock(reply string) string {
	const fence = "```"
	start := strings.Index(reply, fence)
	if start == -1 {
		return reply
	}
	rest := reply[start+len(fence):]
	rest = strings.TrimPrefix(rest, "go\n")
	rest = strings.TrimPrefix(rest, "golang\n")
	end := strings.Index(rest, fence)
	if end == -1 {
		return rest
	}
	return rest[:end]
}

// RoundsToExemplars adapts SchemaPhase's successful rounds into CodePhase
// exemplars, pairing each round's exemplar document with the sample
// values accumulated for every field by the time that round completed.
func RoundsToExemplars(rounds []schemaphase.Round, simplifiedHTMLByID map[string]string) []Exemplar {
	var out []Exemplar
	for _, r := range rounds {
		if r.Failed || r.SchemaAfter == nil {
			continue
		}
		expected := map[string][]string{}
		for _, name := range r.SchemaAfter.Names() {
			expected[name] = r.SchemaAfter.Get(name).ValueSamples
		}
		out = append(out, Exemplar{
			DocumentID:     r.ExemplarID,
			SimplifiedHTML: simplifiedHTMLByID[r.ExemplarID],
			Expected:       expected,
		})
	}
	return out
}
