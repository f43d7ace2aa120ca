// Package schemaphase implements SchemaPhase (spec.md §4.6): the
// N-round state machine that refines a field Schema from a sequence of
// exemplar documents.
package schemaphase

import (
	"context"
	"encoding/json"

	"github.com/theRebelliousNerd/parseforge/internal/config"
	"github.com/theRebelliousNerd/parseforge/internal/errs"
	"github.com/theRebelliousNerd/parseforge/internal/fetch"
	"github.com/theRebelliousNerd/parseforge/internal/logging"
	"github.com/theRebelliousNerd/parseforge/internal/model"
	"github.com/theRebelliousNerd/parseforge/internal/prompt"
	"github.com/theRebelliousNerd/parseforge/internal/schema"
	"github.com/theRebelliousNerd/parseforge/internal/store"
)

// retries is R in spec.md §4.6 step 3: per-round JSON parse retries.
const retries = 3

// Round records one completed (or failed) round, per spec.md §3.
type Round struct {
	Index         int
	ExemplarID    string
	SchemaBefore  *schema.Schema
	SchemaAfter   *schema.Schema
	Logs          string
	Failed        bool

	// Skipped marks a round the early-stop extension never ran
	// (SPEC_FULL.md §9 "SchemaPhase convergence"): once schemaAfter
	// equals schemaBefore for two consecutive rounds, the phase
	// finalizes early rather than spending the rest of its exemplar
	// budget re-confirming a fixed point. Skipped rounds count toward
	// neither success nor failure.
	Skipped bool
}

// Result is SchemaPhase's terminal output.
type Result struct {
	FinalSchema *schema.Schema
	Rounds      []Round
	Failed      bool
}

// EditGate lets a caller mutate finalSchema between SchemaPhase and
// CodePhase (spec.md §4.6 "Schema Edit gate"). The default, Identity,
// passes the schema through unchanged.
type EditGate func(s *schema.Schema) (*schema.Schema, error)

// Identity is the default EditGate: no mutation.
func Identity(s *schema.Schema) (*schema.Schema, error) { return s, nil }

// Phase runs the SchemaPhase state machine.
type Phase struct {
	fetcher  fetch.Fetcher
	client   model.Client
	prompter *prompt.Prompter
	layout   *store.FileLayout
	runStore *store.RunStore // nil when Config.Store.Enabled is false
	log      *logging.Logger
}

// New constructs a Phase. runStore may be nil (store mirroring disabled).
func New(fetcher fetch.Fetcher, client model.Client, prompter *prompt.Prompter, layout *store.FileLayout, runStore *store.RunStore, log *logging.Logger) *Phase {
	return &Phase{fetcher: fetcher, client: client, prompter: prompter, layout: layout, runStore: runStore, log: log}
}

// Run executes the INIT→FETCHING→PROMPTING→MERGING→...→FINALIZE→
// DONE|FAILED machine over N exemplar document ids. seedSchema, when
// non-nil, seeds currentSchema instead of starting empty — used for the
// re-entrant predefined-mode pass the Schema Edit gate can trigger.
func (p *Phase) Run(ctx context.Context, cfg config.Config, exemplarIDs []string, seedSchema *schema.Schema) (Result, error) {
	n := len(exemplarIDs)
	if n == 0 {
		return Result{}, errs.New(errs.KindConfig, "schemaphase", errEmptyExemplars{})
	}

	current := seedSchema
	if current == nil {
		current = schema.New()
	} else {
		current = current.Clone()
	}
	if cfg.SchemaMode == config.SchemaModePredefined && seedSchema == nil {
		current = seedFromNames(cfg.PredefinedSchema)
	}

	var rounds []Round
	succeeded := 0
	executed := 0
	unchangedStreak := 0

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return Result{FinalSchema: current, Rounds: rounds, Failed: true}, errs.New(errs.KindCancelled, "schemaphase", ctx.Err())
		default:
		}

		executed++
		round, err := p.runRound(ctx, cfg, i, exemplarIDs[i], current)
		rounds = append(rounds, round)
		if err != nil {
			p.log.Warnf("round %d failed: %v", i, err)
			unchangedStreak = 0
			continue
		}
		current = round.SchemaAfter
		succeeded++

		if p.layout != nil {
			if werr := p.layout.WriteRoundSchema(i, current); werr != nil {
				p.log.Warnf("persist round %d schema: %v", i, werr)
			}
		}
		if p.runStore != nil {
			if werr := p.runStore.InsertRound(i, exemplarIDs[i], round.SchemaBefore, round.SchemaAfter, round.Logs); werr != nil {
				p.log.Warnf("mirror round %d to store: %v", i, werr)
			}
		}

		if schemaUnchanged(round.SchemaBefore, round.SchemaAfter) {
			unchangedStreak++
		} else {
			unchangedStreak = 0
		}
		if unchangedStreak >= 2 && i+1 < n {
			for j := i + 1; j < n; j++ {
				rounds = append(rounds, Round{Index: j, ExemplarID: exemplarIDs[j], SchemaBefore: current, SchemaAfter: current, Skipped: true})
			}
			break
		}
	}

	// threshold is ceil(N/2) over the rounds actually executed, not N
	// itself: the early-stop extension above can finalize after fewer
	// than N rounds once the schema has converged, and the rounds it
	// marks Skipped to fill out the Round slice never ran a model call,
	// so they must count toward neither the numerator nor the
	// denominator of the majority-success check.
	threshold := (executed + 1) / 2 // ceil(executed/2)
	failed := succeeded < threshold

	if !failed && p.layout != nil {
		if err := p.layout.WriteFinalSchema(current); err != nil {
			p.log.Warnf("persist final schema: %v", err)
		}
	}

	if !failed && !current.HasAllLocators() {
		p.log.Warnf("final schema has fields with no locators (spec.md §3 invariant)")
	}

	return Result{FinalSchema: current, Rounds: rounds, Failed: failed}, nil
}

func (p *Phase) runRound(ctx context.Context, cfg config.Config, index int, exemplarID string, current *schema.Schema) (Round, error) {
	round := Round{Index: index, ExemplarID: exemplarID, SchemaBefore: current.Clone()}

	res, err := p.fetcher.Fetch(ctx, exemplarID)
	if err != nil {
		round.Failed = true
		return round, err
	}

	version := prompt.V1
	if cfg.SchemaMode == config.SchemaModePredefined {
		version = prompt.V2
	}

	var promptText string
	if index == 0 && cfg.SchemaMode == config.SchemaModeAuto {
		promptText, err = p.prompter.BuildDiscoveryPrompt(version)
	} else {
		var prevJSON []byte
		prevJSON, err = json.Marshal(current)
		if err == nil {
			promptText, err = p.prompter.BuildRefinementPrompt(version, string(prevJSON))
		}
	}
	if err != nil {
		round.Failed = true
		return round, errs.New(errs.KindInternal, "build prompt", err)
	}

	sysMsg, err := p.prompter.SystemMessage(version)
	if err != nil {
		round.Failed = true
		return round, err
	}

	var parsed *schema.Schema
	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		select {
		case <-ctx.Done():
			round.Failed = true
			return round, errs.New(errs.KindCancelled, "schemaphase round", ctx.Err())
		default:
		}
		reply, cerr := p.client.Complete(ctx, sysMsg, promptText+"\n\nDocument:\n"+res.SimplifiedHTML, true)
		if cerr != nil {
			lastErr = errs.New(errs.KindModel, "model.Complete", cerr)
			continue
		}
		parsed, lastErr = parseSchemaReply(reply)
		if lastErr == nil {
			break
		}
		lastErr = errs.New(errs.KindParse, "parse model reply", lastErr)
	}
	if parsed == nil {
		round.Failed = true
		return round, lastErr
	}

	merged, err := merge(current, parsed, cfg.SchemaMode)
	if err != nil {
		round.Failed = true
		return round, err
	}
	round.SchemaAfter = merged
	round.Logs = "merged round " + exemplarID
	return round, nil
}

// schemaUnchanged reports whether after is the same schema as before:
// same field names, types, descriptions, and same value-sample/locator
// sets (order of accumulation ignored, per SPEC_FULL.md §9).
func schemaUnchanged(before, after *schema.Schema) bool {
	if before == nil || after == nil {
		return before == after
	}
	if len(before.Order) != len(after.Order) {
		return false
	}
	for _, name := range before.Order {
		a, b := before.Get(name), after.Get(name)
		if b == nil {
			return false
		}
		if a.Type != b.Type || a.Description != b.Description {
			return false
		}
		if !sameStringSet(a.ValueSamples, b.ValueSamples) || !sameStringSet(a.Locators, b.Locators) {
			return false
		}
	}
	for _, name := range after.Order {
		if before.Get(name) == nil {
			return false
		}
	}
	return true
}

func sameStringSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, s := range a {
		counts[s]++
	}
	for _, s := range b {
		counts[s]--
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}

type errEmptyExemplars struct{}

func (errEmptyExemplars) Error() string { return "schemaphase requires at least one exemplar" }
