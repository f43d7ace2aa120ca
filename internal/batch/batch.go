// Package batch implements BatchRunner (spec.md §4.9): parallel
// application of a finalArtifact across a full corpus with a bounded
// worker pool, built on golang.org/x/sync/errgroup the way the teacher
// bounds its own worker pools.
package batch

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/theRebelliousNerd/parseforge/internal/errs"
	"github.com/theRebelliousNerd/parseforge/internal/executor"
	"github.com/theRebelliousNerd/parseforge/internal/fetch"
	"github.com/theRebelliousNerd/parseforge/internal/logging"
)

// Entry is one document's outcome: either Record is populated, or Err
// is (mutually exclusive), per spec.md §4.9 "persist the Record" /
// "persist an error entry".
type Entry struct {
	DocumentID string
	Record     map[string]string
	Err        error
}

// Result is BatchRunner's terminal output (spec.md §4.9).
type Result struct {
	SuccessCount int
	FailedCount  int
	Entries      []Entry // sorted by DocumentID, independent of completion order
}

// Runner applies one Artifact source across a corpus using W workers,
// one Executor instance per worker (spec.md §5: no cross-worker
// Artifact reentrancy is assumed).
type Runner struct {
	fetcher        fetch.Fetcher
	artifactSource string
	workers        int
	deadline       time.Duration // per-document Executor.Extract deadline, spec.md §4.8
	log            *logging.Logger
}

// New constructs a Runner. workers <= 0 selects min(8, NumCPU), the
// default spec.md §4.9 names. deadline bounds each document's
// Executor.Extract call individually (spec.md §4.8/§8): one document
// timing out must fail only that document, so it can never be a single
// deadline shared across the whole batch.
func New(fetcher fetch.Fetcher, artifactSource string, workers int, deadline time.Duration, log *logging.Logger) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers > 8 {
			workers = 8
		}
	}
	return &Runner{fetcher: fetcher, artifactSource: artifactSource, workers: workers, deadline: deadline, log: log}
}

// Run fetches and extracts every document id in ids, isolating each
// document's failure from the rest (spec.md §4.9: "Partial failure is
// NOT fatal"), and checks ctx before dispatching each document (spec.md
// §5 cancellation checkpoint).
func (r *Runner) Run(ctx context.Context, ids []string) (Result, error) {
	if len(ids) == 0 {
		return Result{}, nil
	}

	entries := make([]Entry, len(ids))
	var mu sync.Mutex
	var aggregated error

	// Build exactly r.workers Executors up front, one per worker slot,
	// and hand them out through a buffered channel acting as a pool: a
	// goroutine acquires one, runs a document through it, returns it.
	// This is what keeps the interpreter construction cost to W instead
	// of len(ids), while still giving every worker its own private
	// Executor (spec.md §5: no cross-worker Artifact reentrancy).
	pool := make(chan *executor.Executor, r.workers)
	for i := 0; i < r.workers; i++ {
		ex, err := executor.New(r.artifactSource)
		if err != nil {
			return Result{}, errs.New(errs.KindCodeGeneration, "batch executor pool", err)
		}
		pool <- ex
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, id := range ids {
		i, id := i, id
		select {
		case <-ctx.Done():
			return partial(entries, i), errs.New(errs.KindCancelled, "batch", ctx.Err())
		default:
		}

		g.Go(func() error {
			ex := <-pool
			entry := r.runOne(gctx, ex, id)
			pool <- ex

			mu.Lock()
			entries[i] = entry
			if entry.Err != nil {
				aggregated = multierr.Append(aggregated, entry.Err)
			}
			mu.Unlock()
			return nil // never abort the group: one document's failure must not cancel the rest
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, errs.New(errs.KindInternal, "batch wait", err)
	}

	sort.Slice(entries, func(a, b int) bool { return entries[a].DocumentID < entries[b].DocumentID })

	var success, failed int
	for _, e := range entries {
		if e.Err != nil {
			failed++
		} else {
			success++
		}
	}

	if r.log != nil {
		r.log.Infof("batch complete: %d succeeded, %d failed", success, failed)
	}
	_ = aggregated // surfaced via per-entry Err; kept for potential future global reporting

	return Result{SuccessCount: success, FailedCount: failed, Entries: entries}, nil
}

func (r *Runner) runOne(ctx context.Context, ex *executor.Executor, id string) Entry {
	res, err := r.fetcher.Fetch(ctx, id)
	if err != nil {
		return Entry{DocumentID: id, Err: err}
	}

	// A fresh per-document deadline (spec.md §4.8): an infinite-looping
	// artifact on one document must time out and fail only that
	// document, never the batch-wide context every other worker shares.
	extractCtx, cancel := context.WithTimeout(ctx, r.deadline)
	defer cancel()

	rec, err := ex.Extract(extractCtx, res.SimplifiedHTML)
	if err != nil {
		return Entry{DocumentID: id, Err: err}
	}
	return Entry{DocumentID: id, Record: rec}
}

func partial(entries []Entry, filled int) Result {
	out := entries[:filled]
	sort.Slice(out, func(a, b int) bool { return out[a].DocumentID < out[b].DocumentID })
	var success, failed int
	for _, e := range out {
		if e.Err != nil {
			failed++
		} else {
			success++
		}
	}
	return Result{SuccessCount: success, FailedCount: failed, Entries: out}
}
