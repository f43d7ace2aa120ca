package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/theRebelliousNerd/parseforge/internal/errs"
)

// FixtureClient is a deterministic in-memory Client used by tests and by
// the extract-with-code CLI flow, which never needs to call an LLM.
// Replies are served from one queue in call order, whatever the system
// message; a client built with no replies returns the empty string.
type FixtureClient struct {
	mu       sync.Mutex
	queue    []string
	fallback string
	calls    int
	failNext int // number of upcoming calls to fail with ModelError
}

// NewFixtureClient returns a FixtureClient that serves replies in order,
// repeating the last one once exhausted.
func NewFixtureClient(replies ...string) *FixtureClient {
	return &FixtureClient{queue: append([]string(nil), replies...)}
}

// FailNext configures the next n calls to return a ModelError instead of
// a reply, exercising SchemaPhase/CodePhase's retry paths.
func (f *FixtureClient) FailNext(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = n
}

func (f *FixtureClient) Complete(_ context.Context, _ string, _ string, _ bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failNext > 0 {
		f.failNext--
		return "", errs.New(errs.KindModel, "fixture", fmt.Errorf("simulated transient failure"))
	}

	idx := f.calls
	f.calls++
	if idx < len(f.queue) {
		return f.queue[idx], nil
	}
	if len(f.queue) > 0 {
		return f.queue[len(f.queue)-1], nil
	}
	return f.fallback, nil
}

// CallCount returns how many times Complete has been invoked.
func (f *FixtureClient) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
