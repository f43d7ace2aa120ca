// Package executor runs a synthesized Artifact against one document's
// simplified HTML inside a sandboxed Go interpreter (spec.md §4.8). The
// sandbox is built on github.com/traefik/yaegi, adapted from the
// teacher's autopoiesis.YaegiExecutor (dependency-hell/compile-hang
// avoidance via interpretation instead of `go build`).
package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/theRebelliousNerd/parseforge/internal/errs"
)

// entrypointSymbol is the fully-qualified function every Artifact must
// expose. CodePhase always generates artifacts under "package artifact"
// so this name resolves after evaluating the artifact's source.
const entrypointSymbol = "artifact.Extract"

// allowedImports is the stdlib whitelist an Artifact may import,
// mirroring the teacher's YaegiExecutor whitelist but widened to the
// packages a structured-data extractor plausibly needs (HTML/JSON
// parsing, string and numeric conversion) while still excluding
// filesystem, network, process, and unsafe access.
var allowedImports = map[string]bool{
	"strings":          true,
	"strconv":          true,
	"fmt":              true,
	"math":             true,
	"regexp":           true,
	"encoding/json":    true,
	"encoding/base64":  true,
	"time":             true,
	"sort":             true,
	"bytes":            true,
	"unicode":          true,
	"errors":           true,
}

// Executor runs an Artifact's source against simplified HTML and
// returns the extracted Record (spec.md §3: mapping field name to
// string). One Executor wraps one interpreter instance; BatchRunner
// constructs one Executor per worker rather than sharing an
// interpreter across goroutines (spec.md §5 concurrency note).
type Executor struct {
	extract func(string) (map[string]string, error)
}

// New compiles artifactSource inside a fresh yaegi interpreter and
// binds its exported Extract(simplifiedHTML string) (map[string]string,
// error) entrypoint. Compilation/binding failure is a CodeGenerationError,
// since CodePhase is expected to repair the artifact rather than have
// BatchRunner tolerate a broken one.
func New(artifactSource string) (*Executor, error) {
	if err := validateImports(artifactSource); err != nil {
		return nil, errs.New(errs.KindCodeGeneration, "validate artifact imports", err)
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, errs.New(errs.KindInternal, "load stdlib symbols", err)
	}

	if _, err := i.Eval(artifactSource); err != nil {
		return nil, errs.New(errs.KindCodeGeneration, "evaluate artifact source", err)
	}

	v, err := i.Eval(entrypointSymbol)
	if err != nil {
		return nil, errs.New(errs.KindCodeGeneration, "resolve artifact.Extract", err)
	}
	fn, ok := v.Interface().(func(string) (map[string]string, error))
	if !ok {
		return nil, errs.New(errs.KindCodeGeneration, "artifact.Extract signature",
			fmt.Errorf("expected func(string) (map[string]string, error), got %T", v.Interface()))
	}
	return &Executor{extract: fn}, nil
}

// Extract runs the Artifact against one document's simplified HTML
// under a deadline. A deadline expiry or context cancellation race is
// reported distinctly (TimeoutError vs Cancelled) per spec.md §7; a
// runtime panic or returned error inside the Artifact itself is an
// ExecutorError.
func (e *Executor) Extract(ctx context.Context, simplifiedHTML string) (record map[string]string, err error) {
	type outcome struct {
		record map[string]string
		err    error
	}
	resultCh := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- outcome{err: fmt.Errorf("artifact panic: %v", r)}
			}
		}()
		rec, err := e.extract(simplifiedHTML)
		resultCh <- outcome{record: rec, err: err}
	}()

	select {
	case out := <-resultCh:
		if out.err != nil {
			return nil, errs.New(errs.KindExecutor, "artifact.Extract", out.err)
		}
		return out.record, nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errs.New(errs.KindTimeout, "artifact.Extract", ctx.Err())
		}
		return nil, errs.New(errs.KindCancelled, "artifact.Extract", ctx.Err())
	}
}

// validateImports rejects any import not in allowedImports, the same
// textual-scan strategy the teacher's YaegiExecutor uses. New loads the
// interpreter with yaegi's full stdlib symbol table (stdlib.Symbols), so
// this pre-flight text check is the only import restriction.
func validateImports(source string) error {
	lines := strings.Split(source, "\n")
	inBlock := false
	var forbidden []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "import ("):
			inBlock = true
		case inBlock && trimmed == ")":
			inBlock = false
		case inBlock:
			pkg := strings.Trim(trimmed, `"`)
			if pkg != "" && !allowedImports[pkg] {
				forbidden = append(forbidden, pkg)
			}
		case strings.HasPrefix(trimmed, "import "):
			pkg := strings.TrimPrefix(trimmed, "import ")
			pkg = strings.Trim(pkg, `"`)
			if pkg != "" && !allowedImports[pkg] {
				forbidden = append(forbidden, pkg)
			}
		}
	}
	if len(forbidden) > 0 {
		return fmt.Errorf("forbidden imports: %v", forbidden)
	}
	return nil
}
