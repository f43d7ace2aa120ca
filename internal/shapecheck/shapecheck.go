// Package shapecheck structurally validates a synthesized Artifact's
// source before it ever reaches the Executor sandbox, using a real parse
// of the Go grammar. Imports are not inspected here; the Executor's
// line-based validateImports checks them.
// Adapted from the teacher's tree-sitter symbol-extraction walker
// (internal/world/ast_treesitter.go) but narrowed from "extract every
// symbol" to "does this file declare the one entrypoint CodePhase
// requires, with the right package name and signature shape."
package shapecheck

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

const (
	requiredPackage    = "artifact"
	requiredFuncName   = "Extract"
)

// Check parses source as Go and verifies it declares `package artifact`
// and a top-level `func Extract(...) (...)` with exactly one parameter
// and two results — the shape CodePhase's Executor binds against.
// It does not type-check parameter/result types (yaegi's own binding in
// internal/executor does that at load time); this is a cheap
// structural pre-flight so a generated reply that is not even
// syntactically Go, or obviously the wrong package/shape, is rejected
// (and retried) before paying for an interpreter load.
func Check(source string) error {
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())
	defer parser.Close()

	tree, err := parser.ParseCtx(context.Background(), nil, []byte(source))
	if err != nil {
		return fmt.Errorf("shapecheck: parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return fmt.Errorf("shapecheck: source is not valid Go")
	}

	if !declaresPackage(root, source, requiredPackage) {
		return fmt.Errorf("shapecheck: expected `package %s`", requiredPackage)
	}

	fn := findFunc(root, source, requiredFuncName)
	if fn == nil {
		return fmt.Errorf("shapecheck: no top-level func %s found", requiredFuncName)
	}
	if err := checkSignatureShape(fn, source); err != nil {
		return fmt.Errorf("shapecheck: func %s: %w", requiredFuncName, err)
	}
	return nil
}

func declaresPackage(root *sitter.Node, source, name string) bool {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		if n.Type() != "package_clause" {
			continue
		}
		ident := n.NamedChild(0)
		if ident == nil {
			continue
		}
		if ident.Content([]byte(source)) == name {
			return true
		}
	}
	return false
}

func findFunc(root *sitter.Node, source, name string) *sitter.Node {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		if n.Type() != "function_declaration" {
			continue
		}
		nameNode := n.ChildByFieldName("name")
		if nameNode != nil && nameNode.Content([]byte(source)) == name {
			return n
		}
	}
	return nil
}

// checkSignatureShape requires exactly one parameter and a two-value
// result list, matching func Extract(string) (map[string]string, error).
func checkSignatureShape(fn *sitter.Node, source string) error {
	params := fn.ChildByFieldName("parameters")
	if params == nil || params.NamedChildCount() != 1 {
		return fmt.Errorf("expected exactly one parameter")
	}
	result := fn.ChildByFieldName("result")
	if result == nil {
		return fmt.Errorf("expected a two-value result list")
	}
	if result.Type() != "parameter_list" || result.NamedChildCount() != 2 {
		return fmt.Errorf("expected a two-value result list")
	}
	return nil
}
