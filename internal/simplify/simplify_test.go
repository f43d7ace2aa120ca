package simplify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimplify_DropsScriptAndStyle(t *testing.T) {
	out := Simplify(`<html><head><style>body{}</style></head><body><script>alert(1)</script><h1>Title</h1></body></html>`)
	assert.NotContains(t, out, "alert(1)")
	assert.NotContains(t, out, "body{}")
	assert.Contains(t, out, "Title")
}

func TestSimplify_CollapsesWhitespace(t *testing.T) {
	out := Simplify("<p>  hello   \n  world  </p>")
	assert.True(t, strings.Contains(out, "hello world"))
}

func TestSimplify_MalformedInputDoesNotPanic(t *testing.T) {
	// html.Parse is lenient and rarely errors; this asserts Simplify
	// never panics on odd input.
	assert.NotPanics(t, func() {
		Simplify("<<<not really html")
	})
}
