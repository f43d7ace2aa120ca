// Package simplify reduces an original HTML document to the skeleton
// form Fetcher implementations hand to the rest of the pipeline as
// simplifiedHtml (spec.md §3). Named an external collaborator in
// spec.md §1, this is the minimal stdlib-adjacent default: strip
// script/style/svg subtrees, collapse whitespace-only text nodes, keep
// the tag/attribute/text skeleton that LayoutClusterer and the
// synthesized Artifact actually need.
package simplify

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var droppedTags = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
	atom.Svg:    true,
	atom.Noscript: true,
}

// Simplify parses original HTML and re-renders a reduced tree, dropping
// script/style/svg/noscript subtrees and collapsing whitespace-only text
// nodes. On parse failure, the original input is returned unchanged so a
// malformed document still reaches the rest of the pipeline (Fetcher
// failures are FetchError, not ParseError, per spec.md §7).
func Simplify(original string) string {
	doc, err := html.Parse(strings.NewReader(original))
	if err != nil {
		return original
	}
	prune(doc)

	var b strings.Builder
	if err := html.Render(&b, doc); err != nil {
		return original
	}
	return b.String()
}

func prune(n *html.Node) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		switch c.Type {
		case html.ElementNode:
			if droppedTags[c.DataAtom] {
				n.RemoveChild(c)
				continue
			}
			prune(c)
		case html.TextNode:
			if strings.TrimSpace(c.Data) == "" {
				n.RemoveChild(c)
				continue
			}
			c.Data = collapseWhitespace(c.Data)
		case html.CommentNode:
			n.RemoveChild(c)
		}
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
