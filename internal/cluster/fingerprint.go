// Package cluster implements LayoutClusterer (spec.md §4.3): grouping a
// corpus of HTML documents by DOM-structure similarity so SchemaPhase
// learns from a layout-homogeneous subset at a time.
package cluster

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Fingerprint is the structural shingle set for one document: the
// multiset of tag-path n-grams over the DOM skeleton with text nodes
// removed, per spec.md §4.3.
type Fingerprint map[string]int

// shingleWidth is the number of path segments joined into one shingle.
const shingleWidth = 3

// FingerprintOf parses an HTML document and returns its tag-path shingle
// fingerprint. Parse failures yield an empty fingerprint rather than an
// error: a malformed document is simply maximally dissimilar from every
// well-formed one, which DBSCAN handles naturally as noise.
func FingerprintOf(rawHTML string) Fingerprint {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return Fingerprint{}
	}
	fp := Fingerprint{}
	var path []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			path = append(path, tagName(n))
			addShingles(fp, path)
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
			path = path[:len(path)-1]
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return fp
}

func tagName(n *html.Node) string {
	if n.DataAtom != atom.Atom(0) {
		return n.DataAtom.String()
	}
	return n.Data
}

// addShingles records every length-shingleWidth (or shorter, near the
// root) suffix of path ending at its last element, so sibling depth and
// ancestry both contribute to the fingerprint.
func addShingles(fp Fingerprint, path []string) {
	start := len(path) - shingleWidth
	if start < 0 {
		start = 0
	}
	shingle := strings.Join(path[start:], ">")
	fp[shingle]++
}

// Jaccard returns the similarity in [0,1] between two fingerprints,
// treating each as a set of distinct shingle keys (occurrence counts
// are ignored; only presence/absence distinguishes shingles).
func Jaccard(a, b Fingerprint) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var intersection int
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	for k := range small {
		if _, ok := large[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 1
	}
	return float64(intersection) / float64(union)
}
