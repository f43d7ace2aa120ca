// Package normalize implements tolerant string comparison for extracted
// field values against ground truth (spec.md §4.1).
package normalize

import "strings"

// entityTable is the fixed set of HTML entities this package decodes,
// per spec.md §4.1. Additions require an explicit policy decision
// (SPEC_FULL.md §9) — this table is not meant to grow opportunistically.
var entityTable = map[string]string{
	"&lt;":    "<",
	"&gt;":    ">",
	"&amp;":   "&",
	"&quot;":  `"`,
	"&apos;":  "'",
	"&nbsp;":  " ",
	"&ndash;": "-",
	"&rsquo;": "'",
	"&eacute;": "e",
	"&frac12;": "1/2",
	"&reg;":   "",

	"&#39;":  "'",
	"&#150;": "-",
	"&#160;": " ",
	"&#x27;": "'",
	"&#40;":  "(",
	"&#41;":  ")",
	"&#47;":  "/",
	"&#43;":  "+",
	"&#035;": "#",
	"&#38;":  "&",
}

// decodeEntities replaces every known entity occurrence in s, longest
// keys first so e.g. "&#035;" isn't mistakenly truncated by a shorter
// overlapping key.
func decodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	for _, key := range entityKeysByLengthDesc {
		if strings.Contains(s, key) {
			s = strings.ReplaceAll(s, key, entityTable[key])
		}
	}
	return s
}

var entityKeysByLengthDesc = sortedEntityKeys()

func sortedEntityKeys() []string {
	keys := make([]string, 0, len(entityTable))
	for k := range entityTable {
		keys = append(keys, k)
	}
	// Longest-first so overlapping prefixes (e.g. "&#4" family) never
	// leave a dangling partial match.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && len(keys[j]) > len(keys[j-1]); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

// Normalize decodes entities, lowercases, and drops every codepoint that
// is not ASCII [a-z0-9]. Nil/empty input becomes the empty string.
// Idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	decoded := decodeEntities(s)
	decoded = strings.ToLower(decoded)

	var b strings.Builder
	b.Grow(len(decoded))
	for _, r := range decoded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// emptyLiterals are raw (pre-normalization) values considered absent.
var emptyLiterals = map[string]bool{
	"":                      true,
	"-":                     true,
	"None":                  true,
	"N/A":                   true,
	"n/a":                   true,
	"null":                  true,
	"(not found in JSON)":   true,
}

// emptyNormalized are normalized forms considered absent, for values
// whose raw spelling isn't in emptyLiterals but normalizes to nothing
// meaningful (e.g. "N / A", "--").
var emptyNormalized = map[string]bool{
	"":         true,
	"none":     true,
	"null":     true,
	"na":       true,
	"notfound": true,
}

// IsEmpty reports whether s belongs to the EMPTY equivalence class
// (spec.md §4.1 step 1).
func IsEmpty(s string) bool {
	if emptyLiterals[s] {
		return true
	}
	return emptyNormalized[Normalize(s)]
}

// ValueMatch implements the five-step tolerant comparison of spec.md
// §4.1. The substring direction is fixed: normalize(truth) must be a
// substring of normalize(extracted) — this is asymmetric by design
// (SPEC_FULL.md §9 Open Question resolution), so ValueMatch(a, b) is
// not assumed to equal ValueMatch(b, a).
func ValueMatch(extracted, truth string) bool {
	extractedEmpty := IsEmpty(extracted)
	truthEmpty := IsEmpty(truth)

	if extractedEmpty && truthEmpty {
		return true
	}
	if extractedEmpty != truthEmpty {
		return false
	}

	ne := Normalize(extracted)
	nt := Normalize(truth)
	if ne == nt {
		return true
	}
	if nt != "" && strings.Contains(ne, nt) {
		return true
	}
	return false
}
