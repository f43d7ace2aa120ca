package schemaphase

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/theRebelliousNerd/parseforge/internal/config"
	"github.com/theRebelliousNerd/parseforge/internal/errs"
	"github.com/theRebelliousNerd/parseforge/internal/schema"
)

// validKinds is the closed set FieldSpec.Type must belong to (Design
// Note "Dynamic field shapes"). A model reply naming anything else
// parses fine as JSON but can't be merged into a valid Schema.
var validKinds = map[schema.Kind]bool{
	schema.KindString: true,
	schema.KindInt:    true,
	schema.KindFloat:  true,
	schema.KindBool:   true,
	schema.KindArray:  true,
	schema.KindObject: true,
	"":                true, // blank type is allowed pre-merge (seedFromNames, missing field)
}

// modelFieldSpec mirrors the wire shape a ModelClient reply is expected
// to use for one field (spec.md §4.4's discovery/refinement prompts).
type modelFieldSpec struct {
	Type         schema.Kind `json:"type"`
	Description  string      `json:"description"`
	ValueSamples []string    `json:"valueSamples"`
	Locators     []string    `json:"locators"`
}

// parseSchemaReply decodes a ModelClient reply: a flat JSON object
// mapping field name to modelFieldSpec (spec.md §4.4's discovery prompt
// response shape). KnownFields-equivalent strictness is not required
// here — extra keys in a model reply are tolerated; spec.md only
// requires config-level strict decoding.
func parseSchemaReply(reply string) (*schema.Schema, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(reply)))
	var raw map[string]modelFieldSpec
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	s := schema.New()
	for name, spec := range raw {
		s.Set(&schema.FieldSpec{
			Name:         name,
			Type:         spec.Type,
			Description:  spec.Description,
			ValueSamples: append([]string(nil), spec.ValueSamples...),
			Locators:     append([]string(nil), spec.Locators...),
		})
	}
	return s, nil
}

// seedFromNames builds the round-0 predefined-mode seed schema: the
// predefined name-set with blank type/description and one empty
// locator per field (spec.md §4.6 step 2).
func seedFromNames(names []string) *schema.Schema {
	s := schema.New()
	for _, name := range names {
		s.Set(&schema.FieldSpec{Name: name, Locators: []string{""}})
	}
	return s
}

// merge folds a round's parsed reply into the accumulated schema
// (spec.md §4.6 step 4). Returns a SchemaMergeError if the resulting
// schema would carry a field outside the closed Kind enum - a reply
// that decodes as valid JSON but names a type merge cannot reconcile.
func merge(current, parsed *schema.Schema, mode config.SchemaMode) (*schema.Schema, error) {
	out := current.Clone()

	switch mode {
	case config.SchemaModePredefined:
		for _, name := range out.Names() {
			incoming := parsed.Get(name)
			if incoming == nil {
				continue
			}
			out.Set(mergeField(out.Get(name), incoming))
		}
	default: // auto
		for _, name := range parsed.Names() {
			incoming := parsed.Get(name)
			existing := out.Get(name)
			out.Set(mergeField(existing, incoming))
		}
	}

	for _, name := range out.Names() {
		if f := out.Get(name); !validKinds[f.Type] {
			return nil, errs.New(errs.KindSchemaMerge, name, fmt.Errorf("field %q: unknown type %q", name, f.Type))
		}
	}
	return out, nil
}

func mergeField(existing, incoming *schema.FieldSpec) *schema.FieldSpec {
	if existing == nil {
		return incoming.Clone()
	}
	merged := existing.Clone()
	merged.ValueSamples = unionPreserveOrder(merged.ValueSamples, incoming.ValueSamples)
	merged.Locators = unionPreserveOrder(merged.Locators, incoming.Locators)
	if incoming.Type != "" {
		merged.Type = incoming.Type
	}
	if incoming.Description != "" {
		merged.Description = incoming.Description
	}
	return merged
}

// unionPreserveOrder appends every element of next not already present
// in base, preserving base's existing order and de-duplicating by
// exact string equality (spec.md §4.6 step 4).
func unionPreserveOrder(base, next []string) []string {
	seen := make(map[string]bool, len(base))
	for _, v := range base {
		seen[v] = true
	}
	out := append([]string(nil), base...)
	for _, v := range next {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
