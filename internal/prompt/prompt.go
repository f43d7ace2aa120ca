// Package prompt owns the versioned prompt template bundles SchemaPhase
// and CodePhase render (spec.md §4.4): v1 (schema-free discovery) and v2
// (name-constrained, used in predefined mode).
package prompt

import (
	"bytes"
	"text/template"

	"github.com/theRebelliousNerd/parseforge/internal/errs"
)

// Version selects a template bundle. Version selection is fixed per run
// (spec.md §4.4).
type Version string

const (
	V1 Version = "v1"
	V2 Version = "v2"
)

// Prompter renders prompts from the v1/v2 template bundles, loaded once
// at construction. Variable substitution is limited to
// {{.PreviousSchemaJSON}} (spec.md §4.4: "{{previous_schema_json}}").
type Prompter struct {
	discovery  map[Version]*template.Template
	refinement map[Version]*template.Template
	system     map[Version]string
}

type refinementVars struct {
	PreviousSchemaJSON string
}

// New constructs a Prompter with the embedded v1/v2 bundles.
func New() (*Prompter, error) {
	p := &Prompter{
		discovery:  make(map[Version]*template.Template),
		refinement: make(map[Version]*template.Template),
		system:     make(map[Version]string),
	}

	for version, bundle := range bundles {
		disc, err := template.New(string(version) + "-discovery").Parse(bundle.discovery)
		if err != nil {
			return nil, errs.New(errs.KindInternal, "parse discovery template "+string(version), err)
		}
		ref, err := template.New(string(version) + "-refinement").Parse(bundle.refinement)
		if err != nil {
			return nil, errs.New(errs.KindInternal, "parse refinement template "+string(version), err)
		}
		p.discovery[version] = disc
		p.refinement[version] = ref
		p.system[version] = bundle.system
	}
	return p, nil
}

// BuildDiscoveryPrompt renders the schema-free discovery prompt (used
// for round 0 in auto mode).
func (p *Prompter) BuildDiscoveryPrompt(version Version) (string, error) {
	tmpl, ok := p.discovery[version]
	if !ok {
		return "", errs.New(errs.KindInternal, "prompt", errUnknownVersion(version))
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, nil); err != nil {
		return "", errs.New(errs.KindInternal, "render discovery prompt", err)
	}
	return buf.String(), nil
}

// BuildRefinementPrompt renders the name-constrained/refinement prompt,
// substituting previousSchemaJSON for {{previous_schema_json}}.
func (p *Prompter) BuildRefinementPrompt(version Version, previousSchemaJSON string) (string, error) {
	tmpl, ok := p.refinement[version]
	if !ok {
		return "", errs.New(errs.KindInternal, "prompt", errUnknownVersion(version))
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, refinementVars{PreviousSchemaJSON: previousSchemaJSON}); err != nil {
		return "", errs.New(errs.KindInternal, "render refinement prompt", err)
	}
	return buf.String(), nil
}

// SystemMessage returns the fixed system message for a template version.
func (p *Prompter) SystemMessage(version Version) (string, error) {
	msg, ok := p.system[version]
	if !ok {
		return "", errs.New(errs.KindInternal, "prompt", errUnknownVersion(version))
	}
	return msg, nil
}

type errUnknownVersion Version

func (e errUnknownVersion) Error() string { return "unknown prompt version: " + string(e) }
