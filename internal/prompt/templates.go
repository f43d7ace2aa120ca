package prompt

type bundle struct {
	system     string
	discovery  string
	refinement string
}

// bundles holds the v1 (schema-free discovery) and v2 (name-constrained,
// predefined-mode) template text, loaded once at Prompter construction
// (spec.md §4.4).
var bundles = map[Version]bundle{
	V1: {
		system: "You are a schema-discovery assistant for a structured web " +
			"data extraction pipeline. Given one HTML document, propose a " +
			"field schema with name, type, description, sample values, and " +
			"locator expressions for each field you can identify. Respond " +
			"with a single JSON object mapping field name to FieldSpec.",
		discovery: `Inspect the attached simplified HTML document and propose
a field schema: every field you can confidently identify, its type
(string, int, float, bool, array, or object), a short description, one
or more sample values observed in the document, and one or more locator
expressions identifying where in the DOM the value was found.

Respond with a single JSON object: {"field_name": {"type": ..., "description": ...,
"valueSamples": [...], "locators": [...]}, ...}`,
		refinement: `The current schema, accumulated from prior exemplars, is:

{{.PreviousSchemaJSON}}

Given the next HTML document, refine this schema: add any fields you
observe that are missing, and for existing fields add any new sample
values or locator expressions you observe in this document. Do not
drop fields already present unless they are clearly wrong.

Respond with the complete updated JSON object, in the same shape as
the current schema above.`,
	},
	V2: {
		system: "You are a schema-refinement assistant operating in " +
			"predefined mode: the set of field names is fixed by " +
			"configuration and must never grow or shrink. For each named " +
			"field, find its locator expression(s) and sample value(s) in " +
			"the given HTML document.",
		discovery: `This run uses a predefined field name-set, supplied via
configuration rather than discovered from the document. Use
BuildRefinementPrompt (seeded with the predefined names) instead of
this discovery prompt for round 0 in predefined mode.`,
		refinement: `The field names are fixed and the schema accumulated so
far is:

{{.PreviousSchemaJSON}}

Given the next HTML document, find each named field's value and locator
expression(s) in this document, adding any new sample values or
locators you observe. Do not introduce any field name not already
present in the schema above.

Respond with the complete updated JSON object, using exactly the field
names already present.`,
	},
}
