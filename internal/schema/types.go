// Package schema defines the field-level schema shared by SchemaPhase and
// CodePhase (spec.md §3), plus its persisted-state serialization (§6).
package schema

// Kind is the closed enum of field shapes (Design Note "Dynamic field
// shapes"). Unlike the source system's free-form field typing, this is a
// tagged record with a small variant for complex types.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindBool   Kind = "bool"
	KindArray  Kind = "array"
	KindObject Kind = "object"
)

// FieldSpec declares the shape of one extracted field.
type FieldSpec struct {
	Name        string   `json:"name"`
	Type        Kind     `json:"type"`
	Description string   `json:"description"`
	ValueSamples []string `json:"valueSamples"`
	Locators     []string `json:"locators"`

	// ObjectShape is the recursive escape hatch for Type == KindObject,
	// per Design Note "Dynamic field shapes". Nil for all other kinds.
	ObjectShape map[string]*FieldSpec `json:"objectShape,omitempty"`
}

// Clone deep-copies a FieldSpec so callers can mutate without aliasing
// the original (Rounds are handed by value across phase boundaries).
func (f *FieldSpec) Clone() *FieldSpec {
	if f == nil {
		return nil
	}
	out := &FieldSpec{
		Name:        f.Name,
		Type:        f.Type,
		Description: f.Description,
	}
	out.ValueSamples = append([]string(nil), f.ValueSamples...)
	out.Locators = append([]string(nil), f.Locators...)
	if f.ObjectShape != nil {
		out.ObjectShape = make(map[string]*FieldSpec, len(f.ObjectShape))
		for k, v := range f.ObjectShape {
			out.ObjectShape[k] = v.Clone()
		}
	}
	return out
}

// Schema is the mapping from field name to FieldSpec (spec.md §3). Field
// order is preserved separately via Order for user display; map iteration
// order is never relied upon for correctness.
type Schema struct {
	Fields map[string]*FieldSpec `json:"fields"`
	Order  []string              `json:"order"`
}

// New returns an empty Schema.
func New() *Schema {
	return &Schema{Fields: make(map[string]*FieldSpec)}
}

// Clone deep-copies a Schema.
func (s *Schema) Clone() *Schema {
	out := New()
	out.Order = append([]string(nil), s.Order...)
	for k, v := range s.Fields {
		out.Fields[k] = v.Clone()
	}
	return out
}

// Names returns the field names in display order.
func (s *Schema) Names() []string {
	return append([]string(nil), s.Order...)
}

// Set inserts or replaces a field, appending to Order if new.
func (s *Schema) Set(spec *FieldSpec) {
	if _, exists := s.Fields[spec.Name]; !exists {
		s.Order = append(s.Order, spec.Name)
	}
	s.Fields[spec.Name] = spec
}

// Get returns the named field, or nil if absent.
func (s *Schema) Get(name string) *FieldSpec {
	return s.Fields[name]
}

// Delete removes a field by name, preserving Order for the rest.
func (s *Schema) Delete(name string) {
	if _, exists := s.Fields[name]; !exists {
		return
	}
	delete(s.Fields, name)
	for i, n := range s.Order {
		if n == name {
			s.Order = append(s.Order[:i], s.Order[i+1:]...)
			break
		}
	}
}

// HasAllLocators reports whether every field has at least one locator,
// the invariant spec.md §3 requires once SchemaPhase concludes.
func (s *Schema) HasAllLocators() bool {
	for _, f := range s.Fields {
		if len(f.Locators) == 0 {
			return false
		}
	}
	return true
}
