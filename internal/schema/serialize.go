package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON emits {name: FieldSpec, ...} preserving Order, per spec.md
// §6: "field order in the file is preserved on read/write."
func (s *Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.Order {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := json.Marshal(s.Fields[name])
		if err != nil {
			return nil, err
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads {name: FieldSpec, ...}, recovering Order from the
// raw token stream since Go's map decoding does not preserve key order.
func (s *Schema) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("schema: expected JSON object, got %v", tok)
	}

	s.Fields = make(map[string]*FieldSpec)
	s.Order = nil

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("schema: expected string key, got %v", keyTok)
		}

		var spec FieldSpec
		if err := dec.Decode(&spec); err != nil {
			return fmt.Errorf("schema: field %q: %w", name, err)
		}
		spec.Name = name
		s.Fields[name] = &spec
		s.Order = append(s.Order, name)
	}
	// consume closing '}'
	_, err = dec.Token()
	return err
}
