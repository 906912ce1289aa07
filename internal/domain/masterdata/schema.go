package masterdata

// FieldType is the semantic type of a canonical field
type FieldType string

const (
	// FieldText is free text, kept as-is after trimming
	FieldText FieldType = "text"
	// FieldNumeric is a decimal number with strict parsing rules
	FieldNumeric FieldType = "numeric"
	// FieldDate is a calendar date in one of the accepted layouts
	FieldDate FieldType = "date"
	// FieldCode is an identifier-like value, trimmed and uppercased
	FieldCode FieldType = "code"
)

// NormalizeFunc canonicalizes a raw cell value before type coercion.
// Returning an error marks the record invalid for that field.
type NormalizeFunc func(string) (string, error)

// FieldSpec describes one canonical field of a dataset schema
type FieldSpec struct {
	Name      string        `json:"name"`
	Type      FieldType     `json:"type"`
	Required  bool          `json:"required"`
	Aliases   []string      `json:"aliases,omitempty"`
	Normalize NormalizeFunc `json:"-"`
}

// CanonicalSchema is the fixed, ordered set of fields a dataset's records
// expose, independent of the source file's actual column headers. Field
// order is meaningful: header-mapping ties resolve to the earliest field.
type CanonicalSchema struct {
	Name   string      `json:"name"`
	Fields []FieldSpec `json:"fields"`
}

// Field returns the FieldSpec for a canonical field name
func (s *CanonicalSchema) Field(name string) (*FieldSpec, bool) {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i], true
		}
	}
	return nil, false
}

// FieldNames returns the canonical field names in declaration order
func (s *CanonicalSchema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i := range s.Fields {
		names[i] = s.Fields[i].Name
	}
	return names
}

// RequiredFields returns the names of all required fields in declaration order
func (s *CanonicalSchema) RequiredFields() []string {
	var names []string
	for i := range s.Fields {
		if s.Fields[i].Required {
			names = append(names, s.Fields[i].Name)
		}
	}
	return names
}
