// Package schema describes the expected shape of a dataset's rows: which
// fields exist, their logical types, and which values are acceptable.
package schema

// Field is one contract column.
type Field struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"` // "int" | "float" | "text" | "bool" | "date"
	Required bool     `json:"required,omitempty"`
	Enum     []string `json:"enum,omitempty"`
	Layout   string   `json:"layout,omitempty"` // date layout
	Truthy   []string `json:"truthy,omitempty"` // bool parsing
	Falsy    []string `json:"falsy,omitempty"`
}

// Contract is a named list of fields.
type Contract struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// FieldNames returns the contract's field names in order.
func (c Contract) FieldNames() []string {
	out := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		out[i] = f.Name
	}
	return out
}
