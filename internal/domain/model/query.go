package model

import (
	"maps"
	"slices"
)

// SchemaVersion identifies the source schema generation a query reads.
type SchemaVersion string

const (
	// SchemaV1 is the legacy schema (*_legacy tables, masked PII).
	SchemaV1 SchemaVersion = "v1"
	// SchemaV2 is the tokenized schema (*_v2 tables).
	SchemaV2 SchemaVersion = "v2"
)

// Valid returns true for v1 and v2.
func (v SchemaVersion) Valid() bool {
	return v == SchemaV1 || v == SchemaV2
}

// QueryVariant is a named SQL template bound to one schema version.
type QueryVariant struct {
	Name    string
	Job     JobName
	Version SchemaVersion
	// SQL uses @name placeholders bound through named arguments.
	SQL string
	// Params lists the placeholder names in order of first appearance.
	Params []string
	// Columns lists the output columns in select order.
	Columns []string
}

// MissingParams returns the required placeholders that have no non-nil value in p.
func (v QueryVariant) MissingParams(p Params) []string {
	var missing []string
	for _, name := range v.Params {
		if val, ok := p[name]; !ok || val == nil {
			missing = append(missing, name)
		}
	}
	return missing
}

// HasColumn reports whether the variant declares col as an output column.
func (v QueryVariant) HasColumn(col string) bool {
	return slices.Contains(v.Columns, col)
}

// Params holds bind parameter values keyed by placeholder name.
type Params map[string]any

// Clone returns a shallow copy of p.
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}
	return maps.Clone(p)
}

// With returns a copy of p with every entry of over applied on top.
func (p Params) With(over Params) Params {
	out := p.Clone()
	maps.Copy(out, over)
	return out
}

// Names returns the parameter names sorted.
func (p Params) Names() []string {
	return slices.Sorted(maps.Keys(p))
}
