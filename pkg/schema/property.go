package schema

// Type is the semantic type of a property.
type Type int

// Supported property types.
const (
	Int Type = iota
	String
	Float
	Bool
	Time
)

// SQLType returns the default column type for the semantic type.
func (t Type) SQLType() string {
	switch t {
	case Int:
		return "INTEGER"
	case String:
		return "TEXT"
	case Float:
		return "REAL"
	case Bool:
		return "BOOLEAN"
	case Time:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

// Property describes one plain column of an entity type.
//
// The zero values of Optional and OmitJSON give the common case: a
// required column included in the default JSON projection.
type Property struct {
	Name     string
	Type     Type
	SQLType  string // overrides Type.SQLType when set
	SQLExtra string // appended verbatim to the column definition, e.g. "UNIQUE"
	Optional bool   // when false the column is NOT NULL and a value is required
	OmitJSON bool   // excluded from the default JSON projection
	// Constraint, when set, must hold for every value assigned to the
	// property. Checked on construction, assignment, insert and update.
	Constraint func(any) bool
}

// columnType renders the SQL type part of the column definition.
func (p Property) columnType() string {
	typ := p.SQLType
	if typ == "" {
		typ = p.Type.SQLType()
	}
	if p.SQLExtra != "" {
		typ += " " + p.SQLExtra
	}
	if !p.Optional {
		typ += " NOT NULL"
	}
	return typ
}

// columnDef renders the full column definition for CREATE TABLE.
func (p Property) columnDef() string {
	return p.Name + " " + p.columnType()
}
