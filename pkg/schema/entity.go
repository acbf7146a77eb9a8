package schema

import (
	"fmt"
	"strings"

	"github.com/evertheylen/sparrow/pkg/query"
	"github.com/evertheylen/sparrow/pkg/types"
)

// CheckFunc is an object-wide constraint over a fully-constructed set of
// property values.
type CheckFunc func(values types.Row) bool

// JSONFunc overrides the default JSON projection of an entity type.
type JSONFunc func(values types.Row) any

// Def is the declaration passed to Define.
type Def struct {
	Table    string // defaults to "table_<name>"
	RealTime bool   // instances support listeners
	Props    []Property
	Refs     []Reference
	Key      KeyDef
	Check    CheckFunc
	JSON     JSONFunc
}

// EntityType is the immutable schema of one entity type. Build it with
// Define; the precompiled statements and DDL are available afterwards.
type EntityType struct {
	name     string
	table    string
	realTime bool

	props []Property
	refs  []*Reference
	key   KeyDef
	check CheckFunc
	json  JSONFunc

	columns      []string // every column: props, ref columns, auto key
	valueColumns []string // columns written by insert/update
	keyColumns   []string
	jsonProps    []string

	insertStmt  *query.Stmt
	updateStmt  *query.Stmt
	deleteStmt  *query.Stmt
	findByKey   *query.Stmt
	createTable *query.Stmt
	dropTable   *query.Stmt
}

// Define builds an EntityType from its declaration and precompiles its
// statements. The declaration is validated; referenced names must exist
// and real-time references must target real-time entity types.
func Define(name string, def Def) (*EntityType, error) {
	if name == "" {
		return nil, fmt.Errorf("schema: entity type name must not be empty")
	}

	t := &EntityType{
		name:     name,
		table:    def.Table,
		realTime: def.RealTime,
		key:      def.Key,
		check:    def.Check,
		json:     def.JSON,
	}
	if t.table == "" {
		t.table = "table_" + name
	}

	seen := map[string]bool{}
	for _, p := range def.Props {
		if p.Name == "" {
			return nil, fmt.Errorf("schema: %s: property with empty name", name)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("schema: %s: duplicate property %q", name, p.Name)
		}
		seen[p.Name] = true
		t.props = append(t.props, p)
		if !p.OmitJSON {
			t.jsonProps = append(t.jsonProps, p.Name)
		}
	}

	for i := range def.Refs {
		r := def.Refs[i]
		if r.Name == "" || seen[r.Name] {
			return nil, fmt.Errorf("schema: %s: invalid reference name %q", name, r.Name)
		}
		if r.Target == nil {
			return nil, fmt.Errorf("schema: %s: reference %q has no target", name, r.Name)
		}
		if r.RealTime && !r.Target.realTime {
			return nil, fmt.Errorf("schema: %s: real-time reference %q targets %s: %w",
				name, r.Name, r.Target.name, types.ErrNotRealTime)
		}
		seen[r.Name] = true
		r.expand()
		t.refs = append(t.refs, &r)
	}

	if err := t.resolveKey(); err != nil {
		return nil, err
	}
	t.resolveColumns()
	t.compileStatements()
	return t, nil
}

// MustDefine is Define that panics on error, for package-level type
// declarations.
func MustDefine(name string, def Def) *EntityType {
	t, err := Define(name, def)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *EntityType) resolveKey() error {
	if t.key.auto {
		if t.key.autoName == "" {
			return fmt.Errorf("schema: %s: auto key needs a column name", t.name)
		}
		if len(t.key.props) > 0 {
			return fmt.Errorf("schema: %s: auto key cannot have extra properties", t.name)
		}
		t.keyColumns = []string{t.key.autoName}
		return nil
	}
	if len(t.key.props) == 0 {
		return fmt.Errorf("schema: %s: entity type needs a key", t.name)
	}
	for _, n := range t.key.props {
		if r := t.refByName(n); r != nil {
			t.keyColumns = append(t.keyColumns, r.ColumnNames()...)
			continue
		}
		if t.propByName(n) == nil {
			return fmt.Errorf("schema: %s: key component %q: %w", t.name, n, types.ErrUnknownProperty)
		}
		t.keyColumns = append(t.keyColumns, n)
	}
	return nil
}

func (t *EntityType) resolveColumns() {
	for _, p := range t.props {
		t.columns = append(t.columns, p.Name)
		t.valueColumns = append(t.valueColumns, p.Name)
	}
	for _, r := range t.refs {
		t.columns = append(t.columns, r.ColumnNames()...)
		t.valueColumns = append(t.valueColumns, r.ColumnNames()...)
	}
	if t.key.auto {
		t.columns = append(t.columns, t.key.autoName)
	}
}

func (t *EntityType) compileStatements() {
	if t.key.auto {
		t.insertStmt = query.Insert(t.table, t.valueColumns, t.key.autoName)
	} else {
		t.insertStmt = query.Insert(t.table, t.valueColumns)
	}
	t.updateStmt = query.Update(t.table, t.valueColumns, t.keyColumns)
	t.deleteStmt = query.Delete(t.table, t.keyColumns)

	sel := query.Select(t.table)
	for _, kc := range t.keyColumns {
		sel.Where(query.C(kc, query.OpEq, query.Field(kc)))
	}
	t.findByKey = sel.Build()

	t.createTable = query.Raw(t.createTableDDL(), nil)
	t.dropTable = query.Raw("DROP TABLE IF EXISTS "+t.table, nil)
}

func (t *EntityType) createTableDDL() string {
	var lines []string
	for _, p := range t.props {
		lines = append(lines, p.columnDef())
	}
	for _, r := range t.refs {
		for _, c := range r.columns {
			lines = append(lines, c.Name+" "+c.SQLType+" NOT NULL")
		}
	}
	if t.key.auto {
		// Column-level PRIMARY KEY so SQLite treats it as the rowid
		// alias and assigns values on insert.
		lines = append(lines, t.key.autoName+" INTEGER PRIMARY KEY")
	} else {
		lines = append(lines, "PRIMARY KEY ("+strings.Join(t.keyColumns, ", ")+")")
	}
	for _, r := range t.refs {
		lines = append(lines, r.foreignKeyDef())
	}
	return "CREATE TABLE " + t.table + " (\n\t" + strings.Join(lines, ",\n\t") + "\n)"
}

// Name returns the entity type name.
func (t *EntityType) Name() string { return t.name }

// TableName returns the storage table name.
func (t *EntityType) TableName() string { return t.table }

// RealTime reports whether instances support listeners.
func (t *EntityType) RealTime() bool { return t.realTime }

// Props returns the declared plain properties.
func (t *EntityType) Props() []Property { return t.props }

// Refs returns the declared references.
func (t *EntityType) Refs() []*Reference { return t.refs }

// Key returns the key definition.
func (t *EntityType) Key() KeyDef { return t.key }

// Columns returns every column of the entity table.
func (t *EntityType) Columns() []string { return t.columns }

// ValueColumns returns the columns written by insert and update, which
// excludes a database-generated key column.
func (t *EntityType) ValueColumns() []string { return t.valueColumns }

// KeyColumns returns the key columns in key order.
func (t *EntityType) KeyColumns() []string { return t.keyColumns }

// JSONProps returns the property names included in the default JSON
// projection.
func (t *EntityType) JSONProps() []string { return t.jsonProps }

// Ref returns the named reference.
func (t *EntityType) Ref(name string) (*Reference, error) {
	if r := t.refByName(name); r != nil {
		return r, nil
	}
	return nil, fmt.Errorf("%s.%s: %w", t.name, name, types.ErrUnknownReference)
}

// Prop returns the named property.
func (t *EntityType) Prop(name string) (*Property, error) {
	if p := t.propByName(name); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("%s.%s: %w", t.name, name, types.ErrUnknownProperty)
}

func (t *EntityType) refByName(name string) *Reference {
	for _, r := range t.refs {
		if r.Name == name {
			return r
		}
	}
	return nil
}

func (t *EntityType) propByName(name string) *Property {
	for i := range t.props {
		if t.props[i].Name == name {
			return &t.props[i]
		}
	}
	return nil
}

func (t *EntityType) keyColumnType(col string) string {
	if t.key.auto && col == t.key.autoName {
		return "INTEGER"
	}
	if p := t.propByName(col); p != nil {
		if p.SQLType != "" {
			return p.SQLType
		}
		return p.Type.SQLType()
	}
	for _, r := range t.refs {
		for _, c := range r.columns {
			if c.Name == col {
				return c.SQLType
			}
		}
	}
	return "TEXT"
}

// KeyFromRow extracts the key of a row, in key-column order. The key is
// undetermined when any component is missing or nil.
func (t *EntityType) KeyFromRow(row types.Row) types.Key {
	parts := make([]any, 0, len(t.keyColumns))
	for _, kc := range t.keyColumns {
		v, ok := row[kc]
		if !ok || v == nil {
			return types.Key{}
		}
		parts = append(parts, v)
	}
	return types.NewKey(parts...)
}

// KeyData maps a key onto its column names for statement binding.
func (t *EntityType) KeyData(k types.Key) (types.Row, error) {
	comps := k.Components()
	if len(comps) != len(t.keyColumns) {
		return nil, fmt.Errorf("%s: key has %d components, want %d: %w",
			t.name, len(comps), len(t.keyColumns), types.ErrUndeterminedKey)
	}
	data := make(types.Row, len(comps))
	for i, kc := range t.keyColumns {
		data[kc] = comps[i]
	}
	return data, nil
}

// CheckValue validates one property value against its constraint.
func (t *EntityType) CheckValue(prop string, value any) error {
	p := t.propByName(prop)
	if p == nil {
		return fmt.Errorf("%s.%s: %w", t.name, prop, types.ErrUnknownProperty)
	}
	if !p.Optional && value == nil {
		return &types.ConstraintError{Entity: t.name, Property: prop}
	}
	if p.Constraint != nil && !p.Constraint(value) {
		return &types.ConstraintError{Entity: t.name, Property: prop}
	}
	return nil
}

// CheckRow validates every property constraint and the object-wide
// constraint against a full set of values. It fails fast with a
// ConstraintError and never touches storage.
func (t *EntityType) CheckRow(row types.Row) error {
	for _, p := range t.props {
		if err := t.CheckValue(p.Name, row[p.Name]); err != nil {
			return err
		}
	}
	if t.check != nil && !t.check(row) {
		return &types.ConstraintError{Entity: t.name}
	}
	return nil
}

// JSONValue projects a row to its JSON-serializable form: the override
// from the declaration when present, otherwise a map of every property
// not marked OmitJSON.
func (t *EntityType) JSONValue(row types.Row) any {
	if t.json != nil {
		return t.json(row)
	}
	out := make(map[string]any, len(t.jsonProps))
	for _, name := range t.jsonProps {
		out[name] = row[name]
	}
	return out
}

// InsertStmt returns the precompiled INSERT. For auto-key types it
// carries a RETURNING clause for the generated key.
func (t *EntityType) InsertStmt() *query.Stmt { return t.insertStmt }

// UpdateStmt returns the precompiled UPDATE keyed on the key columns.
func (t *EntityType) UpdateStmt() *query.Stmt { return t.updateStmt }

// DeleteStmt returns the precompiled DELETE keyed on the key columns.
func (t *EntityType) DeleteStmt() *query.Stmt { return t.deleteStmt }

// FindByKeyStmt returns the precompiled SELECT by key.
func (t *EntityType) FindByKeyStmt() *query.Stmt { return t.findByKey }

// CreateTable returns the CREATE TABLE statement.
func (t *EntityType) CreateTable() *query.Stmt { return t.createTable }

// DropTable returns the DROP TABLE IF EXISTS statement.
func (t *EntityType) DropTable() *query.Stmt { return t.dropTable }
