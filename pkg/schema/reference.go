package schema

import "strings"

// Reference declares a typed reference to another entity type. It
// expands into one column per component of the target's key, named
// "<refname>_<target key column>".
//
// A real-time reference additionally maintains the reverse index that
// lets listeners of the referencing instance learn about edge changes.
// Real-time references may only target entity types that support
// listeners.
type Reference struct {
	Name     string
	Target   *EntityType
	RealTime bool

	columns []RefColumn // filled in by Define
}

// RefColumn is one expanded column of a reference.
type RefColumn struct {
	Name         string // column on the referencing table
	TargetColumn string // key column on the target table
	SQLType      string
}

// Columns returns the expanded columns. Only valid after Define.
func (r *Reference) Columns() []RefColumn { return r.columns }

// ColumnNames returns the expanded column names in order.
func (r *Reference) ColumnNames() []string {
	names := make([]string, len(r.columns))
	for i, c := range r.columns {
		names[i] = c.Name
	}
	return names
}

// expand computes the reference's columns from the target key.
func (r *Reference) expand() {
	keyCols := r.Target.KeyColumns()
	r.columns = make([]RefColumn, len(keyCols))
	for i, kc := range keyCols {
		r.columns[i] = RefColumn{
			Name:         r.Name + "_" + kc,
			TargetColumn: kc,
			SQLType:      r.Target.keyColumnType(kc),
		}
	}
}

// foreignKeyDef renders the FOREIGN KEY constraint line for CREATE TABLE.
func (r *Reference) foreignKeyDef() string {
	targets := make([]string, len(r.columns))
	for i, c := range r.columns {
		targets[i] = c.TargetColumn
	}
	return "FOREIGN KEY (" + strings.Join(r.ColumnNames(), ", ") + ") REFERENCES " +
		r.Target.TableName() + " (" + strings.Join(targets, ", ") + ")"
}
