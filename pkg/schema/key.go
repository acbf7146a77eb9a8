package schema

// KeyDef describes how instances of an entity type are keyed: either a
// single database-generated integer column, or one or more declared
// properties and references forming a (possibly composite) key.
type KeyDef struct {
	auto     bool
	autoName string
	props    []string
}

// AutoKey declares a single integer key column whose value the database
// assigns at insert. The key of an instance is undetermined until its
// first successful insert.
func AutoKey(column string) KeyDef {
	return KeyDef{auto: true, autoName: column}
}

// KeyOn declares a key over the named properties or references, in
// order. A reference name expands to all of its columns.
func KeyOn(names ...string) KeyDef {
	return KeyDef{props: names}
}

// Auto reports whether the key is database-generated.
func (k KeyDef) Auto() bool { return k.auto }

// AutoColumn returns the column name of a database-generated key.
func (k KeyDef) AutoColumn() string { return k.autoName }
