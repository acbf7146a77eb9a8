// Package schema describes entity types: their properties, key
// definition, references to other entity types, and constraints.
//
// An EntityType is built once through Define and immutable afterwards.
// Define expands references into one column per component of the target
// key, resolves the key definition, and precompiles the insert, update,
// delete and find-by-key statements along with the CREATE TABLE and DROP
// TABLE DDL.
package schema
