// Package types defines the shared vocabulary of the sparrow object mapper:
// entity keys, result rows, the Executor contract implemented by storage
// adapters, the error taxonomy, and the connection Config.
//
// It is a leaf package; every other sparrow package depends on it and it
// depends only on the standard library.
package types
