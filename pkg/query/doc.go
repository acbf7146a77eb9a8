// Package query builds parameterized SQL statements: condition trees,
// raw statements with %(name)s named placeholders, and SELECT, INSERT,
// UPDATE and DELETE builders.
//
// A built Stmt carries its statement text plus the data bound so far.
// Statements built from Field placeholders contain no data and may be
// compiled once and reused; WithData supplies the bound values for one
// execution. Caller-supplied values never reach the statement text by
// concatenation: they bind either through a named placeholder or through
// an explicit Unsafe wrapper.
package query
