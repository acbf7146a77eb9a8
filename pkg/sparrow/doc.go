// Package sparrow is an object mapper that keeps exactly one in-memory
// instance per persisted record and delivers live change notifications
// along real-time references between records.
//
// A Model binds a set of schema.EntityType declarations to one storage
// executor. Every row read from storage passes through the per-type
// identity cache, so repeated queries for the same key always yield the
// same *Instance as long as it is referenced anywhere in the process.
// Cache entries hold instances weakly and are evicted by the garbage
// collector once nothing else retains them.
//
// Instances of real-time entity types accept listeners. Listeners are
// notified synchronously, in the goroutine performing the mutation:
// OnUpdate after a successful update, OnDelete after a successful
// delete, and OnReferenceAdded/OnReferenceRemoved when a real-time
// reference of a listened instance is pointed at or away from a target.
package sparrow
