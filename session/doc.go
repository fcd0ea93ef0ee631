// Package session provides the unit-of-work wrapper over a Bun database:
// change tracking with staged mutations, save semantics, raw execution, and a
// name-keyed registry of open transactions.
package session
