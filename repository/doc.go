// Package repository provides a generic, specification-driven repository
// abstraction built on Bun: declarative query composition, projection,
// pagination, and change-tracking-aware staged mutations.
package repository
