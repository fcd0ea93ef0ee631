// Package metadata resolves primary key metadata for entity types from the
// Bun model description and builds typed key-equality predicates from loosely
// typed caller-supplied values.
package metadata
