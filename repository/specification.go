/*
 * Copyright 2025 quarry-db.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package repository

import (
	"github.com/quarry-db/quarry/types"

	"github.com/uptrace/bun"
)

// IncludeFn is a caller-supplied composable accessor applying an eager-load
// instruction to a select query, typically via (*bun.SelectQuery).Relation.
// The composer never introspects navigation names itself; it only invokes
// what it is given, so chained and nested eager-loads stay possible.
type IncludeFn func(*bun.SelectQuery) *bun.SelectQuery

// Include returns an IncludeFn eager-loading the named relation.
func Include(relation string, apply ...func(*bun.SelectQuery) *bun.SelectQuery) IncludeFn {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Relation(relation, apply...)
	}
}

// Ordering is one ordering step of a specification: a column and a direction.
type Ordering struct {
	Column string
	Desc   bool
}

func (o Ordering) expr() string {
	if o.Desc {
		return o.Column + " DESC"
	}
	return o.Column + " ASC"
}

// Specification is an immutable, reusable, declarative description of a
// query: filter condition, eager-load instructions, orderings, and paging.
// Build one with NewSpec and consume it with Compose or the *BySpec
// repository operations.
type Specification[T any] struct {
	criteria   *types.QueryFilter
	includes   []IncludeFn
	orderings  []Ordering
	skip       int
	take       int
	noTracking bool
}

// SpecBuilder builds a Specification. The zero builder describes the whole
// entity set.
type SpecBuilder[T any] struct {
	spec Specification[T]
}

// NewSpec starts a specification builder for the entity type.
func NewSpec[T any]() *SpecBuilder[T] {
	return &SpecBuilder[T]{}
}

// Where sets the filter condition as a WHERE clause schema and arguments.
func (b *SpecBuilder[T]) Where(schema string, args ...interface{}) *SpecBuilder[T] {
	b.spec.criteria = types.NewQueryFilter(schema, args...)
	return b
}

// Include appends an eager-load instruction. Instructions are applied in the
// order they were declared.
func (b *SpecBuilder[T]) Include(includes ...IncludeFn) *SpecBuilder[T] {
	b.spec.includes = append(b.spec.includes, includes...)
	return b
}

// Relation appends an eager-load instruction for the named relation.
func (b *SpecBuilder[T]) Relation(relation string) *SpecBuilder[T] {
	return b.Include(Include(relation))
}

// OrderBy appends an ascending ordering. The first declared ordering is the
// primary sort; later ones chain as secondary sorts.
func (b *SpecBuilder[T]) OrderBy(column string) *SpecBuilder[T] {
	b.spec.orderings = append(b.spec.orderings, Ordering{Column: column})
	return b
}

// OrderByDesc appends a descending ordering.
func (b *SpecBuilder[T]) OrderByDesc(column string) *SpecBuilder[T] {
	b.spec.orderings = append(b.spec.orderings, Ordering{Column: column, Desc: true})
	return b
}

// Skip sets the number of leading rows to skip. Negative values count as
// zero. Paging requires a positive Take; Skip alone does not page.
func (b *SpecBuilder[T]) Skip(n int) *SpecBuilder[T] {
	if n < 0 {
		n = 0
	}
	b.spec.skip = n
	return b
}

// Take sets the page size. Take without Skip pages from the start; values
// below one leave the specification unpaged.
func (b *SpecBuilder[T]) Take(n int) *SpecBuilder[T] {
	if n > 0 {
		b.spec.take = n
	}
	return b
}

// NoTracking instructs reads through this specification not to attach
// materialized results to the session's tracked set.
func (b *SpecBuilder[T]) NoTracking() *SpecBuilder[T] {
	b.spec.noTracking = true
	return b
}

// Build returns the immutable specification.
func (b *SpecBuilder[T]) Build() *Specification[T] {
	spec := b.spec
	spec.includes = append([]IncludeFn(nil), b.spec.includes...)
	spec.orderings = append([]Ordering(nil), b.spec.orderings...)
	return &spec
}

// Criteria returns the filter condition, or nil when absent.
func (s *Specification[T]) Criteria() *types.QueryFilter { return s.criteria }

// IsNoTracking reports whether reads should skip change tracking.
func (s *Specification[T]) IsNoTracking() bool { return s != nil && s.noTracking }

// Compose applies the specification onto a base query without executing it.
// The application order is fixed so generated queries are deterministic:
// filter, then includes, then orderings in declared sequence, then paging
// (skip before take). A nil specification returns the base query unchanged.
// The no-tracking flag does not shape the query; callers honor it when
// materializing results.
func Compose[T any](q *bun.SelectQuery, spec *Specification[T]) *bun.SelectQuery {
	if spec == nil {
		return q
	}
	if spec.criteria != nil {
		q = q.Where(spec.criteria.Schema, spec.criteria.Args...)
	}
	for _, include := range spec.includes {
		q = include(q)
	}
	for _, ordering := range spec.orderings {
		q = q.Order(ordering.expr())
	}
	// OFFSET without LIMIT is not portable across the supported dialects,
	// so paging is a no-op until a page size is set.
	if spec.take > 0 {
		q = q.Offset(spec.skip).Limit(spec.take)
	}
	return q
}

// ComposeWhere is the overload for callers who do not need the declarative
// object: a bare filter plus includes converge on the same composition order
// as Compose.
func ComposeWhere[T any](q *bun.SelectQuery, filter *types.QueryFilter, includes ...IncludeFn) *bun.SelectQuery {
	builder := NewSpec[T]()
	if filter != nil {
		builder.Where(filter.Schema, filter.Args...)
	}
	builder.Include(includes...)
	return Compose(q, builder.Build())
}

// composeCriteria applies only the filter condition of the specification.
// Count and exists terminals use it: cardinality does not depend on
// eager-loads, orderings, or paging.
func composeCriteria[T any](q *bun.SelectQuery, spec *Specification[T]) *bun.SelectQuery {
	if spec == nil || spec.criteria == nil {
		return q
	}
	return q.Where(spec.criteria.Schema, spec.criteria.Args...)
}
