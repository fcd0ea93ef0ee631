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
	"context"

	"github.com/quarry-db/quarry/session"
	"github.com/quarry-db/quarry/types"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// ReadRepository defines query operations for a generic entity type. The
// plain, filtered, and specification-driven variants all converge on the same
// composition path.
type ReadRepository[T any] interface {
	// Get returns the entity whose first primary key column equals id. The
	// id is coerced to the declared key type before the query is built.
	Get(ctx context.Context, id interface{}) (*T, error)

	// GetBySpec returns the first entity matching the specification.
	GetBySpec(ctx context.Context, spec *Specification[T]) (*T, error)

	// All returns all entities.
	All(ctx context.Context) ([]*T, error)

	// List returns entities matching the filter.
	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)

	// ListWith returns entities matching the filter with eager-loads applied,
	// optionally skipping change tracking for read-only consumers.
	ListWith(ctx context.Context, filter *types.QueryFilter, noTracking bool, includes ...IncludeFn) ([]*T, error)

	// ListBySpec returns entities matching the full specification.
	ListBySpec(ctx context.Context, spec *Specification[T]) ([]*T, error)

	Count(ctx context.Context) (int, error)
	CountWhere(ctx context.Context, filter *types.QueryFilter) (int, error)
	CountBySpec(ctx context.Context, spec *Specification[T]) (int, error)

	Exists(ctx context.Context, filter *types.QueryFilter) (bool, error)
	ExistsBySpec(ctx context.Context, spec *Specification[T]) (bool, error)
}

// WriteRepository defines staged mutation operations. Mutations are not
// executed until the session's SaveChanges runs.
type WriteRepository[T any] interface {
	// Insert stages the entity for insertion and returns the current values
	// of its primary key properties in declared order.
	Insert(entity *T) ([]interface{}, error)

	// InsertAll stages every entity for insertion.
	InsertAll(entities ...*T) error

	// Update stages the entity for update, validating its identity when the
	// instance is not already tracked.
	Update(entity *T) error

	// UpdateAll stages every entity as modified without per-element identity
	// checks.
	UpdateAll(entities ...*T) error

	// Delete stages the entity for removal regardless of tracking state.
	Delete(entity *T) error

	// DeleteAll stages every entity for removal.
	DeleteAll(entities ...*T) error
}

// PageQueryRepository defines pagination functionality for listing entities.
type PageQueryRepository[T any] interface {
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
}

// Repository combines querying, staged mutations, and pagination, and exposes
// the session and Bun query builders for advanced use cases.
type Repository[T any] interface {
	ReadRepository[T]
	WriteRepository[T]
	PageQueryRepository[T]

	// Exec executes a parameterized raw statement and returns the affected
	// row count.
	Exec(ctx context.Context, query string, args ...interface{}) (int64, error)

	Session() *session.Session
	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
	NewInsert() *bun.InsertQuery
	NewUpdate() *bun.UpdateQuery
	NewDelete() *bun.DeleteQuery
}
