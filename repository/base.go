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
	"reflect"

	"github.com/quarry-db/quarry/session"
	"github.com/quarry-db/quarry/types"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

type baseRepositoryImpl[T any] struct {
	sess *session.Session
}

// NewRepository returns a generic repository bound to the provided session.
// Queries and staged mutations issued through it share the session's change
// tracking and transaction registry.
func NewRepository[T any](sess *session.Session) Repository[T] {
	return &baseRepositoryImpl[T]{sess: sess}
}

func (r *baseRepositoryImpl[T]) entityType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (r *baseRepositoryImpl[T]) Session() *session.Session { return r.sess }

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.sess.DB().Dialect() }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery { return r.sess.IDB().NewSelect() }

func (r *baseRepositoryImpl[T]) NewInsert() *bun.InsertQuery { return r.sess.IDB().NewInsert() }

func (r *baseRepositoryImpl[T]) NewUpdate() *bun.UpdateQuery { return r.sess.IDB().NewUpdate() }

func (r *baseRepositoryImpl[T]) NewDelete() *bun.DeleteQuery { return r.sess.IDB().NewDelete() }

func (r *baseRepositoryImpl[T]) Get(ctx context.Context, id interface{}) (*T, error) {
	predicate, err := r.sess.Resolver().EqualsPrimaryKey(r.entityType(), id)
	if err != nil {
		return nil, err
	}

	var entity T
	query := predicate.Apply(r.sess.IDB().NewSelect().Model(&entity))
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	r.sess.Attach(&entity)
	return &entity, nil
}

func (r *baseRepositoryImpl[T]) GetBySpec(ctx context.Context, spec *Specification[T]) (*T, error) {
	var entity T
	query := Compose(r.sess.IDB().NewSelect().Model(&entity), spec).Limit(1)
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	if !spec.IsNoTracking() {
		r.sess.Attach(&entity)
	}
	return &entity, nil
}

func (r *baseRepositoryImpl[T]) All(ctx context.Context) ([]*T, error) {
	return r.ListBySpec(ctx, nil)
}

func (r *baseRepositoryImpl[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	return r.ListWith(ctx, filter, false)
}

func (r *baseRepositoryImpl[T]) ListWith(ctx context.Context, filter *types.QueryFilter, noTracking bool, includes ...IncludeFn) ([]*T, error) {
	builder := NewSpec[T]()
	if filter != nil {
		builder.Where(filter.Schema, filter.Args...)
	}
	builder.Include(includes...)
	if noTracking {
		builder.NoTracking()
	}
	return r.ListBySpec(ctx, builder.Build())
}

func (r *baseRepositoryImpl[T]) ListBySpec(ctx context.Context, spec *Specification[T]) ([]*T, error) {
	var entities []*T
	query := Compose(r.sess.IDB().NewSelect().Model(&entities), spec)
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	if !spec.IsNoTracking() {
		for _, entity := range entities {
			r.sess.Attach(entity)
		}
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context) (int, error) {
	return r.CountBySpec(ctx, nil)
}

func (r *baseRepositoryImpl[T]) CountWhere(ctx context.Context, filter *types.QueryFilter) (int, error) {
	query := r.sess.IDB().NewSelect().Model((*T)(nil))
	if filter != nil {
		query = query.Where(filter.Schema, filter.Args...)
	}
	return query.Count(ctx)
}

func (r *baseRepositoryImpl[T]) CountBySpec(ctx context.Context, spec *Specification[T]) (int, error) {
	query := composeCriteria(r.sess.IDB().NewSelect().Model((*T)(nil)), spec)
	return query.Count(ctx)
}

func (r *baseRepositoryImpl[T]) Exists(ctx context.Context, filter *types.QueryFilter) (bool, error) {
	query := r.sess.IDB().NewSelect().Model((*T)(nil))
	if filter != nil {
		query = query.Where(filter.Schema, filter.Args...)
	}
	return query.Exists(ctx)
}

func (r *baseRepositoryImpl[T]) ExistsBySpec(ctx context.Context, spec *Specification[T]) (bool, error) {
	query := composeCriteria(r.sess.IDB().NewSelect().Model((*T)(nil)), spec)
	return query.Exists(ctx)
}

func (r *baseRepositoryImpl[T]) Page(ctx context.Context, pageRequest *types.PageRequest) (*types.Pagination[T], error) {
	var entities []*T
	query := r.sess.IDB().NewSelect().Model(&entities)
	if pageRequest.GetFilter() != nil {
		query = query.Where(pageRequest.GetFilter().Schema, pageRequest.GetFilter().Args...)
	}
	pagination := types.NewDefaultPagination[T](pageRequest.GetPage(), pageRequest.GetPageSize())
	total, err := query.Count(ctx)
	if err != nil || total == 0 {
		return pagination, err
	}
	err = query.
		Offset(pageRequest.GetOffset()).
		Limit(pageRequest.GetPageSize()).
		Order(pageRequest.GetOrders()...).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	for _, entity := range entities {
		r.sess.Attach(entity)
	}
	pagination.Total = total
	pagination.Items = entities
	return pagination, nil
}

func (r *baseRepositoryImpl[T]) Insert(entity *T) ([]interface{}, error) {
	if entity == nil {
		return nil, types.InvalidArgumentf("entity to insert is required")
	}
	return r.sess.Insert(entity)
}

func (r *baseRepositoryImpl[T]) InsertAll(entities ...*T) error {
	return r.sess.InsertAll(asAny(entities)...)
}

func (r *baseRepositoryImpl[T]) Update(entity *T) error {
	if entity == nil {
		return types.InvalidArgumentf("entity to update is required")
	}
	return r.sess.Update(entity)
}

func (r *baseRepositoryImpl[T]) UpdateAll(entities ...*T) error {
	return r.sess.UpdateAll(asAny(entities)...)
}

func (r *baseRepositoryImpl[T]) Delete(entity *T) error {
	if entity == nil {
		return types.InvalidArgumentf("entity to delete is required")
	}
	return r.sess.Delete(entity)
}

func (r *baseRepositoryImpl[T]) DeleteAll(entities ...*T) error {
	return r.sess.DeleteAll(asAny(entities)...)
}

func (r *baseRepositoryImpl[T]) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	return r.sess.Exec(ctx, query, args...)
}

// Project applies the specification and scans the selected columns into the
// projection type P. Results are never attached to the tracked set; a
// projection is not an entity.
func Project[T any, P any](ctx context.Context, repo Repository[T], spec *Specification[T], columns ...string) ([]P, error) {
	var rows []P
	query := Compose(repo.Session().IDB().NewSelect().Model((*T)(nil)), spec)
	if len(columns) > 0 {
		query = query.Column(columns...)
	}
	if err := query.Scan(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func asAny[T any](entities []*T) []interface{} {
	out := make([]interface{}, len(entities))
	for i, entity := range entities {
		if entity != nil {
			out[i] = entity
		}
	}
	return out
}
