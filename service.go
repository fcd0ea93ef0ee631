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

package quarry

import (
	"context"
	"database/sql"
	"sync"

	"github.com/quarry-db/quarry/database"
	"github.com/quarry-db/quarry/metadata"
	"github.com/quarry-db/quarry/repository"
	"github.com/quarry-db/quarry/session"
	"github.com/quarry-db/quarry/types"

	"github.com/uptrace/bun"
)

// NewSession creates a unit-of-work session over the global database
// connection, with the model registry as the metadata authority. One session
// serves one logical unit of work; do not share it across goroutines.
func NewSession(opts ...session.Option) *session.Session {
	db := database.GetDB()
	resolver := metadata.NewResolver(db, database.RegisteredContains)
	opts = append([]session.Option{session.WithLogger(database.GetLogger())}, opts...)
	return session.New(db, resolver, opts...)
}

// Service is the umbrella API over a single entity type: querying through
// specifications, staged mutations with change tracking, named transactions,
// raw execution, and save semantics.
type Service[T any] interface {
	// Get returns a single entity by its identifier.
	Get(ctx context.Context, id interface{}) (*T, error)

	// GetBySpec returns the first entity matching the specification.
	GetBySpec(ctx context.Context, spec *repository.Specification[T]) (*T, error)

	// All returns all entities.
	All(ctx context.Context) ([]*T, error)

	// List returns entities that match the provided filter.
	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)

	// ListWith returns entities matching the filter with eager-loads applied,
	// optionally without change tracking.
	ListWith(ctx context.Context, filter *types.QueryFilter, noTracking bool, includes ...repository.IncludeFn) ([]*T, error)

	// ListBySpec returns entities matching the full specification.
	ListBySpec(ctx context.Context, spec *repository.Specification[T]) ([]*T, error)

	// Page returns a paginated list of entities.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	Count(ctx context.Context) (int, error)
	CountBySpec(ctx context.Context, spec *repository.Specification[T]) (int, error)
	Exists(ctx context.Context, filter *types.QueryFilter) (bool, error)
	ExistsBySpec(ctx context.Context, spec *repository.Specification[T]) (bool, error)

	// Insert stages a new entity and returns the current values of its
	// primary key properties in declared order.
	Insert(model *T) ([]interface{}, error)

	// Save stages one or more new entities.
	Save(model ...*T) error

	// Update stages a modification of an existing entity.
	Update(model *T) error

	// UpdateAll stages modifications for every entity without per-element
	// identity checks.
	UpdateAll(model ...*T) error

	// Delete stages removal of an entity.
	Delete(model *T) error

	// DeleteAll stages removal of every entity.
	DeleteAll(model ...*T) error

	// SaveChanges flushes staged mutations. Cancellation is honored here.
	SaveChanges(ctx context.Context) error

	// DetachAll forces every tracked entity into a detached state.
	DetachAll()

	// Exec executes a parameterized raw statement and returns the affected
	// row count.
	Exec(ctx context.Context, query string, args ...interface{}) (int64, error)

	// OpenTransaction begins a named transaction and makes it active.
	OpenTransaction(ctx context.Context, name string, isolation sql.IsolationLevel) error

	// SwitchTransaction makes the named transaction the active one.
	SwitchTransaction(name string) error

	// CloseTransaction commits or rolls back the named transaction and
	// removes it from the registry.
	CloseTransaction(name string, commit bool) error

	// Session returns the underlying unit-of-work session.
	Session() *session.Session

	// Repository returns the underlying generic repository.
	Repository() repository.Repository[T]

	// SelectBuilder returns a Bun select query builder for the entity.
	SelectBuilder() *bun.SelectQuery

	// InsertBuilder returns a Bun insert query builder for the entity.
	InsertBuilder() *bun.InsertQuery

	// UpdateBuilder returns a Bun update query builder for the entity.
	UpdateBuilder() *bun.UpdateQuery

	// DeleteBuilder returns a Bun delete query builder for the entity.
	DeleteBuilder() *bun.DeleteQuery
}

type baseServiceImpl[T any] struct {
	sess *session.Session
	repo repository.Repository[T]
	once sync.Once
}

// NewService returns a Service bound to an existing session, so that several
// entity services can share one unit of work and one transaction registry.
func NewService[T any](sess *session.Session) Service[T] {
	return &baseServiceImpl[T]{sess: sess, repo: repository.NewRepository[T](sess)}
}

// NewDefaultService returns a Service with a dedicated session over the
// global database connection, created lazily on first use.
func NewDefaultService[T any]() Service[T] {
	return &baseServiceImpl[T]{}
}

func (s *baseServiceImpl[T]) baseSession() *session.Session {
	s.once.Do(func() {
		if s.sess == nil {
			s.sess = NewSession()
			s.repo = repository.NewRepository[T](s.sess)
		}
	})
	return s.sess
}

func (s *baseServiceImpl[T]) baseRepo() repository.Repository[T] {
	s.baseSession()
	return s.repo
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id interface{}) (*T, error) {
	return s.baseRepo().Get(ctx, id)
}

func (s *baseServiceImpl[T]) GetBySpec(ctx context.Context, spec *repository.Specification[T]) (*T, error) {
	return s.baseRepo().GetBySpec(ctx, spec)
}

func (s *baseServiceImpl[T]) All(ctx context.Context) ([]*T, error) {
	return s.baseRepo().All(ctx)
}

func (s *baseServiceImpl[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	return s.baseRepo().List(ctx, filter)
}

func (s *baseServiceImpl[T]) ListWith(ctx context.Context, filter *types.QueryFilter, noTracking bool, includes ...repository.IncludeFn) ([]*T, error) {
	return s.baseRepo().ListWith(ctx, filter, noTracking, includes...)
}

func (s *baseServiceImpl[T]) ListBySpec(ctx context.Context, spec *repository.Specification[T]) ([]*T, error) {
	return s.baseRepo().ListBySpec(ctx, spec)
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	return s.baseRepo().Page(ctx, page)
}

func (s *baseServiceImpl[T]) Count(ctx context.Context) (int, error) {
	return s.baseRepo().Count(ctx)
}

func (s *baseServiceImpl[T]) CountBySpec(ctx context.Context, spec *repository.Specification[T]) (int, error) {
	return s.baseRepo().CountBySpec(ctx, spec)
}

func (s *baseServiceImpl[T]) Exists(ctx context.Context, filter *types.QueryFilter) (bool, error) {
	return s.baseRepo().Exists(ctx, filter)
}

func (s *baseServiceImpl[T]) ExistsBySpec(ctx context.Context, spec *repository.Specification[T]) (bool, error) {
	return s.baseRepo().ExistsBySpec(ctx, spec)
}

func (s *baseServiceImpl[T]) Insert(model *T) ([]interface{}, error) {
	return s.baseRepo().Insert(model)
}

func (s *baseServiceImpl[T]) Save(model ...*T) error {
	return s.baseRepo().InsertAll(model...)
}

func (s *baseServiceImpl[T]) Update(model *T) error {
	return s.baseRepo().Update(model)
}

func (s *baseServiceImpl[T]) UpdateAll(model ...*T) error {
	return s.baseRepo().UpdateAll(model...)
}

func (s *baseServiceImpl[T]) Delete(model *T) error {
	return s.baseRepo().Delete(model)
}

func (s *baseServiceImpl[T]) DeleteAll(model ...*T) error {
	return s.baseRepo().DeleteAll(model...)
}

func (s *baseServiceImpl[T]) SaveChanges(ctx context.Context) error {
	return s.baseSession().SaveChanges(ctx)
}

func (s *baseServiceImpl[T]) DetachAll() {
	s.baseSession().DetachAll()
}

func (s *baseServiceImpl[T]) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	return s.baseSession().Exec(ctx, query, args...)
}

func (s *baseServiceImpl[T]) OpenTransaction(ctx context.Context, name string, isolation sql.IsolationLevel) error {
	return s.baseSession().OpenTransaction(ctx, name, isolation)
}

func (s *baseServiceImpl[T]) SwitchTransaction(name string) error {
	return s.baseSession().SwitchTransaction(name)
}

func (s *baseServiceImpl[T]) CloseTransaction(name string, commit bool) error {
	return s.baseSession().CloseTransaction(name, commit)
}

func (s *baseServiceImpl[T]) Session() *session.Session { return s.baseSession() }

func (s *baseServiceImpl[T]) Repository() repository.Repository[T] { return s.baseRepo() }

func (s *baseServiceImpl[T]) SelectBuilder() *bun.SelectQuery {
	return s.baseRepo().NewSelect()
}

func (s *baseServiceImpl[T]) InsertBuilder() *bun.InsertQuery {
	return s.baseRepo().NewInsert()
}

func (s *baseServiceImpl[T]) UpdateBuilder() *bun.UpdateQuery {
	return s.baseRepo().NewUpdate()
}

func (s *baseServiceImpl[T]) DeleteBuilder() *bun.DeleteQuery {
	return s.baseRepo().NewDelete()
}
