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

package session

import (
	"context"
	"fmt"

	"github.com/quarry-db/quarry/metadata"
	"github.com/quarry-db/quarry/types"

	"github.com/uptrace/bun"
)

// Logger is the subset of the database logger used by the session.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Session is a single-owner unit-of-work wrapper over a Bun database. It owns
// the tracked-entity set, the named transaction registry, and the active
// transaction pointer. One session serves one logical unit of work and must
// not be used from multiple goroutines concurrently.
type Session struct {
	db       *bun.DB
	resolver *metadata.Resolver
	tracker  *tracker
	txs      map[string]*bun.Tx
	active   *bun.Tx
	logger   Logger
}

// Option configures a session.
type Option func(*Session)

// WithLogger sets a logger used for transaction lifecycle events.
func WithLogger(logger Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// New creates a session over the given database and metadata resolver.
func New(db *bun.DB, resolver *metadata.Resolver, opts ...Option) *Session {
	s := &Session{
		db:       db,
		resolver: resolver,
		tracker:  newTracker(),
		txs:      make(map[string]*bun.Tx),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying Bun database.
func (s *Session) DB() *bun.DB { return s.db }

// Resolver returns the metadata resolver bound to this session.
func (s *Session) Resolver() *metadata.Resolver { return s.resolver }

// IDB returns the active transaction if one is set, otherwise the database.
// Query builders obtained from it compose against the right executor.
func (s *Session) IDB() bun.IDB {
	if s.active != nil {
		return *s.active
	}
	return s.db
}

// Insert stages the entity for insertion and returns the current values of
// all of its primary key properties in declared order. Store-generated keys
// are resolved onto the entity during SaveChanges.
func (s *Session) Insert(entity interface{}) ([]interface{}, error) {
	if entity == nil {
		return nil, types.InvalidArgumentf("entity to insert is required")
	}
	keys, err := s.resolver.KeyValues(entity)
	if err != nil {
		return nil, err
	}
	s.tracker.set(entity, StateAdded)
	return keys, nil
}

// InsertAll stages every entity in the sequence for insertion.
func (s *Session) InsertAll(entities ...interface{}) error {
	for _, entity := range entities {
		if entity == nil {
			return types.InvalidArgumentf("entity to insert is required")
		}
		s.tracker.set(entity, StateAdded)
	}
	return nil
}

// Update stages the entity for update. An instance already tracked by this
// session needs no identity validation; its tracking already observes the
// mutation. An untracked instance must carry a non-zero primary key value,
// otherwise it was never persisted and the update fails with types.ErrState.
func (s *Session) Update(entity interface{}) error {
	if entity == nil {
		return types.InvalidArgumentf("entity to update is required")
	}

	if entry, ok := s.tracker.get(entity); ok {
		if entry.State == StateUnchanged {
			entry.State = StateModified
		}
		return nil
	}

	zero, err := s.resolver.HasZeroKey(entity)
	if err != nil {
		return err
	}
	if zero {
		return types.Statef("entity to update has no valid identity")
	}

	s.tracker.set(entity, StateModified)
	return nil
}

// UpdateAll stages every entity in the sequence as modified without
// per-element identity checks.
func (s *Session) UpdateAll(entities ...interface{}) error {
	for _, entity := range entities {
		if entity == nil {
			return types.InvalidArgumentf("entity to update is required")
		}
		s.tracker.set(entity, StateModified)
	}
	return nil
}

// Delete stages the entity for removal regardless of its tracking state.
func (s *Session) Delete(entity interface{}) error {
	if entity == nil {
		return types.InvalidArgumentf("entity to delete is required")
	}
	s.tracker.set(entity, StateDeleted)
	return nil
}

// DeleteAll stages every entity in the sequence for removal.
func (s *Session) DeleteAll(entities ...interface{}) error {
	for _, entity := range entities {
		if entity == nil {
			return types.InvalidArgumentf("entity to delete is required")
		}
		s.tracker.set(entity, StateDeleted)
	}
	return nil
}

// Attach tracks the entity as unchanged when it is not tracked yet. Reads
// attach materialized entities through this unless a no-tracking query asked
// otherwise.
func (s *Session) Attach(entity interface{}) {
	if entity == nil {
		return
	}
	if _, ok := s.tracker.get(entity); ok {
		return
	}
	s.tracker.set(entity, StateUnchanged)
}

// Entry returns the tracking state of the exact entity instance.
func (s *Session) Entry(entity interface{}) (EntityState, bool) {
	entry, ok := s.tracker.get(entity)
	if !ok {
		return StateUnchanged, false
	}
	return entry.State, true
}

// TrackedCount returns the number of tracked entity instances.
func (s *Session) TrackedCount() int { return s.tracker.len() }

// DetachAll forces every currently tracked entity into a detached state.
// Staged mutations that were not saved are discarded.
func (s *Session) DetachAll() { s.tracker.detachAll() }

// SaveChanges flushes staged mutations in staging order against the active
// transaction, or the database when none is active. It is the only operation
// honoring cancellation; staging operations are synchronous and validate
// up front. On success, inserted and updated entries collapse to unchanged
// and deleted entries are detached.
func (s *Session) SaveChanges(ctx context.Context) error {
	idb := s.IDB()

	for _, entry := range s.tracker.order {
		var err error
		switch entry.State {
		case StateAdded:
			_, err = idb.NewInsert().Model(entry.Entity).Exec(ctx)
		case StateModified:
			_, err = idb.NewUpdate().Model(entry.Entity).WherePK().Exec(ctx)
		case StateDeleted:
			_, err = idb.NewDelete().Model(entry.Entity).WherePK().Exec(ctx)
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("save changes: %w", err)
		}
	}

	var deleted []interface{}
	for _, entry := range s.tracker.order {
		switch entry.State {
		case StateAdded, StateModified:
			entry.State = StateUnchanged
		case StateDeleted:
			deleted = append(deleted, entry.Entity)
		}
	}
	for _, entity := range deleted {
		s.tracker.detach(entity)
	}
	return nil
}

// Exec executes a parameterized raw statement and returns the affected row
// count. It runs against the active transaction if one is set.
func (s *Session) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := s.IDB().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return rows, nil
}
