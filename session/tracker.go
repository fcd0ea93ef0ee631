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

// EntityState describes how a tracked entity relates to the store.
type EntityState int

const (
	// StateUnchanged marks an entity observed from the store with no staged
	// mutation.
	StateUnchanged EntityState = iota
	// StateAdded marks an entity staged for insertion.
	StateAdded
	// StateModified marks an entity staged for update.
	StateModified
	// StateDeleted marks an entity staged for removal.
	StateDeleted
)

func (s EntityState) String() string {
	switch s {
	case StateUnchanged:
		return "unchanged"
	case StateAdded:
		return "added"
	case StateModified:
		return "modified"
	case StateDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Entry is the session's record that an entity instance is under change
// observation. Identity is reference identity: a different in-memory instance
// representing the same row is a different entry.
type Entry struct {
	Entity interface{}
	State  EntityState
}

// tracker is the session's tracked-entity set. Entries keep their staging
// order so SaveChanges flushes mutations in program order. Not synchronized;
// the owning session is single-owner by contract.
type tracker struct {
	entries map[interface{}]*Entry
	order   []*Entry
}

func newTracker() *tracker {
	return &tracker{entries: make(map[interface{}]*Entry)}
}

// get looks up the entry for the exact entity instance.
func (t *tracker) get(entity interface{}) (*Entry, bool) {
	entry, ok := t.entries[entity]
	return entry, ok
}

// set tracks the entity under the given state, creating an entry at the end
// of the staging order when the instance is not yet tracked.
func (t *tracker) set(entity interface{}, state EntityState) *Entry {
	if entry, ok := t.entries[entity]; ok {
		entry.State = state
		return entry
	}
	entry := &Entry{Entity: entity, State: state}
	t.entries[entity] = entry
	t.order = append(t.order, entry)
	return entry
}

// detach removes the entry for the entity instance, if any.
func (t *tracker) detach(entity interface{}) {
	entry, ok := t.entries[entity]
	if !ok {
		return
	}
	delete(t.entries, entity)
	for i, e := range t.order {
		if e == entry {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// detachAll forces every tracked entity into a detached state.
func (t *tracker) detachAll() {
	t.entries = make(map[interface{}]*Entry)
	t.order = nil
}

func (t *tracker) len() int { return len(t.entries) }
