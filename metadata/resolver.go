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

package metadata

import (
	"reflect"
	"sync"

	"github.com/quarry-db/quarry/types"

	"github.com/uptrace/bun"
)

// KeyProperty describes one primary key column of an entity type.
type KeyProperty struct {
	// GoName is the name of the struct field holding the key.
	GoName string
	// Column is the database column name declared for the key.
	Column string
	// Type is the declared Go type of the key field.
	Type reflect.Type

	index []int
}

// ModelFilter reports whether an entity type is part of the model. Types not
// accepted by the filter resolve with a configuration error.
type ModelFilter func(reflect.Type) bool

// Resolver looks up primary key metadata for entity types from the Bun model
// description. Results are memoized for the process lifetime; the model does
// not change at runtime.
type Resolver struct {
	db      *bun.DB
	inModel ModelFilter
	cache   sync.Map // reflect.Type -> []KeyProperty
}

// NewResolver creates a resolver over the given database's model tables.
// A nil filter accepts every struct type.
func NewResolver(db *bun.DB, inModel ModelFilter) *Resolver {
	return &Resolver{db: db, inModel: inModel}
}

// PrimaryKeys returns the ordered primary key properties declared for the
// entity type. It fails with types.ErrConfiguration if the type is not part
// of the model or declares no primary key.
func (r *Resolver) PrimaryKeys(entityType reflect.Type) ([]KeyProperty, error) {
	typ := indirectType(entityType)
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, types.Configurationf("type %v is not part of the model", entityType)
	}

	if cached, ok := r.cache.Load(typ); ok {
		return cached.([]KeyProperty), nil
	}

	if r.inModel != nil && !r.inModel(typ) {
		return nil, types.Configurationf("type %s is not part of the model", typ)
	}

	table := r.db.Table(typ)
	if len(table.PKs) == 0 {
		return nil, types.Configurationf("entity type %s has no primary key defined", typ)
	}

	keys := make([]KeyProperty, 0, len(table.PKs))
	for _, pk := range table.PKs {
		keys = append(keys, KeyProperty{
			GoName: pk.GoName,
			Column: pk.Name,
			Type:   pk.IndirectType,
			index:  pk.StructField.Index,
		})
	}

	r.cache.Store(typ, keys)
	return keys, nil
}

// KeyValues reads the current primary key values off the entity instance, in
// declared key order. Composite keys are returned in full here even though
// predicate building only uses the first key column.
func (r *Resolver) KeyValues(entity interface{}) ([]interface{}, error) {
	if entity == nil {
		return nil, types.InvalidArgumentf("entity is required")
	}
	keys, err := r.PrimaryKeys(reflect.TypeOf(entity))
	if err != nil {
		return nil, err
	}

	strct := reflect.Indirect(reflect.ValueOf(entity))
	values := make([]interface{}, 0, len(keys))
	for _, key := range keys {
		values = append(values, strct.FieldByIndex(key.index).Interface())
	}
	return values, nil
}

// FirstKeyValue reads the value of the first declared primary key property
// off the entity instance. A registered key accessor for the type takes
// precedence over reflection.
func (r *Resolver) FirstKeyValue(entity interface{}) (interface{}, error) {
	if entity == nil {
		return nil, types.InvalidArgumentf("entity is required")
	}
	typ := indirectType(reflect.TypeOf(entity))
	if accessor, ok := lookupKeyAccessor(typ); ok {
		return accessor(entity), nil
	}

	keys, err := r.PrimaryKeys(typ)
	if err != nil {
		return nil, err
	}
	strct := reflect.Indirect(reflect.ValueOf(entity))
	return strct.FieldByIndex(keys[0].index).Interface(), nil
}

// HasZeroKey reports whether the first primary key property of the entity
// still holds its type's zero value.
func (r *Resolver) HasZeroKey(entity interface{}) (bool, error) {
	value, err := r.FirstKeyValue(entity)
	if err != nil {
		return false, err
	}
	if value == nil {
		return true, nil
	}
	return reflect.ValueOf(value).IsZero(), nil
}

func indirectType(typ reflect.Type) reflect.Type {
	for typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return typ
}
