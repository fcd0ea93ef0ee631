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
	"strconv"

	"github.com/quarry-db/quarry/types"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// KeyPredicate is a single-use equality predicate over an entity's first
// primary key column, built from a loosely typed caller-supplied key value.
// It composes onto a Bun select query and can also be evaluated in memory
// against entity instances.
type KeyPredicate struct {
	// Column is the database column name of the key.
	Column string
	// GoName is the struct field name of the key.
	GoName string
	// Value is the key value coerced to the declared key type.
	Value interface{}

	resolver   *Resolver
	entityType reflect.Type
}

// EqualsPrimaryKey builds an equality predicate over the first declared
// primary key of the entity type. Composite keys are not supported here; only
// the first key column participates. The supplied value is coerced to the
// declared key type, failing with types.ErrTypeMismatch when the conversion
// is impossible. A nil value fails with types.ErrInvalidArgument before any
// metadata resolution occurs.
func (r *Resolver) EqualsPrimaryKey(entityType reflect.Type, value interface{}) (*KeyPredicate, error) {
	if value == nil {
		return nil, types.InvalidArgumentf("primary key value is required")
	}

	keys, err := r.PrimaryKeys(entityType)
	if err != nil {
		return nil, err
	}

	first := keys[0]
	coerced, err := coerceKey(value, first.Type)
	if err != nil {
		return nil, err
	}

	return &KeyPredicate{
		Column:     first.Column,
		GoName:     first.GoName,
		Value:      coerced,
		resolver:   r,
		entityType: indirectType(entityType),
	}, nil
}

// Apply composes the predicate onto a select query without executing it.
func (p *KeyPredicate) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Where("? = ?", bun.Ident(p.Column), p.Value)
}

// Match evaluates the predicate in memory against an entity instance.
func (p *KeyPredicate) Match(entity interface{}) bool {
	if entity == nil {
		return false
	}
	if indirectType(reflect.TypeOf(entity)) != p.entityType {
		return false
	}
	value, err := p.resolver.FirstKeyValue(entity)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(p.Value, value)
}

var uuidType = reflect.TypeOf(uuid.UUID{})

// coerceKey converts a caller-supplied key value to the declared key type
// using locale-invariant conversions only.
func coerceKey(value interface{}, target reflect.Type) (interface{}, error) {
	rv := reflect.ValueOf(value)
	if rv.Type() == target {
		return value, nil
	}

	if target == uuidType {
		switch v := value.(type) {
		case string:
			id, err := uuid.Parse(v)
			if err != nil {
				return nil, types.TypeMismatchf("cannot convert %T %q to %s: %v", value, v, target, err)
			}
			return id, nil
		case []byte:
			id, err := uuid.FromBytes(v)
			if err != nil {
				return nil, types.TypeMismatchf("cannot convert %T to %s: %v", value, target, err)
			}
			return id, nil
		}
		return nil, types.TypeMismatchf("cannot convert %T to %s", value, target)
	}

	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if isNumeric(rv.Kind()) {
			return rv.Convert(target).Interface(), nil
		}
		if s, ok := value.(string); ok {
			n, err := strconv.ParseInt(s, 10, target.Bits())
			if err != nil {
				return nil, types.TypeMismatchf("cannot convert %T %q to %s: %v", value, s, target, err)
			}
			return reflect.ValueOf(n).Convert(target).Interface(), nil
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if isNumeric(rv.Kind()) {
			return rv.Convert(target).Interface(), nil
		}
		if s, ok := value.(string); ok {
			n, err := strconv.ParseUint(s, 10, target.Bits())
			if err != nil {
				return nil, types.TypeMismatchf("cannot convert %T %q to %s: %v", value, s, target, err)
			}
			return reflect.ValueOf(n).Convert(target).Interface(), nil
		}

	case reflect.Float32, reflect.Float64:
		if isNumeric(rv.Kind()) {
			return rv.Convert(target).Interface(), nil
		}
		if s, ok := value.(string); ok {
			f, err := strconv.ParseFloat(s, target.Bits())
			if err != nil {
				return nil, types.TypeMismatchf("cannot convert %T %q to %s: %v", value, s, target, err)
			}
			return reflect.ValueOf(f).Convert(target).Interface(), nil
		}

	case reflect.Bool:
		if s, ok := value.(string); ok {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return nil, types.TypeMismatchf("cannot convert %T %q to %s: %v", value, s, target, err)
			}
			return b, nil
		}

	case reflect.String:
		switch rv.Kind() {
		case reflect.String:
			return rv.Convert(target).Interface(), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return reflect.ValueOf(strconv.FormatInt(rv.Int(), 10)).Convert(target).Interface(), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return reflect.ValueOf(strconv.FormatUint(rv.Uint(), 10)).Convert(target).Interface(), nil
		case reflect.Float32, reflect.Float64:
			return reflect.ValueOf(strconv.FormatFloat(rv.Float(), 'f', -1, 64)).Convert(target).Interface(), nil
		}
		if id, ok := value.(uuid.UUID); ok {
			return reflect.ValueOf(id.String()).Convert(target).Interface(), nil
		}

	default:
		if rv.Type().AssignableTo(target) {
			return value, nil
		}
	}

	return nil, types.TypeMismatchf("cannot convert value of type %T to %s", value, target)
}

func isNumeric(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
