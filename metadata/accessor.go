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
)

// A key accessor maps an entity instance to its primary key value without
// reflection. Registration is optional; the resolver falls back to reflective
// reads over the Bun field metadata when no accessor is registered.
var (
	keyAccessorsMu sync.RWMutex
	keyAccessors   = map[reflect.Type]func(interface{}) interface{}{}
)

// RegisterKeyAccessor registers a key accessor for the entity type T. It is
// typically called once per entity type from an init function.
func RegisterKeyAccessor[T any](accessor func(*T) interface{}) {
	typ := reflect.TypeOf((*T)(nil)).Elem()

	keyAccessorsMu.Lock()
	defer keyAccessorsMu.Unlock()
	keyAccessors[typ] = func(entity interface{}) interface{} {
		if e, ok := entity.(*T); ok {
			return accessor(e)
		}
		if e, ok := entity.(T); ok {
			return accessor(&e)
		}
		return nil
	}
}

func lookupKeyAccessor(typ reflect.Type) (func(interface{}) interface{}, bool) {
	keyAccessorsMu.RLock()
	defer keyAccessorsMu.RUnlock()
	accessor, ok := keyAccessors[typ]
	return accessor, ok
}
