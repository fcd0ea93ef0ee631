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

package database

import (
	"reflect"
	"sort"
	"sync"
)

var defaultRegistry = newModelRegistry()

// SQLModel represents an entity model registered with the layer. Instance
// must return a struct pointer compatible with Bun; Priority controls table
// initialization order (lower values first).
type SQLModel interface {
	Instance() interface{}
	Priority() int
}

// ModelRegistry stores registered models, exposes them in a deterministic
// order, and answers whether a type is part of the model. The metadata
// resolver treats membership here as the authority for "part of the model".
type ModelRegistry interface {
	Register(model SQLModel)
	Models() []SQLModel
	Contains(typ reflect.Type) bool
}

type modelRegistry struct {
	models []SQLModel
	byType map[reflect.Type]struct{}
	mutex  sync.RWMutex
}

func newModelRegistry() ModelRegistry {
	return &modelRegistry{
		models: make([]SQLModel, 0),
		byType: make(map[reflect.Type]struct{}),
	}
}

func (r *modelRegistry) Register(model SQLModel) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.models = append(r.models, model)
	if typ := instanceType(model.Instance()); typ != nil {
		r.byType[typ] = struct{}{}
	}
}

func (r *modelRegistry) Models() []SQLModel {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]SQLModel, len(r.models))
	copy(result, r.models)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority() < result[j].Priority()
	})
	return result
}

func (r *modelRegistry) Contains(typ reflect.Type) bool {
	for typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	_, ok := r.byType[typ]
	return ok
}

func instanceType(instance interface{}) reflect.Type {
	typ := reflect.TypeOf(instance)
	for typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return typ
}

// ModelAdapter wraps a struct instance and priority into an SQLModel.
type ModelAdapter struct {
	instance interface{}
	priority int
}

// NewModelAdapter wraps a struct instance and priority into an SQLModel.
func NewModelAdapter(instance interface{}, priority int) SQLModel {
	return &ModelAdapter{
		instance: instance,
		priority: priority,
	}
}

// Instance returns the underlying struct used for table initialization.
func (a *ModelAdapter) Instance() interface{} {
	return a.instance
}

// Priority returns the model's ordering value; lower values run earlier.
func (a *ModelAdapter) Priority() int {
	return a.priority
}

// GetRegisteredModels returns all models registered in the default registry
// sorted by ascending priority.
func GetRegisteredModels() []SQLModel {
	return defaultRegistry.Models()
}

// RegisteredModel adds a model to the default registry.
func RegisteredModel(model SQLModel) {
	defaultRegistry.Register(model)
}

// RegisteredContains reports whether the entity type has been registered in
// the default registry.
func RegisteredContains(typ reflect.Type) bool {
	return defaultRegistry.Contains(typ)
}

// RegisteredModelInstances returns the instances of all registered models in
// priority order.
func RegisteredModelInstances() []interface{} {
	models := GetRegisteredModels()
	modelInstances := make([]interface{}, len(models))
	for i, model := range models {
		modelInstances[i] = model.Instance()
	}
	return modelInstances
}
