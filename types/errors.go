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

package types

import (
	"errors"
	"fmt"
)

// Error kinds raised by the data-access layer. All of them are raised at the
// point of detection, before any I/O is issued, and are matched with errors.Is.
var (
	// ErrInvalidArgument reports an absent required argument.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConfiguration reports an entity type that is not part of the model
	// or has no primary key declared.
	ErrConfiguration = errors.New("configuration error")

	// ErrTypeMismatch reports a key value that cannot be converted to the
	// declared primary key type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrState reports an entity without a valid identity for an update.
	ErrState = errors.New("invalid entity state")

	// ErrDuplicateKey reports a transaction name that is already registered.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound reports an unknown transaction name.
	ErrNotFound = errors.New("not found")
)

// InvalidArgumentf wraps ErrInvalidArgument with a formatted detail message.
func InvalidArgumentf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Configurationf wraps ErrConfiguration with a formatted detail message.
func Configurationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// TypeMismatchf wraps ErrTypeMismatch with a formatted detail message.
func TypeMismatchf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrTypeMismatch, fmt.Sprintf(format, args...))
}

// Statef wraps ErrState with a formatted detail message.
func Statef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrState, fmt.Sprintf(format, args...))
}

// DuplicateKeyf wraps ErrDuplicateKey with a formatted detail message.
func DuplicateKeyf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrDuplicateKey, fmt.Sprintf(format, args...))
}

// NotFoundf wraps ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
