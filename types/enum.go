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

// Sentinel values an enum reports when a stored number or name does not map
// to any declared member.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
	IllegalDesc  = "unknown"
)

// BaseEnum is the contract domain enum types implement so callers can treat
// stored integer columns uniformly: a numeric wire value, a stable name, and
// a human-readable description.
type BaseEnum interface {
	// IsValid reports whether the value maps to a declared member.
	IsValid() bool
	// Number returns the numeric wire value, or IllegalValue.
	Number() int
	// Name returns the stable member name, or IllegalName.
	Name() string
	// Desc returns the human-readable description, or IllegalDesc.
	Desc() string
	String() string
}

// EnumName returns the enum's name, or IllegalName for invalid members. It
// lets callers render possibly-invalid stored values without branching.
func EnumName(e BaseEnum) string {
	if e == nil || !e.IsValid() {
		return IllegalName
	}
	return e.Name()
}
