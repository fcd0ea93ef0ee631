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
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordStatus int

const (
	statusActive recordStatus = iota
	statusArchived
)

func (s recordStatus) IsValid() bool {
	return s == statusActive || s == statusArchived
}

func (s recordStatus) Number() int {
	if !s.IsValid() {
		return IllegalValue
	}
	return int(s)
}

func (s recordStatus) Name() string {
	switch s {
	case statusActive:
		return "active"
	case statusArchived:
		return "archived"
	default:
		return IllegalName
	}
}

func (s recordStatus) Desc() string {
	switch s {
	case statusActive:
		return "record is live"
	case statusArchived:
		return "record is retained read-only"
	default:
		return IllegalDesc
	}
}

func (s recordStatus) String() string { return s.Name() }

func TestBaseEnumMembers(t *testing.T) {
	var _ BaseEnum = statusActive

	assert.True(t, statusActive.IsValid())
	assert.Equal(t, 1, statusArchived.Number())
	assert.Equal(t, "active", statusActive.Name())
	assert.Equal(t, "record is live", statusActive.Desc())
}

func TestBaseEnumIllegalMember(t *testing.T) {
	bad := recordStatus(99)
	assert.False(t, bad.IsValid())
	assert.Equal(t, IllegalValue, bad.Number())
	assert.Equal(t, IllegalName, bad.Name())
	assert.Equal(t, IllegalDesc, bad.Desc())
}

func TestEnumName(t *testing.T) {
	assert.Equal(t, "archived", EnumName(statusArchived))
	assert.Equal(t, IllegalName, EnumName(recordStatus(99)))
	assert.Equal(t, IllegalName, EnumName(nil))
}
