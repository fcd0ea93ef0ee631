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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorHelpersWrapSentinels(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
	}{
		{InvalidArgumentf("id %d", 1), ErrInvalidArgument},
		{Configurationf("no key on %s", "thing"), ErrConfiguration},
		{TypeMismatchf("bad cast"), ErrTypeMismatch},
		{Statef("no identity"), ErrState},
		{DuplicateKeyf("name taken"), ErrDuplicateKey},
		{NotFoundf("missing"), ErrNotFound},
	}
	for _, c := range cases {
		assert.ErrorIs(t, c.err, c.sentinel, c.err.Error())
	}
}

func TestErrorHelpersSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("outer context: %w", Statef("entity has no valid identity"))
	assert.True(t, errors.Is(err, ErrState))
	assert.False(t, errors.Is(err, ErrInvalidArgument))
}
