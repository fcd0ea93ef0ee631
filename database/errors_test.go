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
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestIsSqlErrorMySQLNumbers(t *testing.T) {
	is, kind := IsSqlError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	assert.True(t, is)
	assert.Equal(t, DuplicateKeyErr, kind)

	is, kind = IsSqlError(&mysql.MySQLError{Number: 1146, Message: "Table doesn't exist"})
	assert.True(t, is)
	assert.Equal(t, NoTableErr, kind)
}

func TestIsSqlErrorTextPatterns(t *testing.T) {
	is, kind := IsSqlError(errors.New("SQLite error: UNIQUE constraint failed: users.name"))
	assert.True(t, is)
	assert.Equal(t, DuplicateKeyErr, kind)

	is, kind = IsSqlError(errors.New(`ERROR: duplicate key value violates unique constraint "users_pkey" (SQLSTATE 23505)`))
	assert.True(t, is)
	assert.Equal(t, DuplicateKeyErr, kind)

	is, kind = IsSqlError(errors.New("no such table: users"))
	assert.True(t, is)
	assert.Equal(t, NoTableErr, kind)
}

func TestIsSqlErrorUnknown(t *testing.T) {
	is, _ := IsSqlError(errors.New("connection refused"))
	assert.False(t, is)

	is, _ = IsSqlError(nil)
	assert.False(t, is)
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, IsDuplicateKey(&mysql.MySQLError{Number: 1062}))
	assert.False(t, IsDuplicateKey(errors.New("no such table: users")))
	assert.False(t, IsDuplicateKey(nil))
}
