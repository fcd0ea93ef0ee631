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
	"strings"

	"github.com/go-sql-driver/mysql"
)

// SQLError is a portable classification of engine-level errors. The layer
// itself performs no retries; classification exists for callers deciding how
// to react to a failed save or raw statement.
type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoColumnErr
	NoTableErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
)

var mysqlErrNumbers = map[uint16]SQLError{
	1054: NoColumnErr,
	1060: UnknownErr,
	1062: DuplicateKeyErr,
	1048: NotNullViolationErr,
	1216: ForeignKeyViolationErr,
	1217: ForeignKeyViolationErr,
	3819: CheckConstraintViolationErr,
	1265: DataTruncatedErr,
	1146: NoTableErr,
	1050: ExistTableErr,
}

// textPatterns maps lowercase substrings of driver error text to SQLError
// kinds. Postgres errors carry SQLSTATE codes in their text; SQLite uses
// plain phrasing.
var textPatterns = []struct {
	all  []string
	kind SQLError
}{
	{[]string{"sqlstate 42703"}, NoColumnErr},
	{[]string{"undefined column"}, NoColumnErr},
	{[]string{"no such column"}, NoColumnErr},
	{[]string{"sqlstate 42p01"}, NoTableErr},
	{[]string{"undefined table"}, NoTableErr},
	{[]string{"no such table"}, NoTableErr},
	{[]string{"already exists", "table"}, ExistTableErr},
	{[]string{"relation", "already exists"}, ExistTableErr},
	{[]string{"duplicate key value"}, DuplicateKeyErr},
	{[]string{"unique constraint failed"}, DuplicateKeyErr},
	{[]string{"sqlstate 23505"}, DuplicateKeyErr},
	{[]string{"not-null constraint"}, NotNullViolationErr},
	{[]string{"not null constraint failed"}, NotNullViolationErr},
	{[]string{"sqlstate 23502"}, NotNullViolationErr},
	{[]string{"foreign key violation"}, ForeignKeyViolationErr},
	{[]string{"foreign key constraint failed"}, ForeignKeyViolationErr},
	{[]string{"sqlstate 23503"}, ForeignKeyViolationErr},
	{[]string{"check constraint"}, CheckConstraintViolationErr},
	{[]string{"sqlstate 23514"}, CheckConstraintViolationErr},
	{[]string{"string data right truncation"}, DataTruncatedErr},
	{[]string{"data truncated"}, DataTruncatedErr},
	{[]string{"sqlstate 22001"}, DataTruncatedErr},
	{[]string{"datatype mismatch"}, InvalidTypeCastErr},
	{[]string{"sqlstate 42804"}, InvalidTypeCastErr},
}

// IsSqlError reports whether err is a recognizable engine error and, if so,
// its classification.
func IsSqlError(err error) (is bool, sqlErr SQLError) {
	if err == nil {
		return false, UnknownErr
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if kind, ok := mysqlErrNumbers[mysqlErr.Number]; ok {
			return true, kind
		}
		return true, UnknownErr
	}

	s := strings.ToLower(err.Error())
	for _, pattern := range textPatterns {
		matched := true
		for _, sub := range pattern.all {
			if !strings.Contains(s, sub) {
				matched = false
				break
			}
		}
		if matched {
			return true, pattern.kind
		}
	}
	return false, UnknownErr
}

// IsDuplicateKey reports whether err is an engine-level unique or primary key
// violation.
func IsDuplicateKey(err error) bool {
	is, kind := IsSqlError(err)
	return is && kind == DuplicateKeyErr
}
