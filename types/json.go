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
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JsonObject maps a JSON document column to a generic object. It satisfies
// driver.Valuer and sql.Scanner, so entity fields of this type round-trip
// through the engine without per-entity marshalling code.
type JsonObject map[string]interface{}

// JsonArray maps a JSON document column to a sequence of objects.
type JsonArray []JsonObject

func (j JsonObject) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JsonObject) Scan(value interface{}) error {
	if value == nil {
		*j = JsonObject{}
		return nil
	}
	raw, err := jsonColumnBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, j)
}

func (j JsonArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JsonArray) Scan(value interface{}) error {
	if value == nil {
		*j = JsonArray{}
		return nil
	}
	raw, err := jsonColumnBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, j)
}

// jsonColumnBytes normalizes the driver representation of a JSON column.
// MySQL and Postgres hand JSON back as []byte; SQLite stores it as text.
func jsonColumnBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported JSON column value of type %T", value)
	}
}
