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

package tests

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/quarry-db/quarry"
	"github.com/quarry-db/quarry/database"
	"github.com/quarry-db/quarry/repository"
	"github.com/quarry-db/quarry/types"

	"github.com/uptrace/bun"
)

type SystemConfig struct {
	bun.BaseModel `bun:"table:system_config,alias:sc"`

	ID          int64            `bun:"id,type:bigint,pk,autoincrement" json:"id"`
	ConfigKey   string           `bun:"config_key,notnull,unique" json:"config_key"`
	ConfigValue string           `bun:"config_value" json:"config_value"`
	Attributes  types.JsonObject `bun:"attributes" json:"attributes"`
	CreatedAt   time.Time        `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

func init() {
	database.RegisteredModel(database.NewModelAdapter(&SystemConfig{}, 1))
}

func initTestDB(t *testing.T) {
	t.Helper()
	cfg := &database.Config{
		ConnectionConfig: database.ConnectionConfig{
			Type:   "sqlite",
			DBName: filepath.Join(t.TempDir(), "quarry_test"),
		},
		DataInitConfig: database.DataInitConfig{
			InitTablesOnStartup: true,
		},
	}
	if _, err := database.InitDB(cfg); err != nil {
		t.Fatalf("init database error: %v", err)
	}
	t.Cleanup(func() { _ = database.CloseDB() })
}

func TestServiceRoundTrip(t *testing.T) {
	initTestDB(t)
	ctx := context.Background()

	svc := quarry.NewDefaultService[SystemConfig]()

	entry := &SystemConfig{
		ConfigKey:   "site.title",
		ConfigValue: "quarry",
		Attributes:  types.JsonObject{"locale": "en", "editable": true},
	}
	keys, err := svc.Insert(entry)
	if err != nil {
		t.Fatalf("insert error: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected one key value, got %d", len(keys))
	}
	if err := svc.SaveChanges(ctx); err != nil {
		t.Fatalf("save changes error: %v", err)
	}
	if entry.ID == 0 {
		t.Fatal("expected store-generated key after save")
	}

	got, err := svc.Get(ctx, entry.ID)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if got.ConfigValue != "quarry" {
		t.Fatalf("unexpected value: %q", got.ConfigValue)
	}
	if got.Attributes["locale"] != "en" || got.Attributes["editable"] != true {
		t.Fatalf("JSON attributes did not round-trip: %v", got.Attributes)
	}

	got.ConfigValue = "quarry-db"
	if err := svc.Update(got); err != nil {
		t.Fatalf("update error: %v", err)
	}
	if err := svc.SaveChanges(ctx); err != nil {
		t.Fatalf("save changes error: %v", err)
	}

	spec := repository.NewSpec[SystemConfig]().
		Where("config_key = ?", "site.title").
		NoTracking().
		Build()
	fresh, err := svc.GetBySpec(ctx, spec)
	if err != nil {
		t.Fatalf("get by spec error: %v", err)
	}
	if fresh.ConfigValue != "quarry-db" {
		t.Fatalf("update not persisted, value: %q", fresh.ConfigValue)
	}

	if err := svc.Delete(got); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	if err := svc.SaveChanges(ctx); err != nil {
		t.Fatalf("save changes error: %v", err)
	}
	count, err := svc.Count(ctx)
	if err != nil {
		t.Fatalf("count error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty table, got %d rows", count)
	}
}

func TestServiceNamedTransactions(t *testing.T) {
	initTestDB(t)
	ctx := context.Background()

	svc := quarry.NewDefaultService[SystemConfig]()

	if err := svc.OpenTransaction(ctx, "seed", sql.LevelDefault); err != nil {
		t.Fatalf("open transaction error: %v", err)
	}
	if err := svc.Save(&SystemConfig{ConfigKey: "a", ConfigValue: "1"}); err != nil {
		t.Fatalf("save error: %v", err)
	}
	if err := svc.SaveChanges(ctx); err != nil {
		t.Fatalf("save changes error: %v", err)
	}
	if err := svc.CloseTransaction("seed", false); err != nil {
		t.Fatalf("close transaction error: %v", err)
	}

	// rolled back, nothing visible
	count, err := svc.Count(ctx)
	if err != nil {
		t.Fatalf("count error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback to discard the row, got %d rows", count)
	}
}
