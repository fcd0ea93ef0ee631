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
	"context"
	"database/sql"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/uptrace/bun"
)

// MigrationManager initializes tables for registered models and executes
// registered migration items in version order.
type MigrationManager struct {
	db          *bun.DB
	logger      Logger
	environment string
}

// Migration represents an applied migration record stored in the database.
type Migration struct {
	bun.BaseModel `bun:"table:schema_migrations,alias:sm"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name"`
	AppliedAt   time.Time `bun:"applied_at"`
	Description string    `bun:"description"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes a single migration version with up/down functions.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
	Down        MigrationFunc
}

var (
	migrationsMu       sync.Mutex
	registeredUpgrades []MigrationItem
)

// RegisterMigration adds a migration item to the global set executed by
// RunMigrations.
func RegisterMigration(item MigrationItem) {
	migrationsMu.Lock()
	defer migrationsMu.Unlock()
	registeredUpgrades = append(registeredUpgrades, item)
}

// NewMigrationManager constructs a MigrationManager using the provided Bun
// database and logger. The default environment is "development".
func NewMigrationManager(db *bun.DB, logger Logger) *MigrationManager {
	return &MigrationManager{
		db:          db,
		logger:      logger,
		environment: "development",
	}
}

// SetEnvironment sets the environment used when initializing data from SQL.
func (mm *MigrationManager) SetEnvironment(env string) {
	mm.environment = env
}

// RunMigrations creates tables for all registered models, then executes
// pending registered migrations in ascending version order.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	// silent startup statements
	if _, ok := os.LookupEnv("SQL_LOG_MIGRATION"); !ok {
		EnableSqlLogSilent(true)
		defer EnableSqlLogSilent(false)
	}

	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := mm.initModelTables(ctx); err != nil {
		return fmt.Errorf("failed to initialize model tables: %w", err)
	}

	if err := mm.createMigrationTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrationsMu.Lock()
	migrations := make([]MigrationItem, len(registeredUpgrades))
	copy(migrations, registeredUpgrades)
	migrationsMu.Unlock()

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	for _, migration := range migrations {
		if err := mm.runMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
	}

	if mm.logger != nil {
		mm.logger.Info("Database migrations completed!")
	}
	return nil
}

func (mm *MigrationManager) initModelTables(ctx context.Context) error {
	for _, model := range GetRegisteredModels() {
		_, err := mm.db.NewCreateTable().
			Model(model.Instance()).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("create table for %T: %w", model.Instance(), err)
		}
	}
	return nil
}

func (mm *MigrationManager) createMigrationTable(ctx context.Context) error {
	_, err := mm.db.NewCreateTable().
		Model((*Migration)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func (mm *MigrationManager) runMigration(ctx context.Context, migration MigrationItem) error {
	applied, err := mm.isApplied(ctx, migration.Version)
	if err != nil {
		return err
	}
	if applied {
		return nil
	}

	return mm.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if migration.Up != nil {
			if err := migration.Up(ctx, tx); err != nil {
				return err
			}
		}
		record := &Migration{
			Version:     migration.Version,
			Name:        migration.Name,
			AppliedAt:   time.Now(),
			Description: migration.Description,
		}
		_, err := tx.NewInsert().Model(record).Exec(ctx)
		return err
	})
}

func (mm *MigrationManager) isApplied(ctx context.Context, version string) (bool, error) {
	return mm.db.NewSelect().
		Model((*Migration)(nil)).
		Where("version = ?", version).
		Exists(ctx)
}

// InitData seeds initial data by executing SQL files for the configured
// environment.
func (mm *MigrationManager) InitData(ctx context.Context) error {
	sqlManager := NewSQLInitManager(mm.db, mm.environment)
	if globalConfig != nil && globalConfig.DataInitConfig.Filepath != "" {
		sqlManager.SetSQLRootPath(globalConfig.DataInitConfig.Filepath)
	}
	return sqlManager.ExecuteInitialization(ctx)
}
