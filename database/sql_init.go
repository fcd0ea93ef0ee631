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
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SQLInitManager discovers and executes SQL files to seed data. Files under
// <root>/common run first, then <root>/environments/<env>, each set ordered
// by a numeric filename prefix ("010_users.sql").
type SQLInitManager struct {
	db          *bun.DB
	environment string
	sqlRootPath string
	logger      Logger
}

// SQLFileInfo describes a SQL file to be executed during initialization.
type SQLFileInfo struct {
	Path        string
	Name        string
	Order       int
	Environment string
}

// NewSQLInitManager creates a SQL initializer for the given environment.
func NewSQLInitManager(db *bun.DB, environment string) *SQLInitManager {
	return &SQLInitManager{
		db:          db,
		environment: environment,
		sqlRootPath: "configs/sql",
		logger:      GetLogger(),
	}
}

// SetSQLRootPath sets the root directory from which SQL files are loaded.
func (s *SQLInitManager) SetSQLRootPath(path string) {
	s.sqlRootPath = path
}

// ExecuteInitialization runs all discovered SQL files in order. Each file
// runs in its own transaction; the first failure aborts initialization.
func (s *SQLInitManager) ExecuteInitialization(ctx context.Context) error {
	files, err := s.GetSQLFiles()
	if err != nil {
		return fmt.Errorf("failed to get SQL files: %w", err)
	}
	if len(files) == 0 {
		s.logger.Info("No SQL files found to execute", "sql_path", s.sqlRootPath)
		return nil
	}

	start := time.Now()
	for _, file := range files {
		rows, err := s.executeFile(ctx, file)
		if err != nil {
			s.logger.Error("SQL file execution failed", "file", file.Path, "error", err.Error())
			return fmt.Errorf("SQL file execution failed %s: %w", file.Path, err)
		}
		s.logger.Debug("SQL file executed", "file", file.Name, "rows_affected", rows)
	}

	s.logger.Info("SQL initialization completed",
		"total_files", len(files),
		"environment", s.environment,
		"duration", time.Since(start).String(),
	)
	return nil
}

// GetSQLFiles returns the list of SQL files from common and environment dirs.
func (s *SQLInitManager) GetSQLFiles() ([]SQLFileInfo, error) {
	var files []SQLFileInfo

	commonPath := filepath.Join(s.sqlRootPath, "common")
	if _, err := os.Stat(commonPath); err == nil {
		commonFiles, err := s.getFilesFromDir(commonPath, "common")
		if err != nil {
			return nil, fmt.Errorf("failed to get common SQL files: %w", err)
		}
		files = append(files, commonFiles...)
	}

	envPath := filepath.Join(s.sqlRootPath, "environments", s.environment)
	if _, err := os.Stat(envPath); err == nil {
		envFiles, err := s.getFilesFromDir(envPath, s.environment)
		if err != nil {
			return nil, fmt.Errorf("failed to get environment SQL files: %w", err)
		}
		files = append(files, envFiles...)
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Environment != files[j].Environment {
			return files[i].Environment == "common"
		}
		return files[i].Order < files[j].Order
	})

	return files, nil
}

func (s *SQLInitManager) getFilesFromDir(dir, environment string) ([]SQLFileInfo, error) {
	var files []SQLFileInfo

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".sql") {
			return nil
		}
		files = append(files, SQLFileInfo{
			Path:        path,
			Name:        d.Name(),
			Order:       parseFileOrder(d.Name()),
			Environment: environment,
		})
		return nil
	})

	return files, err
}

var fileOrderPattern = regexp.MustCompile(`^(\d+)_`)

func parseFileOrder(filename string) int {
	matches := fileOrderPattern.FindStringSubmatch(filename)
	if len(matches) > 1 {
		var order int
		_, _ = fmt.Sscanf(matches[1], "%d", &order)
		return order
	}
	return 999
}

func (s *SQLInitManager) executeFile(ctx context.Context, file SQLFileInfo) (int64, error) {
	content, err := os.ReadFile(file.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}

	processed, err := s.renderTemplate(string(content))
	if err != nil {
		return 0, err
	}

	statements := splitSQLStatements(processed)
	if len(statements) == 0 {
		return 0, nil
	}

	var totalRows int64
	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, stmt := range statements {
			res, execErr := tx.ExecContext(ctx, stmt)
			if execErr != nil {
				return fmt.Errorf("failed to execute SQL statement: %s, error: %w", stmt, execErr)
			}
			rows, _ := res.RowsAffected()
			totalRows += rows
		}
		return nil
	})
	return totalRows, err
}

// renderTemplate substitutes environment variables and helper values into the
// SQL text. Values are referenced as {{.NAME}}; {{uuid}} yields a fresh
// identifier per call.
func (s *SQLInitManager) renderTemplate(content string) (string, error) {
	tmpl, err := template.New("sql").
		Funcs(template.FuncMap{"uuid": func() string { return uuid.NewString() }}).
		Parse(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	vars := make(map[string]string)
	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) == 2 {
			vars[parts[0]] = parts[1]
		}
	}
	vars["ENVIRONMENT"] = s.environment
	vars["TIMESTAMP"] = time.Now().UTC().Format("2006-01-02 15:04:05")

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

func splitSQLStatements(content string) []string {
	var statements []string
	var current strings.Builder

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}

		current.WriteString(line)
		current.WriteString(" ")

		if strings.HasSuffix(line, ";") {
			stmt := strings.TrimSpace(current.String())
			if stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}
