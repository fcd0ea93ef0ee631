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

package session

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/quarry-db/quarry/types"
)

// The session may hold many registered transactions but only one active one
// at a time. Switching repoints the active handle; it is not a state
// transition of the transactions themselves.

// OpenTransaction begins a new transaction on the session's database with the
// given isolation level, registers it under name, and makes it the active
// transaction. Names are unique within the session; reusing a registered name
// fails with types.ErrDuplicateKey.
func (s *Session) OpenTransaction(ctx context.Context, name string, isolation sql.IsolationLevel) error {
	if name == "" {
		return types.InvalidArgumentf("transaction name is required")
	}
	if _, ok := s.txs[name]; ok {
		return types.DuplicateKeyf("transaction %q already registered", name)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: isolation})
	if err != nil {
		return fmt.Errorf("begin transaction %q: %w", name, err)
	}

	s.txs[name] = &tx
	s.active = &tx
	if s.logger != nil {
		s.logger.Debug("transaction opened", "name", name, "isolation", isolation)
	}
	return nil
}

// SwitchTransaction makes the transaction registered under name the active
// one without closing any other. An unregistered name fails with
// types.ErrNotFound.
func (s *Session) SwitchTransaction(name string) error {
	tx, ok := s.txs[name]
	if !ok {
		return types.NotFoundf("transaction %q is not registered", name)
	}
	s.active = tx
	return nil
}

// CloseTransaction commits or rolls back the transaction registered under
// name, releases it, and removes it from the registry. An unregistered name
// fails with types.ErrNotFound.
func (s *Session) CloseTransaction(name string, commit bool) error {
	tx, ok := s.txs[name]
	if !ok {
		return types.NotFoundf("transaction %q is not registered", name)
	}

	delete(s.txs, name)
	if s.active == tx {
		s.active = nil
	}

	var err error
	if commit {
		err = tx.Commit()
	} else {
		err = tx.Rollback()
	}
	if err != nil {
		return fmt.Errorf("close transaction %q: %w", name, err)
	}
	if s.logger != nil {
		s.logger.Debug("transaction closed", "name", name, "committed", commit)
	}
	return nil
}

// ActiveTransaction reports whether an active transaction is set.
func (s *Session) ActiveTransaction() bool { return s.active != nil }

// TransactionNames returns the names of all registered transactions.
func (s *Session) TransactionNames() []string {
	names := make([]string, 0, len(s.txs))
	for name := range s.txs {
		names = append(names, name)
	}
	return names
}
