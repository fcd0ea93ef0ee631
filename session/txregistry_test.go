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
	"testing"

	"github.com/quarry-db/quarry/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenTransactionEmptyName(t *testing.T) {
	sess := newTestSession(t)

	err := sess.OpenTransaction(context.Background(), "", sql.LevelDefault)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestOpenTransactionDuplicateName(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, sess.OpenTransaction(ctx, "batch", sql.LevelDefault))
	defer func() { _ = sess.CloseTransaction("batch", false) }()

	err := sess.OpenTransaction(ctx, "batch", sql.LevelDefault)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrDuplicateKey)
}

func TestSwitchTransactionUnknown(t *testing.T) {
	sess := newTestSession(t)

	err := sess.SwitchTransaction("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCloseTransactionUnknown(t *testing.T) {
	sess := newTestSession(t)

	err := sess.CloseTransaction("missing", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestTransactionCommit(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, sess.OpenTransaction(ctx, "batch", sql.LevelDefault))
	assert.True(t, sess.ActiveTransaction())

	_, err := sess.Insert(&account{Name: "alice"})
	require.NoError(t, err)
	require.NoError(t, sess.SaveChanges(ctx))

	require.NoError(t, sess.CloseTransaction("batch", true))
	assert.False(t, sess.ActiveTransaction())

	count, err := sess.DB().NewSelect().Model((*account)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTransactionRollback(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, sess.OpenTransaction(ctx, "batch", sql.LevelDefault))
	_, err := sess.Exec(ctx, "INSERT INTO accounts (name, balance) VALUES (?, ?)", "alice", 1)
	require.NoError(t, err)

	require.NoError(t, sess.CloseTransaction("batch", false))

	count, err := sess.DB().NewSelect().Model((*account)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestTransactionNameReusableAfterClose(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, sess.OpenTransaction(ctx, "batch", sql.LevelDefault))
	require.NoError(t, sess.CloseTransaction("batch", false))

	// closing removed the registration, so the name is free again
	require.NoError(t, sess.OpenTransaction(ctx, "batch", sql.LevelDefault))
	require.NoError(t, sess.CloseTransaction("batch", false))
}

func TestSwitchTransaction(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, sess.OpenTransaction(ctx, "first", sql.LevelDefault))
	require.NoError(t, sess.OpenTransaction(ctx, "second", sql.LevelDefault))
	assert.ElementsMatch(t, []string{"first", "second"}, sess.TransactionNames())

	// repoint the active handle without closing anything
	require.NoError(t, sess.SwitchTransaction("first"))

	_, err := sess.Exec(ctx, "INSERT INTO accounts (name, balance) VALUES (?, ?)", "alice", 1)
	require.NoError(t, err)

	require.NoError(t, sess.CloseTransaction("second", false))
	assert.True(t, sess.ActiveTransaction())

	require.NoError(t, sess.CloseTransaction("first", true))
	assert.False(t, sess.ActiveTransaction())

	count, err := sess.DB().NewSelect().Model((*account)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
