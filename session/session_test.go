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
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/quarry-db/quarry/metadata"
	"github.com/quarry-db/quarry/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type account struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID      int64  `bun:"id,pk,autoincrement"`
	Name    string `bun:"name"`
	Balance int64  `bun:"balance"`
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.NewCreateTable().Model((*account)(nil)).IfNotExists().Exec(context.Background())
	require.NoError(t, err)

	return New(db, metadata.NewResolver(db, nil))
}

func TestInsertAndSaveChanges(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	acct := &account{Name: "alice", Balance: 100}
	keys, err := sess.Insert(acct)
	require.NoError(t, err)
	// staged, not yet persisted; the key is still the zero value
	require.Len(t, keys, 1)
	assert.Equal(t, int64(0), keys[0])

	state, tracked := sess.Entry(acct)
	require.True(t, tracked)
	assert.Equal(t, StateAdded, state)

	require.NoError(t, sess.SaveChanges(ctx))
	assert.NotZero(t, acct.ID)

	state, tracked = sess.Entry(acct)
	require.True(t, tracked)
	assert.Equal(t, StateUnchanged, state)

	count, err := sess.DB().NewSelect().Model((*account)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInsertNil(t *testing.T) {
	sess := newTestSession(t)

	_, err := sess.Insert(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestUpdateUntrackedZeroKey(t *testing.T) {
	sess := newTestSession(t)

	err := sess.Update(&account{Name: "ghost"})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrState)
}

func TestUpdateUntrackedWithKey(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	acct := &account{Name: "alice", Balance: 100}
	_, err := sess.Insert(acct)
	require.NoError(t, err)
	require.NoError(t, sess.SaveChanges(ctx))
	sess.DetachAll()

	// a fresh instance carrying the persisted key is accepted as-is
	detached := &account{ID: acct.ID, Name: "alice", Balance: 250}
	require.NoError(t, sess.Update(detached))

	state, tracked := sess.Entry(detached)
	require.True(t, tracked)
	assert.Equal(t, StateModified, state)

	require.NoError(t, sess.SaveChanges(ctx))

	var got account
	require.NoError(t, sess.DB().NewSelect().Model(&got).Where("id = ?", acct.ID).Scan(ctx))
	assert.Equal(t, int64(250), got.Balance)
}

func TestUpdateTrackedNeedsNoIdentity(t *testing.T) {
	sess := newTestSession(t)

	acct := &account{Name: "alice"}
	sess.Attach(acct)

	// tracked instances skip identity validation even with a zero key
	require.NoError(t, sess.Update(acct))

	state, _ := sess.Entry(acct)
	assert.Equal(t, StateModified, state)
}

func TestReferenceIdentity(t *testing.T) {
	sess := newTestSession(t)

	first := &account{ID: 1, Name: "alice"}
	second := &account{ID: 1, Name: "alice"}
	sess.Attach(first)
	require.NoError(t, sess.Update(second))

	// same row, different instances: two independent entries
	assert.Equal(t, 2, sess.TrackedCount())
	state, _ := sess.Entry(first)
	assert.Equal(t, StateUnchanged, state)
	state, _ = sess.Entry(second)
	assert.Equal(t, StateModified, state)
}

func TestDeleteAndSaveChanges(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	acct := &account{Name: "alice"}
	_, err := sess.Insert(acct)
	require.NoError(t, err)
	require.NoError(t, sess.SaveChanges(ctx))

	require.NoError(t, sess.Delete(acct))
	require.NoError(t, sess.SaveChanges(ctx))

	_, tracked := sess.Entry(acct)
	assert.False(t, tracked)

	count, err := sess.DB().NewSelect().Model((*account)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestDetachAllDiscardsStaged(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	_, err := sess.Insert(&account{Name: "alice"})
	require.NoError(t, err)
	sess.DetachAll()
	assert.Equal(t, 0, sess.TrackedCount())

	require.NoError(t, sess.SaveChanges(ctx))
	count, err := sess.DB().NewSelect().Model((*account)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestUpdateAllSkipsIdentityChecks(t *testing.T) {
	sess := newTestSession(t)

	first := &account{Name: "a"}
	second := &account{Name: "b"}
	require.NoError(t, sess.UpdateAll(first, second))

	state, _ := sess.Entry(first)
	assert.Equal(t, StateModified, state)
	state, _ = sess.Entry(second)
	assert.Equal(t, StateModified, state)
}

func TestExec(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	rows, err := sess.Exec(ctx, "INSERT INTO accounts (name, balance) VALUES (?, ?)", "raw", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
}

// stub driver whose results cannot report an affected-row count

type noCountDriver struct{}

func (noCountDriver) Open(string) (driver.Conn, error) { return noCountConn{}, nil }

type noCountConn struct{}

func (noCountConn) Prepare(string) (driver.Stmt, error) { return noCountStmt{}, nil }
func (noCountConn) Close() error                        { return nil }
func (noCountConn) Begin() (driver.Tx, error)           { return nil, errors.New("not supported") }

type noCountStmt struct{}

func (noCountStmt) Close() error  { return nil }
func (noCountStmt) NumInput() int { return -1 }
func (noCountStmt) Exec([]driver.Value) (driver.Result, error) {
	return noCountResult{}, nil
}
func (noCountStmt) Query([]driver.Value) (driver.Rows, error) {
	return nil, errors.New("not supported")
}

type noCountResult struct{}

func (noCountResult) LastInsertId() (int64, error) { return 0, nil }
func (noCountResult) RowsAffected() (int64, error) {
	return 0, errors.New("rows affected unavailable")
}

func init() {
	sql.Register("nocount", noCountDriver{})
}

func TestExecRowsAffectedFailure(t *testing.T) {
	sqldb, err := sql.Open("nocount", "")
	require.NoError(t, err)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	sess := New(db, metadata.NewResolver(db, nil))

	// the statement itself succeeds; the missing count must still surface
	rows, err := sess.Exec(context.Background(), "DELETE FROM accounts")
	require.Error(t, err)
	assert.Equal(t, int64(0), rows)
}
