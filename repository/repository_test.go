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

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/quarry-db/quarry/metadata"
	"github.com/quarry-db/quarry/session"
	"github.com/quarry-db/quarry/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type player struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Name  string `bun:"name"`
	Score int    `bun:"score"`
}

func newTestRepo(t *testing.T) (Repository[player], *session.Session) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.NewCreateTable().Model((*player)(nil)).IfNotExists().Exec(context.Background())
	require.NoError(t, err)

	sess := session.New(db, metadata.NewResolver(db, nil))
	return NewRepository[player](sess), sess
}

func seedPlayers(t *testing.T, repo Repository[player], n int) {
	t.Helper()
	ctx := context.Background()
	for i := 1; i <= n; i++ {
		_, err := repo.Insert(&player{Name: fmt.Sprintf("player-%02d", i), Score: i})
		require.NoError(t, err)
	}
	require.NoError(t, repo.Session().SaveChanges(ctx))
	repo.Session().DetachAll()
}

func TestGetAttachesEntity(t *testing.T) {
	repo, sess := newTestRepo(t)
	seedPlayers(t, repo, 3)
	ctx := context.Background()

	got, err := repo.Get(ctx, int64(2))
	require.NoError(t, err)
	assert.Equal(t, "player-02", got.Name)

	state, tracked := sess.Entry(got)
	require.True(t, tracked)
	assert.Equal(t, session.StateUnchanged, state)
}

func TestGetCoercesStringKey(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedPlayers(t, repo, 3)

	got, err := repo.Get(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "player-03", got.Name)
}

func TestGetNilKey(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Get(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestListBySpecComposition(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedPlayers(t, repo, 10)
	ctx := context.Background()

	// filter, order, skip, take compose in that fixed order
	spec := NewSpec[player]().
		Where("score > ?", 2).
		OrderBy("score").
		Skip(2).
		Take(3).
		Build()

	got, err := repo.ListBySpec(ctx, spec)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 5, got[0].Score)
	assert.Equal(t, 6, got[1].Score)
	assert.Equal(t, 7, got[2].Score)
}

func TestListBySpecOrderDesc(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedPlayers(t, repo, 5)

	spec := NewSpec[player]().OrderByDesc("score").Take(2).Build()
	got, err := repo.ListBySpec(context.Background(), spec)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 5, got[0].Score)
	assert.Equal(t, 4, got[1].Score)
}

func TestListBySpecTracking(t *testing.T) {
	repo, sess := newTestRepo(t)
	seedPlayers(t, repo, 3)
	ctx := context.Background()

	_, err := repo.ListBySpec(ctx, NewSpec[player]().NoTracking().Build())
	require.NoError(t, err)
	assert.Equal(t, 0, sess.TrackedCount())

	_, err = repo.ListBySpec(ctx, NewSpec[player]().Build())
	require.NoError(t, err)
	assert.Equal(t, 3, sess.TrackedCount())
}

func TestGetBySpec(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedPlayers(t, repo, 5)

	spec := NewSpec[player]().Where("score > ?", 2).OrderBy("score").Build()
	got, err := repo.GetBySpec(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Score)
}

func TestCountBySpecIgnoresPaging(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedPlayers(t, repo, 10)
	ctx := context.Background()

	spec := NewSpec[player]().Where("score > ?", 2).OrderBy("score").Skip(2).Take(3).Build()

	// cardinality reflects the filter only
	count, err := repo.CountBySpec(ctx, spec)
	require.NoError(t, err)
	assert.Equal(t, 8, count)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, total)
}

func TestExistsBySpec(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedPlayers(t, repo, 3)
	ctx := context.Background()

	exists, err := repo.ExistsBySpec(ctx, NewSpec[player]().Where("score = ?", 2).Build())
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsBySpec(ctx, NewSpec[player]().Where("score = ?", 99).Build())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestListWithFilter(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedPlayers(t, repo, 5)

	got, err := repo.List(context.Background(), types.NewQueryFilter("score <= ?", 2))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestPage(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedPlayers(t, repo, 10)

	page, err := repo.Page(context.Background(), types.NewPageRequestWithOrders(2, 3, []string{"score ASC"}))
	require.NoError(t, err)
	assert.Equal(t, 10, page.Total)
	require.Len(t, page.Items, 3)
	assert.Equal(t, 4, page.Items[0].Score)
}

func TestProject(t *testing.T) {
	repo, sess := newTestRepo(t)
	seedPlayers(t, repo, 5)
	ctx := context.Background()

	spec := NewSpec[player]().Where("score > ?", 3).OrderBy("score").Build()
	names, err := Project[player, string](ctx, repo, spec, "name")
	require.NoError(t, err)
	assert.Equal(t, []string{"player-04", "player-05"}, names)

	// projections never enter the tracked set
	assert.Equal(t, 0, sess.TrackedCount())
}

func TestStagedMutationsThroughRepository(t *testing.T) {
	repo, sess := newTestRepo(t)
	ctx := context.Background()

	p := &player{Name: "new", Score: 1}
	keys, err := repo.Insert(p)
	require.NoError(t, err)
	require.Len(t, keys, 1)

	// nothing hits the store until SaveChanges
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, sess.SaveChanges(ctx))
	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	p.Score = 9
	require.NoError(t, repo.Update(p))
	require.NoError(t, sess.SaveChanges(ctx))

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Score)
}

func TestInsertNilEntity(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Insert(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	assert.Error(t, repo.Update(nil))
	assert.Error(t, repo.Delete(nil))
}
