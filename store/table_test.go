package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/delivery-services/store"
)

type widget struct {
	Key   string `gorm:"primaryKey"`
	Kind  string
	Size  int
	Color string
}

func setupWidgets(t *testing.T) *store.Table[widget] {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&widget{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return store.NewTable[widget](db, "key", store.Schema{"kind": "kind", "size": "size", "colour": "color"})
}

func seedWidgets(t *testing.T, table *store.Table[widget]) {
	ctx := context.Background()
	for _, w := range []widget{
		{Key: "a", Kind: "bolt", Size: 1, Color: "red"},
		{Key: "b", Kind: "bolt", Size: 5, Color: "blue"},
		{Key: "c", Kind: "nut", Size: 5, Color: "red"},
	} {
		w := w
		require.NoError(t, table.Insert(ctx, &w))
	}
}

func TestTableGetAndInsert(t *testing.T) {
	table := setupWidgets(t)
	seedWidgets(t, table)
	ctx := context.Background()

	got, err := table.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "blue", got.Color)

	_, err = table.Get(ctx, "zzz")
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = table.Insert(ctx, &widget{Key: "a", Kind: "other"})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	got, err = table.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "bolt", got.Kind, "duplicate insert must not overwrite")
}

func TestTablePutOverwrites(t *testing.T) {
	table := setupWidgets(t)
	seedWidgets(t, table)
	ctx := context.Background()

	require.NoError(t, table.Put(ctx, &widget{Key: "a", Kind: "washer", Size: 9, Color: "green"}))
	require.NoError(t, table.Put(ctx, &widget{Key: "d", Kind: "nut", Size: 2}))

	got, err := table.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "washer", got.Kind)
	assert.Equal(t, 9, got.Size)

	n, err := table.Count(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func TestTableScanFilters(t *testing.T) {
	table := setupWidgets(t)
	seedWidgets(t, table)
	ctx := context.Background()

	all, err := table.Scan(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	bolts, err := table.Scan(ctx, table.Query().Eq("kind", "bolt").Where("size", store.Gte, 2))
	require.NoError(t, err)
	require.Len(t, bolts, 1)
	assert.Equal(t, "b", bolts[0].Key)

	red, err := table.Scan(ctx, table.Query().Eq("colour", "red"))
	require.NoError(t, err)
	assert.Len(t, red, 2)

	none, err := table.Scan(ctx, table.Query().Eq("kind", "gear"))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestTableScanRejectsUnknownAttribute(t *testing.T) {
	table := setupWidgets(t)

	_, err := table.Scan(context.Background(), table.Query().Eq("key; DROP TABLE widgets", "x"))
	assert.ErrorIs(t, err, store.ErrUnknownAttribute)
}

func TestTableUpdateAndDelete(t *testing.T) {
	table := setupWidgets(t)
	seedWidgets(t, table)
	ctx := context.Background()

	require.NoError(t, table.Update(ctx, "c", map[string]interface{}{"color": "black"}))
	got, err := table.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "black", got.Color)

	assert.ErrorIs(t, table.Update(ctx, "missing", map[string]interface{}{"color": "x"}), store.ErrNotFound)

	require.NoError(t, table.Delete(ctx, "c"))
	assert.ErrorIs(t, table.Delete(ctx, "c"), store.ErrNotFound)

	ok, err := table.Exists(ctx, "c")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTableDeleteWhere(t *testing.T) {
	table := setupWidgets(t)
	seedWidgets(t, table)
	ctx := context.Background()

	n, err := table.DeleteWhere(ctx, table.Query().Eq("kind", "bolt"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = table.DeleteWhere(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = table.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
