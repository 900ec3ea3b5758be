package autotrade

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *GormSnapshotStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(SnapshotModel()))

	return NewGormSnapshotStore(db)
}

func TestSnapshotStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	snap := Snapshot{
		Config: Config{
			StockCode:    "600036",
			Strategy:     "macd",
			Funding:      FundingAllCash,
			PollInterval: 45,
		},
		Running: true,
	}
	require.NoError(t, store.Save(snap))

	got, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snap, *got)
}

func TestSnapshotStoreLoadEmpty(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSnapshotStoreOverwrites(t *testing.T) {
	store := newTestStore(t)

	first := Snapshot{Config: validConfig(), Running: true}
	require.NoError(t, store.Save(first))

	second := first
	second.Config.StockCode = "000001"
	second.Running = false
	require.NoError(t, store.Save(second))

	got, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "000001", got.Config.StockCode)
	assert.False(t, got.Running)
}

func TestSnapshotStoreClear(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(Snapshot{Config: validConfig(), Running: true}))
	require.NoError(t, store.Clear())

	got, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, got)

	// clearing an empty store is fine
	require.NoError(t, store.Clear())
}
