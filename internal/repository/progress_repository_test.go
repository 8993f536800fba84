package repository

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"lms_backend/internal/model"
	"lms_backend/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// 内存库写并发靠单连接串行化
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func progressRecord(position, extent int, progress float64, completedAt *time.Time) *model.FileProgress {
	now := time.Now()
	return &model.FileProgress{
		UserID:       42,
		FileID:       "file-0001",
		TaskID:       1,
		Position:     position,
		Extent:       extent,
		Progress:     progress,
		StartedAt:    now,
		LastAccessed: now,
		CompletedAt:  completedAt,
	}
}

func TestMergeInsertThenFold(t *testing.T) {
	db := newTestDB(t)
	repo := NewProgressRepository(db)

	rec := progressRecord(3, 10, 30, nil)
	rec.EffectiveTime = 20
	require.NoError(t, repo.Merge(rec, 20))

	// 冲突分支：位置和百分比覆盖，有效时长累加
	rec2 := progressRecord(7, 10, 70, nil)
	rec2.EffectiveTime = 15
	require.NoError(t, repo.Merge(rec2, 15))

	merged, err := repo.Find(42, "file-0001")
	require.NoError(t, err)
	assert.Equal(t, 7, merged.Position)
	assert.InDelta(t, 70.0, merged.Progress, 0.001)
	assert.Equal(t, int64(35), merged.EffectiveTime)
	assert.Nil(t, merged.CompletedAt)

	var count int64
	require.NoError(t, db.Model(&model.FileProgress{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMergeCompletedAtLatch(t *testing.T) {
	db := newTestDB(t)
	repo := NewProgressRepository(db)

	done := time.Now().Add(-time.Hour)
	require.NoError(t, repo.Merge(progressRecord(10, 10, 100, &done), 0))

	// 后续上报不带完成时间，COALESCE 保留已有值
	require.NoError(t, repo.Merge(progressRecord(2, 10, 20, nil), 0))
	merged, err := repo.Find(42, "file-0001")
	require.NoError(t, err)
	require.NotNil(t, merged.CompletedAt)
	assert.True(t, merged.CompletedAt.Equal(done) || merged.CompletedAt.Sub(done).Abs() < time.Millisecond)

	// 后续上报带新的完成时间也不覆盖旧值
	later := time.Now()
	require.NoError(t, repo.Merge(progressRecord(10, 10, 100, &later), 0))
	merged, err = repo.Find(42, "file-0001")
	require.NoError(t, err)
	require.NotNil(t, merged.CompletedAt)
	assert.True(t, merged.CompletedAt.Sub(done).Abs() < time.Millisecond)
}

func TestMergeConcurrentReports(t *testing.T) {
	db := newTestDB(t)
	repo := NewProgressRepository(db)

	// 同一 (user, file) 的并发上报全部折叠进一条记录，时长一条不丢
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(pos int) {
			defer wg.Done()
			rec := progressRecord(pos, 10, float64(pos)*10, nil)
			rec.EffectiveTime = 3
			assert.NoError(t, repo.Merge(rec, 3))
		}(i + 1)
	}
	wg.Wait()

	var count int64
	require.NoError(t, db.Model(&model.FileProgress{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	merged, err := repo.Find(42, "file-0001")
	require.NoError(t, err)
	assert.Equal(t, int64(30), merged.EffectiveTime)
}

func TestMergeIsolatedPerUserAndFile(t *testing.T) {
	db := newTestDB(t)
	repo := NewProgressRepository(db)

	a := progressRecord(3, 10, 30, nil)
	require.NoError(t, repo.Merge(a, 0))

	b := progressRecord(9, 10, 90, nil)
	b.UserID = 43
	require.NoError(t, repo.Merge(b, 0))

	c := progressRecord(5, 10, 50, nil)
	c.FileID = "file-0002"
	require.NoError(t, repo.Merge(c, 0))

	var count int64
	require.NoError(t, db.Model(&model.FileProgress{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	mine, err := repo.Find(42, "file-0001")
	require.NoError(t, err)
	assert.Equal(t, 3, mine.Position)
}
