package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/database"
	"lms_backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
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

	// 内存库靠单连接串行化，避免共享缓存下的表锁
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func newProgressService(db *gorm.DB) *ProgressService {
	return NewProgressService(
		repository.NewProgressRepository(db),
		repository.NewTaskRepository(db),
		repository.NewTaskFileRepository(db),
	)
}

func seedTask(t *testing.T, db *gorm.DB, status model.TaskStatus) *model.Task {
	t.Helper()
	now := time.Now()
	task := &model.Task{
		Title:        "网络基础",
		Status:       status,
		PassingScore: 60,
		CreatedByID:  1,
	}
	if status == model.TaskPublished {
		task.PublishedAt = &now
	}
	require.NoError(t, db.Create(task).Error)
	return task
}

func seedFile(t *testing.T, db *gorm.DB, taskID uint, fileType model.FileType, extent int) *model.TaskFile {
	t.Helper()
	file := &model.TaskFile{
		TaskID:    taskID,
		Name:      "chapter-1",
		Type:      fileType,
		ObjectKey: "tasks/2026/08/" + model.GenerateUUID() + ".pdf",
		Extent:    extent,
	}
	require.NoError(t, db.Create(file).Error)
	return file
}

func report(taskID uint, fileID string, position, extent int, delta int64) *ProgressReportRequest {
	return &ProgressReportRequest{
		TaskID:               taskID,
		FileID:               fileID,
		Position:             position,
		Extent:               extent,
		SessionDurationDelta: delta,
		Action:               model.ActionPageTurn,
	}
}

func TestReportPagedDocument(t *testing.T) {
	db := newTestDB(t)
	svc := newProgressService(db)
	task := seedTask(t, db, model.TaskPublished)
	file := seedFile(t, db, task.ID, model.FileDocument, 10)

	result, err := svc.Report(42, report(task.ID, file.ID, 3, 0, 30))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Position)
	assert.Equal(t, 10, result.Extent)
	assert.InDelta(t, 30.0, result.ProgressPercent, 0.001)
	assert.Equal(t, int64(30), result.EffectiveTime)
	assert.False(t, result.IsCompleted)

	// 翻到末页即完成
	result, err = svc.Report(42, report(task.ID, file.ID, 10, 0, 45))
	require.NoError(t, err)
	assert.InDelta(t, 100.0, result.ProgressPercent, 0.001)
	assert.Equal(t, int64(75), result.EffectiveTime)
	assert.True(t, result.IsCompleted)
}

func TestReportCompletionLatch(t *testing.T) {
	db := newTestDB(t)
	svc := newProgressService(db)
	task := seedTask(t, db, model.TaskPublished)
	file := seedFile(t, db, task.ID, model.FileDocument, 10)

	_, err := svc.Report(42, report(task.ID, file.ID, 10, 0, 10))
	require.NoError(t, err)

	// 完成后重新翻回前面的页，位置和百分比回退，但完成时间保留
	result, err := svc.Report(42, report(task.ID, file.ID, 5, 0, 10))
	require.NoError(t, err)
	assert.Equal(t, 5, result.Position)
	assert.InDelta(t, 50.0, result.ProgressPercent, 0.001)
	assert.True(t, result.IsCompleted)

	var record model.FileProgress
	require.NoError(t, db.Where("user_id = ? AND file_id = ?", 42, file.ID).First(&record).Error)
	require.NotNil(t, record.CompletedAt)
	firstCompleted := *record.CompletedAt

	// 再次完成也不会前移已有的完成时间
	time.Sleep(10 * time.Millisecond)
	_, err = svc.Report(42, report(task.ID, file.ID, 10, 0, 10))
	require.NoError(t, err)
	require.NoError(t, db.Where("user_id = ? AND file_id = ?", 42, file.ID).First(&record).Error)
	require.NotNil(t, record.CompletedAt)
	assert.True(t, record.CompletedAt.Equal(firstCompleted))
}

func TestReportVideoCompletion(t *testing.T) {
	db := newTestDB(t)
	svc := newProgressService(db)
	task := seedTask(t, db, model.TaskPublished)
	file := seedFile(t, db, task.ID, model.FileVideo, 100)

	result, err := svc.Report(7, &ProgressReportRequest{
		TaskID: task.ID, FileID: file.ID, Position: 94, SessionDurationDelta: 94,
		Action: model.ActionPlayback,
	})
	require.NoError(t, err)
	assert.False(t, result.IsCompleted)

	// 播放到时长95%即视为看完，不要求精确播到最后一秒
	result, err = svc.Report(7, &ProgressReportRequest{
		TaskID: task.ID, FileID: file.ID, Position: 96, SessionDurationDelta: 2,
		Action: model.ActionPlayback,
	})
	require.NoError(t, err)
	assert.True(t, result.IsCompleted)
	assert.InDelta(t, 96.0, result.ProgressPercent, 0.001)
}

func TestReportSingleRecordPerUserFile(t *testing.T) {
	db := newTestDB(t)
	svc := newProgressService(db)
	task := seedTask(t, db, model.TaskPublished)
	file := seedFile(t, db, task.ID, model.FileDocument, 20)

	for i := 1; i <= 15; i++ {
		_, err := svc.Report(42, report(task.ID, file.ID, i, 0, 5))
		require.NoError(t, err)
	}

	var records int64
	require.NoError(t, db.Model(&model.FileProgress{}).
		Where("user_id = ? AND file_id = ?", 42, file.ID).Count(&records).Error)
	assert.Equal(t, int64(1), records, "重复上报必须折叠进同一条记录")

	var events int64
	require.NoError(t, db.Model(&model.ProgressEvent{}).
		Where("user_id = ? AND file_id = ?", 42, file.ID).Count(&events).Error)
	assert.Equal(t, int64(15), events, "审计流水每次上报各记一条")

	record, err := svc.ProgressRepo.Find(42, file.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(75), record.EffectiveTime, "有效时长为各次增量之和")
}

func TestReportLastWriteWins(t *testing.T) {
	db := newTestDB(t)
	svc := newProgressService(db)
	task := seedTask(t, db, model.TaskPublished)
	file := seedFile(t, db, task.ID, model.FileDocument, 10)

	_, err := svc.Report(42, report(task.ID, file.ID, 8, 0, 10))
	require.NoError(t, err)

	// 乱序到达的旧事件照样覆盖位置，不做时间戳比较
	result, err := svc.Report(42, report(task.ID, file.ID, 3, 0, 10))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Position)
	assert.InDelta(t, 30.0, result.ProgressPercent, 0.001)
}

func TestReportServerExtentWins(t *testing.T) {
	db := newTestDB(t)
	svc := newProgressService(db)
	task := seedTask(t, db, model.TaskPublished)
	file := seedFile(t, db, task.ID, model.FileDocument, 200)

	// 客户端谎报总量，以服务端登记值为准
	result, err := svc.Report(42, report(task.ID, file.ID, 10, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, 200, result.Extent)
	assert.InDelta(t, 5.0, result.ProgressPercent, 0.001)
	assert.False(t, result.IsCompleted)
}

func TestReportClientExtentFallback(t *testing.T) {
	db := newTestDB(t)
	svc := newProgressService(db)
	task := seedTask(t, db, model.TaskPublished)
	file := seedFile(t, db, task.ID, model.FileDocument, 0)

	result, err := svc.Report(42, report(task.ID, file.ID, 5, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, 10, result.Extent)
	assert.InDelta(t, 50.0, result.ProgressPercent, 0.001)
}

func TestReportPreconditions(t *testing.T) {
	db := newTestDB(t)
	svc := newProgressService(db)

	published := seedTask(t, db, model.TaskPublished)
	draft := seedTask(t, db, model.TaskDraft)
	fileInPublished := seedFile(t, db, published.ID, model.FileDocument, 10)
	fileInDraft := seedFile(t, db, draft.ID, model.FileDocument, 10)

	_, err := svc.Report(42, report(9999, fileInPublished.ID, 1, 0, 0))
	assert.ErrorIs(t, err, util.ErrTaskNotFound)

	_, err = svc.Report(42, report(draft.ID, fileInDraft.ID, 1, 0, 0))
	assert.ErrorIs(t, err, util.ErrTaskNotPublished)

	// 文件存在但属于别的任务，等同于不存在
	_, err = svc.Report(42, report(published.ID, fileInDraft.ID, 1, 0, 0))
	assert.ErrorIs(t, err, util.ErrFileNotFound)

	badAction := report(published.ID, fileInPublished.ID, 1, 0, 0)
	badAction.Action = "rewind"
	_, err = svc.Report(42, badAction)
	assert.ErrorIs(t, err, util.ErrInvalidAction)

	// 任何前置校验失败都不留下进度记录
	var count int64
	require.NoError(t, db.Model(&model.FileProgress{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestReportSurvivesAuditFailure(t *testing.T) {
	logger.Log = zap.NewNop()

	db := newTestDB(t)
	svc := newProgressService(db)
	task := seedTask(t, db, model.TaskPublished)
	file := seedFile(t, db, task.ID, model.FileDocument, 10)

	// 审计表不可写时进度合并照常生效，不能向客户端报错，
	// 否则重试会重复累加时长
	require.NoError(t, db.Migrator().DropTable(&model.ProgressEvent{}))

	result, err := svc.Report(42, report(task.ID, file.ID, 3, 0, 30))
	require.NoError(t, err)
	assert.Equal(t, int64(30), result.EffectiveTime)

	merged, err := svc.ProgressRepo.Find(42, file.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, merged.Position)
	assert.Equal(t, int64(30), merged.EffectiveTime)
}

func TestCompletionPercent(t *testing.T) {
	cases := []struct {
		name     string
		position int
		extent   int
		want     float64
	}{
		{"起点", 0, 10, 0},
		{"中途", 3, 10, 30},
		{"末页", 10, 10, 100},
		{"超出总量截断到100", 15, 10, 100},
		{"总量为零记0", 5, 0, 0},
		{"总量为负记0", 5, -1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, CompletionPercent(tc.position, tc.extent), 0.001)
		})
	}
}

func TestIsCompleted(t *testing.T) {
	assert.True(t, IsCompleted(model.FileDocument, 10, 10))
	assert.True(t, IsCompleted(model.FileDocument, 12, 10))
	assert.False(t, IsCompleted(model.FileDocument, 9, 10))
	assert.True(t, IsCompleted(model.FileSlides, 30, 30))

	assert.True(t, IsCompleted(model.FileVideo, 95, 100))
	assert.True(t, IsCompleted(model.FileVideo, 96, 100))
	assert.False(t, IsCompleted(model.FileVideo, 94, 100))

	// 总量未知时永远不算完成
	assert.False(t, IsCompleted(model.FileDocument, 5, 0))
	assert.False(t, IsCompleted(model.FileVideo, 5, 0))
}
