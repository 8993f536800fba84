package model

import (
	"time"
)

// ProgressAction 客户端上报的动作类型
type ProgressAction string

const (
	ActionPageTurn  ProgressAction = "page_turn"
	ActionPlayback  ProgressAction = "playback"
	ActionHeartbeat ProgressAction = "heartbeat"
	ActionOpen      ProgressAction = "open"
)

func (a ProgressAction) Valid() bool {
	switch a {
	case ActionPageTurn, ActionPlayback, ActionHeartbeat, ActionOpen:
		return true
	}
	return false
}

// FileProgress 每个 (user, file) 对唯一的一条进度记录。
// 并发上报通过存储层的原子 upsert 合并，绝不产生第二条记录。
//
// Position/Progress 每次上报无条件覆盖（允许回退），EffectiveTime 只增不减，
// CompletedAt 一旦置位就不再清空或前移
type FileProgress struct {
	BaseModel
	UserID uint   `gorm:"not null;uniqueIndex:idx_user_file" json:"userId"`
	FileID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_file" json:"fileId"`
	TaskID uint   `gorm:"index;not null" json:"taskId"`
	// Position 当前位置：页码或播放秒数
	Position int `gorm:"default:0" json:"position"`
	// Extent 总量：页数或媒体时长（秒）
	Extent int `gorm:"default:0" json:"extent"`
	// Progress 完成百分比 0-100，由最近一次上报的位置重新计算
	Progress float64 `gorm:"default:0" json:"progress"`
	// EffectiveTime 累计有效学习时长（秒），各次上报的增量之和
	EffectiveTime int64      `gorm:"default:0" json:"effectiveTime"`
	StartedAt     time.Time  `json:"startedAt"`
	LastAccessed  time.Time  `json:"lastAccessed"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

func (FileProgress) TableName() string {
	return "file_progress"
}

// ProgressEvent 进度上报的原始审计记录，仅追加，永不合并或修改
type ProgressEvent struct {
	BaseModel
	UserID          uint           `gorm:"index;not null" json:"userId"`
	FileID          string         `gorm:"type:varchar(36);index;not null" json:"fileId"`
	TaskID          uint           `gorm:"index;not null" json:"taskId"`
	Action          ProgressAction `gorm:"type:varchar(16)" json:"action"`
	Position        int            `json:"position"`
	Extent          int            `json:"extent"`
	SessionDuration int64          `json:"sessionDuration"`
	ReportedAt      time.Time      `json:"reportedAt"`
}

func (ProgressEvent) TableName() string {
	return "progress_events"
}
