package model

import (
	"time"
)

type TaskStatus string

const (
	TaskDraft     TaskStatus = "draft"
	TaskPublished TaskStatus = "published"
	TaskArchived  TaskStatus = "archived"
)

// FileType 任务文件类型，决定完成判定方式：
// 分页内容按页数判定，视频按播放时长的95%判定
type FileType string

const (
	FileDocument FileType = "document"
	FileSlides   FileType = "slides"
	FileVideo    FileType = "video"
)

func (t FileType) IsTimed() bool {
	return t == FileVideo
}

// swagger:model Task
type Task struct {
	BaseModel
	Title        string           `gorm:"size:255;not null" json:"title"`
	Description  string           `gorm:"type:text" json:"description"`
	Status       TaskStatus       `gorm:"type:varchar(16);default:'draft';index" json:"status"`
	PassingScore int              `gorm:"default:60" json:"passingScore"`
	CreatedByID  uint             `gorm:"index" json:"createdById"`
	PublishedAt  *time.Time       `json:"publishedAt,omitempty"`
	Files        []TaskFile       `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"files,omitempty"`
	Assignments  []TaskAssignment `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"assignments,omitempty"`
	Questions    []QuizQuestion   `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

func (Task) TableName() string {
	return "tasks"
}

// TaskFile 任务下的一个学习文件，ObjectKey 指向对象存储中的内容
// swagger:model TaskFile
type TaskFile struct {
	UUIDBase
	TaskID      uint     `gorm:"index;not null" json:"taskId"`
	Name        string   `gorm:"size:255;not null" json:"name"`
	Type        FileType `gorm:"type:varchar(16);not null" json:"type"`
	ObjectKey   string   `gorm:"size:512;not null" json:"objectKey"`
	ContentType string   `gorm:"size:128" json:"contentType"`
	Size        int64    `gorm:"default:0" json:"size"`
	// Extent 总量：文档/幻灯片为页数，视频为时长（秒）
	Extent int `gorm:"default:0" json:"extent"`
	Order  int `gorm:"default:0" json:"order"`
}

func (TaskFile) TableName() string {
	return "task_files"
}

// TaskAssignment 任务与用户的指派关系
type TaskAssignment struct {
	BaseModel
	TaskID       uint `gorm:"not null;uniqueIndex:idx_task_user" json:"taskId"`
	UserID       uint `gorm:"not null;uniqueIndex:idx_task_user" json:"userId"`
	AssignedByID uint `json:"assignedById"`
}

func (TaskAssignment) TableName() string {
	return "task_assignments"
}

// QuizQuestion 单选题，Options 为选项文本，CorrectOption 为正确选项下标
// swagger:model QuizQuestion
type QuizQuestion struct {
	BaseModel
	TaskID        uint     `gorm:"index;not null" json:"taskId"`
	Text          string   `gorm:"type:text;not null" json:"text"`
	Options       []string `gorm:"serializer:json;type:json" json:"options"`
	CorrectOption int      `gorm:"not null" json:"-"`
	Order         int      `gorm:"default:0" json:"order"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}
