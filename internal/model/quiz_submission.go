package model

import (
	"time"
)

// QuizSubmission 一次测验提交，每次提交都是一条新记录，Attempt 递增。
// Passed 按提交时刻任务配置的及格线计算，之后阈值变更不做回算
type QuizSubmission struct {
	BaseModel
	TaskID       uint         `gorm:"index;not null" json:"taskId"`
	UserID       uint         `gorm:"index;not null" json:"userId"`
	Attempt      int          `gorm:"not null" json:"attempt"`
	Score        int          `gorm:"not null" json:"score"`
	Passed       bool         `gorm:"not null" json:"passed"`
	CorrectCount int          `gorm:"not null" json:"correctCount"`
	TotalCount   int          `gorm:"not null" json:"totalCount"`
	Answers      map[uint]int `gorm:"serializer:json;type:json" json:"answers"`
	SubmittedAt  time.Time    `json:"submittedAt"`
}

func (QuizSubmission) TableName() string {
	return "quiz_submissions"
}
