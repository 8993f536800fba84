package model

import "time"

// 聚合报表的返回结构，不落库

// swagger:model TaskUserReport
type TaskUserReport struct {
	UserID         uint    `json:"userId"`
	UserName       string  `json:"userName"`
	Email          string  `json:"email"`
	OverallPercent float64 `json:"overallPercent"`
	FilesCompleted int     `json:"filesCompleted"`
	FilesTotal     int     `json:"filesTotal"`
	EffectiveTime  int64   `json:"effectiveTime"`
	BestQuizScore  *int    `json:"bestQuizScore,omitempty"`
	QuizPassed     *bool   `json:"quizPassed,omitempty"`
	QuizAttempts   int     `json:"quizAttempts"`
}

// swagger:model TaskReport
type TaskReport struct {
	TaskID        uint             `json:"taskId"`
	Title         string           `json:"title"`
	AssignedCount int              `json:"assignedCount"`
	Users         []TaskUserReport `json:"users"`
}

// swagger:model UserFileReport
type UserFileReport struct {
	TaskID        uint       `json:"taskId"`
	TaskTitle     string     `json:"taskTitle"`
	FileID        string     `json:"fileId"`
	FileName      string     `json:"fileName"`
	FileType      FileType   `json:"fileType"`
	Progress      float64    `json:"progress"`
	EffectiveTime int64      `json:"effectiveTime"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	LastAccessed  time.Time  `json:"lastAccessed"`
}

// swagger:model UserReport
type UserReport struct {
	UserID      uint             `json:"userId"`
	UserName    string           `json:"userName"`
	Files       []UserFileReport `json:"files"`
	Submissions []QuizSubmission `json:"submissions"`
}

// swagger:model PlatformOverview
type PlatformOverview struct {
	TotalUsers        int64   `json:"totalUsers"`
	TotalTasks        int64   `json:"totalTasks"`
	PublishedTasks    int64   `json:"publishedTasks"`
	TotalCompletions  int64   `json:"totalCompletions"`
	AverageCompletion float64 `json:"averageCompletion"`
}
