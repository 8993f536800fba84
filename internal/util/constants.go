package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// SessionCookieName 会话令牌Cookie名
const SessionCookieName = "session-token"

// VideoCompletionRatio 视频类文件的完成判定阈值：播放位置达到时长的95%即视为完成
const VideoCompletionRatio = 0.95

// 文件上传相关常量
const (
	MimeVideo       = "video/"
	MimePDF         = "application/pdf"
	MimeOctetStream = "application/octet-stream"
)

var (
	AllowedVideoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm"}
)
