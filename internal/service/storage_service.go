package service

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"time"

	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/internal/util"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// StorageProvider 通用对象存储接口。服务端不代理文件字节，
// 上传和下载都通过时限签名URL由客户端直连存储
type StorageProvider interface {
	PresignUpload(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)
	PresignDownload(ctx context.Context, key string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// LocalStorageProvider 本地开发用实现，没有真正的签名，
// 返回由路由层静态伺服的路径
type LocalStorageProvider struct {
	Config *config.StorageConfig
}

func (p *LocalStorageProvider) PresignUpload(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	return "/uploads/" + key, nil
}

func (p *LocalStorageProvider) PresignDownload(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "/uploads/" + key, nil
}

func (p *LocalStorageProvider) Delete(ctx context.Context, key string) error {
	return nil
}

// LocalPath 本地文件绝对路径，视频探测用
func (p *LocalStorageProvider) LocalPath(key string) string {
	return filepath.Join(p.Config.LocalPath, key)
}

// MinioStorageProvider S3兼容存储实现
type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

func (p *MinioStorageProvider) PresignUpload(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	u, err := p.Client.PresignedPutObject(ctx, p.Config.MinioBucket, key, expiry)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (p *MinioStorageProvider) PresignDownload(ctx context.Context, key string, expiry time.Duration) (string, error) {
	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", fmt.Sprintf("inline; filename=%q", path.Base(key)))

	u, err := p.Client.PresignedGetObject(ctx, p.Config.MinioBucket, key, expiry, reqParams)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (p *MinioStorageProvider) Delete(ctx context.Context, key string) error {
	return p.Client.RemoveObject(ctx, p.Config.MinioBucket, key, minio.RemoveObjectOptions{})
}

// OSSStorageProvider 阿里云OSS存储实现
type OSSStorageProvider struct {
	Config *config.StorageConfig
	Client *oss.Client
}

func NewOSSStorageProvider(cfg *config.StorageConfig) (*OSSStorageProvider, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	return &OSSStorageProvider{Config: cfg, Client: client}, nil
}

func (p *OSSStorageProvider) PresignUpload(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return "", err
	}
	return bucket.SignURL(key, oss.HTTPPut, int64(expiry.Seconds()), oss.ContentType(contentType))
}

func (p *OSSStorageProvider) PresignDownload(ctx context.Context, key string, expiry time.Duration) (string, error) {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return "", err
	}
	return bucket.SignURL(key, oss.HTTPGet, int64(expiry.Seconds()))
}

func (p *OSSStorageProvider) Delete(ctx context.Context, key string) error {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return err
	}
	return bucket.DeleteObject(key)
}

// StorageService 按配置选择存储后端，并负责对象键的生成
type StorageService struct {
	Provider StorageProvider
	Cfg      *config.StorageConfig
}

func NewStorageService(cfg *config.StorageConfig) (*StorageService, error) {
	var provider StorageProvider
	var err error

	switch cfg.Type {
	case util.StorageMinio:
		provider, err = NewMinioStorageProvider(cfg)
	case util.StorageOSS:
		provider, err = NewOSSStorageProvider(cfg)
	default:
		provider = &LocalStorageProvider{Config: cfg}
	}
	if err != nil {
		return nil, err
	}

	return &StorageService{Provider: provider, Cfg: cfg}, nil
}

// NewObjectKey 每次上传生成全新的键，对象存储按只增内容寻址使用，
// 不存在并发写同一键的情况
func (s *StorageService) NewObjectKey(filename string) string {
	ext := filepath.Ext(filename)
	return fmt.Sprintf("tasks/%s/%s%s", time.Now().Format("2006/01"), model.GenerateUUID(), ext)
}

func (s *StorageService) presignExpiry() time.Duration {
	minutes := s.Cfg.PresignMinutes
	if minutes <= 0 {
		minutes = 15
	}
	return time.Duration(minutes) * time.Minute
}

func (s *StorageService) UploadURL(ctx context.Context, key, contentType string) (string, error) {
	return s.Provider.PresignUpload(ctx, key, contentType, s.presignExpiry())
}

func (s *StorageService) DownloadURL(ctx context.Context, key string) (string, error) {
	return s.Provider.PresignDownload(ctx, key, s.presignExpiry())
}

func (s *StorageService) Delete(ctx context.Context, key string) error {
	return s.Provider.Delete(ctx, key)
}

// ProbeLocalVideoDuration 本地存储时通过ffprobe确定视频时长。
// 远端对象存储拿不到本地路径，返回 ok=false 走客户端上报的值
func (s *StorageService) ProbeLocalVideoDuration(key string) (int, bool) {
	local, ok := s.Provider.(*LocalStorageProvider)
	if !ok {
		return 0, false
	}

	info, err := util.ProbeMediaDuration(local.LocalPath(key))
	if err != nil || info.Duration <= 0 {
		return 0, false
	}
	return int(info.Duration), true
}
