package uploader

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"nepeats/internal/pkg/config"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
)

// ErrUnsupportedType 仅允许图片
var ErrUnsupportedType = errors.New("only jpg, jpeg, png and webp images are allowed")

var allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// Uploader 商品图片、餐厅 logo 和封面上传
type Uploader interface {
	UploadFile(folder string, file *multipart.FileHeader) (string, error)
}

type AliyunOSSUploader struct {
	bucket *oss.Bucket
	config config.OSSConfig
}

func NewAliyunOSSUploader(cfg config.OSSConfig) (*AliyunOSSUploader, error) {
	if cfg.Endpoint == "" || cfg.BucketName == "" {
		return nil, errors.New("oss config is missing")
	}
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, err
	}

	return &AliyunOSSUploader{
		bucket: bucket,
		config: cfg,
	}, nil
}

// ObjectKey 生成对象名: folder/YYYYMMDD/uuid.ext
func ObjectKey(folder, filename string, now time.Time) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", ErrUnsupportedType
	}
	return fmt.Sprintf("%s/%s/%s%s", folder, now.Format("20060102"), uuid.New().String(), ext), nil
}

func (u *AliyunOSSUploader) UploadFile(folder string, file *multipart.FileHeader) (string, error) {
	key, err := ObjectKey(folder, file.Filename, time.Now())
	if err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := u.bucket.PutObject(key, src); err != nil {
		return "", err
	}

	// bucket 为公共读
	return fmt.Sprintf("https://%s.%s/%s", u.config.BucketName, u.config.Endpoint, key), nil
}
