package storage

import (
	"context"
	"fmt"
	"time"

	"AudioEditor/config"

	"github.com/cockroachdb/errors"
	"github.com/minio/minio-go/v7"
)

// BucketStats summarises the mirrored objects under a prefix.
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
}

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// MinioClient is the read side used by the minio CLI command.
type MinioClient struct {
	client     *minio.Client
	bucketName string
}

func NewMinioClient(cfg *config.Config) (*MinioClient, error) {
	client, err := newMinioClient(cfg)
	if err != nil {
		return nil, err
	}
	return &MinioClient{client: client, bucketName: cfg.MinioBucket}, nil
}

func (m *MinioClient) Bucket() string {
	return m.bucketName
}

// ListObjects lists every object under prefix.
func (m *MinioClient) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, *BucketStats, error) {
	exists, err := m.client.BucketExists(ctx, m.bucketName)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "checking bucket %s", m.bucketName)
	}
	if !exists {
		return nil, nil, errors.Newf("bucket %s does not exist", m.bucketName)
	}

	stats := &BucketStats{}
	var objects []ObjectInfo
	objectCh := m.client.ListObjects(ctx, m.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, nil, errors.Wrap(object.Err, "listing objects")
		}
		stats.TotalObjects++
		stats.TotalSize += object.Size
		if object.LastModified.After(stats.LastModified) {
			stats.LastModified = object.LastModified
		}
		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
		})
	}
	return objects, stats, nil
}

// FormatSize renders a byte count with a binary unit.
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
