package storage

import (
	"context"
	"mime"
	"path/filepath"
	"time"

	"AudioEditor/config"
	"AudioEditor/logger"

	"github.com/cockroachdb/errors"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// NoopMirror is used when MinIO is disabled.
type NoopMirror struct{}

func (NoopMirror) Mirror(context.Context, string, string) error { return nil }

// MinioMirror uploads verified outputs to a MinIO bucket.
type MinioMirror struct {
	client     *minio.Client
	bucketName string
}

func newMinioClient(cfg *config.Config) (*minio.Client, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating MinIO client")
	}
	return client, nil
}

// NewMinioMirror connects to MinIO and creates the bucket if it does not exist.
func NewMinioMirror(ctx context.Context, cfg *config.Config) (*MinioMirror, error) {
	logger.Info("Connecting to MinIO",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket),
		logger.Bool("ssl", cfg.MinioUseSSL))

	client, err := newMinioClient(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, errors.Wrapf(err, "checking bucket %s", cfg.MinioBucket)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, errors.Wrapf(err, "creating bucket %s", cfg.MinioBucket)
		}
		logger.Info("Bucket created", logger.String("bucket", cfg.MinioBucket))
	}

	return &MinioMirror{client: client, bucketName: cfg.MinioBucket}, nil
}

// Mirror uploads localPath as objectKey.
func (m *MinioMirror) Mirror(ctx context.Context, localPath, objectKey string) error {
	info, err := m.client.FPutObject(ctx, m.bucketName, objectKey, localPath, minio.PutObjectOptions{
		ContentType: contentTypeFor(localPath),
	})
	if err != nil {
		return errors.Wrapf(err, "uploading %s to %s/%s", localPath, m.bucketName, objectKey)
	}
	logger.Debug("Output mirrored",
		logger.String("bucket", m.bucketName),
		logger.String("key", objectKey),
		logger.Int64("size", info.Size))
	return nil
}

var audioContentTypes = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
}

func contentTypeFor(path string) string {
	ext := filepath.Ext(path)
	if ct, ok := audioContentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
