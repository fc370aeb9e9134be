// Package media stores evidence media bytes in object storage.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"forensiai/backend/internal/models"
	"log"
	"path"
	"regexp"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrUploadUnavailable = errors.New("media storage unavailable")

// MinioUploader puts media objects into one bucket and returns their URL.
type MinioUploader struct {
	client *minio.Client
	bucket string

	bucketOnce sync.Once
	bucketErr  error
}

func NewMinioUploader(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioUploader, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &MinioUploader{client: client, bucket: bucket}, nil
}

// ensureBucket creates the bucket on first use.
func (u *MinioUploader) ensureBucket(ctx context.Context) error {
	u.bucketOnce.Do(func() {
		exists, err := u.client.BucketExists(ctx, u.bucket)
		if err != nil {
			u.bucketErr = fmt.Errorf("%w: %v", ErrUploadUnavailable, err)
			return
		}
		if exists {
			return
		}
		if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
			u.bucketErr = fmt.Errorf("%w: make bucket %s: %v", ErrUploadUnavailable, u.bucket, err)
			return
		}
		log.Printf("INFO: Created media bucket %s", u.bucket)
	})
	return u.bucketErr
}

// Upload stores data under <case>/<media id>/<file name>.
func (u *MinioUploader) Upload(ctx context.Context, caseID string, m models.MediaRecord, data []byte) (string, error) {
	if err := u.ensureBucket(ctx); err != nil {
		return "", err
	}

	key := ObjectKey(caseID, m)
	contentType := m.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return ObjectURL(u.client.EndpointURL().String(), u.bucket, key), nil
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectKey is the object name for a media item.
func ObjectKey(caseID string, m models.MediaRecord) string {
	name := unsafeKeyChars.ReplaceAllString(path.Base(m.FileName), "_")
	if name == "" || name == "." || name == "_" {
		name = "blob"
	}
	return path.Join(unsafeKeyChars.ReplaceAllString(caseID, "_"), unsafeKeyChars.ReplaceAllString(m.ID, "_"), name)
}

// ObjectURL is the path-style URL of key.
func ObjectURL(endpoint, bucket, key string) string {
	return strings.TrimSuffix(endpoint, "/") + "/" + bucket + "/" + key
}
