// Package storage hands out presigned URLs for objects of one S3 bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	appErrors "minicourse-backend/pkg/errors"
)

// UploadContentType is the content type clients must send with presigned uploads.
const UploadContentType = "binary/octet-stream"

// Presigner is the subset of s3.PresignClient a Bucket uses.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// ObjectReader is the subset of s3.Client a Bucket uses.
type ObjectReader interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var (
	_ Presigner    = (*s3.PresignClient)(nil)
	_ ObjectReader = (*s3.Client)(nil)
)

// Bucket addresses objects as "<folder>/<object>".
type Bucket struct {
	name      string
	presigner Presigner
	reader    ObjectReader
	logger    *zap.Logger
}

// NewBucket creates a bucket handle.
func NewBucket(name string, presigner Presigner, reader ObjectReader, logger *zap.Logger) *Bucket {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bucket{
		name:      name,
		presigner: presigner,
		reader:    reader,
		logger:    logger.With(zap.String("bucket", name)),
	}
}

// ObjectKey joins folder and object name. An empty folder means the bucket root.
func ObjectKey(folder, object string) string {
	if folder == "" {
		return object
	}
	return folder + "/" + object
}

// PutURL presigns an upload of folder/object valid for expire.
func (b *Bucket) PutURL(ctx context.Context, folder, object string, expire time.Duration) (string, error) {
	key := ObjectKey(folder, object)
	req, err := b.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.name),
		Key:         aws.String(key),
		ContentType: aws.String(UploadContentType),
	}, s3.WithPresignExpires(expire))
	if err != nil {
		return "", appErrors.NewExternalError("s3", err).
			WithDetails(map[string]interface{}{"key": key, "operation": "PresignPutObject"})
	}

	b.logger.Debug("Presigned upload", zap.String("key", key), zap.Duration("expire", expire))
	return req.URL, nil
}

// GetURL presigns a download of folder/object valid for expire.
func (b *Bucket) GetURL(ctx context.Context, folder, object string, expire time.Duration) (string, error) {
	key := ObjectKey(folder, object)
	req, err := b.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expire))
	if err != nil {
		return "", appErrors.NewExternalError("s3", err).
			WithDetails(map[string]interface{}{"key": key, "operation": "PresignGetObject"})
	}
	return req.URL, nil
}

// Content downloads folder/object and returns it as text.
func (b *Bucket) Content(ctx context.Context, folder, object string) (string, error) {
	if b.reader == nil {
		return "", fmt.Errorf("bucket %s has no object reader", b.name)
	}

	key := ObjectKey(folder, object)
	out, err := b.reader.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", appErrors.NewExternalError("s3", err).
			WithDetails(map[string]interface{}{"key": key, "operation": "GetObject"})
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), nil
}
