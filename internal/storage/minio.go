package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var Client *minio.Client
var BucketName string

// Init configures the MinIO client for storing uploaded invoice documents.
// Like the database this is optional: without it, documents are processed
// but not retained.
func Init() error {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "minio:9000"
	}

	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")
	if accessKey == "" || secretKey == "" {
		return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY not configured")
	}

	BucketName = os.Getenv("MINIO_BUCKET")
	if BucketName == "" {
		BucketName = "rent-invoices"
	}

	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	var err error
	Client, err = minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := Client.BucketExists(ctx, BucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", BucketName)
	}

	return nil
}

// UploadDocument stores an uploaded invoice document under YYYY/MM/{filename}
// and returns the object path for the database row.
func UploadDocument(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	now := time.Now()
	objectName := fmt.Sprintf("%d/%02d/%s", now.Year(), now.Month(), filename)

	_, err := Client.PutObject(ctx, BucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload document: %w", err)
	}

	return fmt.Sprintf("%s/%s", BucketName, objectName), nil
}

// GetPresignedURL generates a presigned URL for viewing a stored document
func GetPresignedURL(ctx context.Context, objectPath string) (string, error) {
	objectName := trimBucketPrefix(objectPath)

	url, err := Client.PresignedGetObject(ctx, BucketName, objectName, 24*time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}

// DeleteDocument removes a stored document
func DeleteDocument(ctx context.Context, objectPath string) error {
	return Client.RemoveObject(ctx, BucketName, trimBucketPrefix(objectPath), minio.RemoveObjectOptions{})
}

func trimBucketPrefix(objectPath string) string {
	prefix := BucketName + "/"
	if len(objectPath) > len(prefix) && objectPath[:len(prefix)] == prefix {
		return objectPath[len(prefix):]
	}
	return objectPath
}

// GetFileExtension extracts file extension from content type
func GetFileExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	default:
		return ".bin"
	}
}
