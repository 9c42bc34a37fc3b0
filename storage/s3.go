package storage

import (
	"bytes"
	"fmt"
	"freshersparty_go/config"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

type StorageService struct {
	s3Client *s3.S3
	bucket   string
}

// NewStorageService creates a new storage service
func NewStorageService() (*StorageService, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AppConfig.AWSRegion),
		Credentials: credentials.NewStaticCredentials(
			config.AppConfig.AWSAccessKeyID,
			config.AppConfig.AWSSecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %v", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		bucket:   config.AppConfig.S3BucketName,
	}, nil
}

// ValidateImageUpload checks type and size before anything touches the
// network: the content must sniff as an image and fit the configured limit.
func ValidateImageUpload(fileBytes []byte, maxSize int64) error {
	if int64(len(fileBytes)) > maxSize {
		return fmt.Errorf("file too large: %d bytes (max %d)", len(fileBytes), maxSize)
	}
	contentType := http.DetectContentType(fileBytes)
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("unsupported file type %s: only images are accepted", contentType)
	}
	return nil
}

// UploadScreenshot validates and uploads a payment screenshot, returning the
// durable public URL.
func (s *StorageService) UploadScreenshot(file *multipart.FileHeader, userID uint) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %v", err)
	}
	defer src.Close()

	fileBytes, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %v", err)
	}

	if err := ValidateImageUpload(fileBytes, config.AppConfig.MaxScreenshotSize); err != nil {
		return "", err
	}

	contentType := http.DetectContentType(fileBytes)
	return s.putObject(fileBytes, "payment-screenshots", userID, contentType)
}

// UploadImage uploads an already-validated image under the given folder.
func (s *StorageService) UploadImage(fileBytes []byte, folder string, userID uint) (string, error) {
	if err := ValidateImageUpload(fileBytes, config.AppConfig.MaxScreenshotSize); err != nil {
		return "", err
	}
	return s.putObject(fileBytes, folder, userID, http.DetectContentType(fileBytes))
}

func (s *StorageService) putObject(fileBytes []byte, folder string, userID uint, contentType string) (string, error) {
	now := time.Now()
	randomID := uuid.New().String()[:16]
	key := fmt.Sprintf("%s/%d/%d/%02d/%02d/%s.%s",
		folder,
		userID,
		now.Year(),
		now.Month(),
		now.Day(),
		randomID,
		extensionFor(contentType),
	)

	_, err := s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(fileBytes),
		ContentType: aws.String(contentType),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %v", err)
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.bucket,
		config.AppConfig.AWSRegion,
		key,
	)
	return url, nil
}

// DeleteFile deletes a file from S3
func (s *StorageService) DeleteFile(fileURL string) error {
	key := s.extractKeyFromURL(fileURL)
	if key == "" {
		return fmt.Errorf("invalid file URL")
	}

	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	return err
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "bin"
	}
}

// extractKeyFromURL extracts the S3 key from a full URL
func (s *StorageService) extractKeyFromURL(url string) string {
	// Example URL: https://bucket.s3.region.amazonaws.com/path/to/file.ext
	parts := strings.Split(url, ".amazonaws.com/")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}
