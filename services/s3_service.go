package services

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// PresignExpiry is how long a presigned photo URL stays valid
const PresignExpiry = 5 * time.Minute

// UploadService hands out presigned S3 URLs for item photos
type UploadService struct {
	Presigner *s3.PresignClient
	Bucket    string
	Clock     Clock
}

// NewUploadService builds the presigner from the default AWS credential chain
func NewUploadService(ctx context.Context, region, endpoint, bucket string) (*UploadService, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &UploadService{Presigner: s3.NewPresignClient(client), Bucket: bucket}, nil
}

// GenerateUploadURL generates a presigned URL for uploading a photo and
// returns it with the object key the photo will live under.
func (s *UploadService) GenerateUploadURL(ctx context.Context, fileName, fileType string) (string, string, error) {
	if fileName == "" || fileType == "" {
		return "", "", fmt.Errorf("%w: fileName and fileType are required", ErrInvalidInput)
	}

	key := "item-photos/" + s.Clock.now().Format("20060102150405") + "-" + uuid.NewString()[:8] + "-" + path.Base(fileName)
	req, err := s.Presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(fileType),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", "", fmt.Errorf("failed to presign upload: %w", err)
	}
	return req.URL, key, nil
}

// GenerateReadURL generates a presigned URL for reading a photo
func (s *UploadService) GenerateReadURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: key is required", ErrInvalidInput)
	}

	req, err := s.Presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign read: %w", err)
	}
	return req.URL, nil
}
