package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUploadService() *UploadService {
	client := s3.New(s3.Options{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
	})
	return &UploadService{
		Presigner: s3.NewPresignClient(client),
		Bucket:    "circloth-photos",
		Clock:     func() time.Time { return t0 },
	}
}

func TestGenerateUploadURL(t *testing.T) {
	svc := newTestUploadService()

	url, key, err := svc.GenerateUploadURL(context.Background(), "camera/jacket.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "item-photos/20240501120000-"), key)
	assert.True(t, strings.HasSuffix(key, "-jacket.jpg"), key)
	assert.Contains(t, url, "circloth-photos")
	assert.Contains(t, url, key)
	assert.Contains(t, url, "X-Amz-Expires=300")
	assert.Contains(t, url, "X-Amz-Signature=")

	_, _, err = svc.GenerateUploadURL(context.Background(), "", "image/jpeg")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGenerateReadURL(t *testing.T) {
	svc := newTestUploadService()

	url, err := svc.GenerateReadURL(context.Background(), "item-photos/abc.jpg")
	require.NoError(t, err)
	assert.Contains(t, url, "item-photos/abc.jpg")
	assert.Contains(t, url, "X-Amz-Signature=")

	_, err = svc.GenerateReadURL(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
