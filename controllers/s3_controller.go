package controllers

import (
	"net/http"

	"circloth_server/logger"
	"circloth_server/services"

	"go.uber.org/zap"
)

// S3Controller hands out presigned URLs for item photos
type S3Controller struct {
	UploadService *services.UploadService
}

// NewS3Controller creates a new S3Controller instance
func NewS3Controller(uploadService *services.UploadService) *S3Controller {
	return &S3Controller{UploadService: uploadService}
}

// GeneratePresignedURL generates a presigned URL for S3 uploads
func (c *S3Controller) GeneratePresignedURL(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		FileName string `json:"fileName"`
		FileType string `json:"fileType"`
	}
	if !decode(w, r, &payload) {
		return
	}

	url, fileName, err := c.UploadService.GenerateUploadURL(r.Context(), payload.FileName, payload.FileType)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.Debug("generated upload URL", zap.String("fileName", fileName))
	writeJSON(w, http.StatusOK, map[string]string{"url": url, "fileName": fileName})
}

// GetPresignedReadURL generates a presigned URL for reading S3 objects
func (c *S3Controller) GetPresignedReadURL(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Key string `json:"key"`
	}
	if !decode(w, r, &payload) {
		return
	}

	url, err := c.UploadService.GenerateReadURL(r.Context(), payload.Key)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
