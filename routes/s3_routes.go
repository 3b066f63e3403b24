package routes

import (
	"circloth_server/controllers"
	"circloth_server/services"

	"github.com/gorilla/mux"
)

// RegisterS3Routes sets up routes for S3-related operations
func RegisterS3Routes(r *mux.Router, uploadService *services.UploadService) {
	controller := controllers.NewS3Controller(uploadService)

	r.HandleFunc("/generate-presigned-url", controller.GeneratePresignedURL).Methods("POST")
	r.HandleFunc("/get-presigned-read-url", controller.GetPresignedReadURL).Methods("POST")
}
