package routes

import (
	"circloth_server/controllers"
	"circloth_server/metrics"
	"circloth_server/services"

	"github.com/gorilla/mux"
)

// Services bundles everything the HTTP layer calls into. Upload may be nil
// when no photo bucket is configured.
type Services struct {
	Match   *services.MatchService
	Action  *services.ActionService
	Catalog *services.CatalogService
	User    *services.UserService
	Chat    *services.ChatService
	Upload  *services.UploadService
}

// RegisterRoutes sets up the service-level routes for the application
func RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", controllers.HealthCheckHandler).Methods("GET")
	r.HandleFunc("/", controllers.WelcomeHandler).Methods("GET")
	r.HandleFunc("/privacy-policy", PrivacyPolicyHandler).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")
}

// NewRouter builds the full API router. limiter throttles POST /action and
// may be nil.
func NewRouter(svc Services, limiter *ActionLimiter) *mux.Router {
	r := mux.NewRouter()
	r.Use(Logging)

	RegisterRoutes(r)
	RegisterMatchRoutes(r, svc.Match)
	RegisterActionRoutes(r, svc.Action, limiter)
	RegisterItemRoutes(r, svc.Catalog)
	RegisterUserProfileRoutes(r, svc.User)
	RegisterChatRoutes(r, svc.Chat)
	if svc.Upload != nil {
		RegisterS3Routes(r, svc.Upload)
	}
	return r
}
