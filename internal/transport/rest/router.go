package rest

import (
	"net/http"
	"os"

	"healthsurveys/internal/repository"
	"healthsurveys/internal/service"
	"healthsurveys/internal/transport/rest/handler"
	"healthsurveys/internal/transport/rest/middleware"
	"healthsurveys/internal/transport/ws"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService       *service.AuthService
	SurveyService     *service.SurveyService
	FormService       *service.FormService
	LocationService   *service.LocationService
	MappingService    *service.MappingService
	SubmissionService *service.SubmissionService
	SyncService       *service.SyncService
	InstanceRepo      repository.InstanceRepo
	WSHub             *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	surveyHandler := handler.NewSurveyHandler(c.SurveyService)
	formHandler := handler.NewFormHandler(c.FormService)
	locationHandler := handler.NewLocationHandler(c.LocationService)
	mappingHandler := handler.NewMappingHandler(c.MappingService)
	submissionHandler := handler.NewSubmissionHandler(c.SubmissionService)
	syncHandler := handler.NewSyncHandler(c.SyncService)
	instanceHandler := handler.NewInstanceHandler(c.InstanceRepo)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// Form session routes (public: respondents are anonymous)
	v1.HandleFunc("/surveys/{surveyId}/sessions", formHandler.StartSession).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/page", formHandler.GetPage).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/answers", formHandler.SaveAnswers).Methods("PUT", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/facility", formHandler.SelectFacility).Methods("PUT", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/next", formHandler.Next).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/back", formHandler.Back).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/submit", formHandler.Submit).Methods("POST", "OPTIONS")
	v1.HandleFunc("/surveys/{surveyId}/tracker-submissions", submissionHandler.CreateTracker).Methods("POST", "OPTIONS")

	// Facility hierarchy routes (public: the picker runs pre-auth)
	v1.HandleFunc("/locations", locationHandler.List).Methods("GET", "OPTIONS")
	v1.HandleFunc("/locations/{locationId}/path", locationHandler.Path).Methods("GET", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/sync/{jobId}", wsHandler.SyncWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Admin routes (require admin auth)
	adminRoutes := v1.NewRoute().Subrouter()
	adminRoutes.Use(authMW.RequireAdmin)

	adminRoutes.HandleFunc("/surveys", surveyHandler.Create).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/surveys", surveyHandler.List).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/surveys/{surveyId}", surveyHandler.Get).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/surveys/{surveyId}", surveyHandler.Update).Methods("PUT", "OPTIONS")
	adminRoutes.HandleFunc("/surveys/{surveyId}", surveyHandler.Delete).Methods("DELETE", "OPTIONS")

	adminRoutes.HandleFunc("/questions", surveyHandler.CreateQuestion).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/questions", surveyHandler.ListQuestions).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/questions/{questionId}", surveyHandler.UpdateQuestion).Methods("PUT", "OPTIONS")
	adminRoutes.HandleFunc("/questions/{questionId}", surveyHandler.DeleteQuestion).Methods("DELETE", "OPTIONS")
	adminRoutes.HandleFunc("/optionsets", surveyHandler.CreateOptionSet).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/optionsets", surveyHandler.ListOptionSets).Methods("GET", "OPTIONS")

	// Submission routes (admin only)
	adminRoutes.HandleFunc("/surveys/{surveyId}/submissions", submissionHandler.List).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/surveys/{surveyId}/submissions/count", submissionHandler.Count).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/submissions/{uid}", submissionHandler.Get).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/submissions/{uid}", submissionHandler.Delete).Methods("DELETE", "OPTIONS")

	// DHIS2 instance routes (admin only)
	adminRoutes.HandleFunc("/instances", instanceHandler.Create).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/instances", instanceHandler.List).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/instances/{instanceKey}", instanceHandler.Update).Methods("PUT", "OPTIONS")
	adminRoutes.HandleFunc("/instances/{instanceKey}", instanceHandler.Delete).Methods("DELETE", "OPTIONS")
	adminRoutes.HandleFunc("/instances/{instanceKey}/locations/refresh", locationHandler.Refresh).Methods("POST", "OPTIONS")

	// Mapping routes (admin only)
	adminRoutes.HandleFunc("/instances/{instanceKey}/programs", mappingHandler.ListPrograms).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/instances/{instanceKey}/datasets", mappingHandler.ListDataSets).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/instances/{instanceKey}/elements", mappingHandler.ListElements).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/questions/{questionId}/mapping", mappingHandler.SaveMapping).Methods("PUT", "OPTIONS")
	adminRoutes.HandleFunc("/mappings", mappingHandler.SaveBulkMapping).Methods("PUT", "OPTIONS")
	adminRoutes.HandleFunc("/optionsets/{optionSetId}/translations", mappingHandler.SaveOptionTranslations).Methods("PUT", "OPTIONS")

	// Sync routes (admin only)
	adminRoutes.HandleFunc("/sync/imports", syncHandler.StartImport).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/sync/imports/{jobId}", syncHandler.Status).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
