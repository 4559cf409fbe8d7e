package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"healthsurveys/internal/cache"
	"healthsurveys/internal/config"
	"healthsurveys/internal/repository"
	"healthsurveys/internal/service"
	"healthsurveys/internal/transport/rest"
	"healthsurveys/internal/transport/ws"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// @title Health Surveys API
// @version 1.0
// @description Survey administration with DHIS2 metadata mapping and import
// @host localhost:8080
// @BasePath /v1
func main() {
	log.Println("started")
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}
	cfg := config.Load()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	redisAddr := strings.TrimPrefix(cfg.RedisURI, "redis://")
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories
	surveyRepo := repository.NewSurveyRepo(db)
	questionRepo := repository.NewQuestionRepo(db)
	optionSetRepo := repository.NewOptionSetRepo(db)
	locationRepo := repository.NewLocationRepo(db)
	mappingRepo := repository.NewMappingRepo(db)
	submissionRepo := repository.NewSubmissionRepo(db)
	instanceRepo := repository.NewInstanceRepo(db)
	syncJobRepo := repository.NewSyncJobRepo(db)

	// Initialize caches
	locationCache := cache.NewLocationCache(rdb)
	metadataCache := cache.NewMetadataCache(rdb)
	sessionCache := cache.NewSessionCache(rdb)

	// Initialize services
	dhis2Client := service.NewDHIS2Client()
	authSvc := service.NewAuthService(cfg)
	surveySvc := service.NewSurveyService(surveyRepo, questionRepo, optionSetRepo, submissionRepo)
	locationSvc := service.NewLocationService(locationRepo, locationCache, dhis2Client, instanceRepo)
	submissionSvc := service.NewSubmissionService(submissionRepo)
	formSvc := service.NewFormService(surveySvc, locationSvc, submissionSvc, sessionCache)
	mappingSvc := service.NewMappingService(dhis2Client, instanceRepo, mappingRepo, questionRepo, surveyRepo, metadataCache)
	syncSvc := service.NewSyncService(syncJobRepo, dhis2Client, instanceRepo, questionRepo, optionSetRepo, mappingRepo)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	syncSvc.SetBroadcaster(wsHub)

	// Create router with container
	container := &rest.Container{
		AuthService:       authSvc,
		SurveyService:     surveySvc,
		FormService:       formSvc,
		LocationService:   locationSvc,
		MappingService:    mappingSvc,
		SubmissionService: submissionSvc,
		SyncService:       syncSvc,
		InstanceRepo:      instanceRepo,
		WSHub:             wsHub,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/login")
		log.Println("  POST/GET /v1/surveys")
		log.Println("  POST /v1/surveys/{surveyId}/sessions")
		log.Println("  GET  /v1/locations")
		log.Println("  GET  /v1/instances/{instanceKey}/elements")
		log.Println("  POST /v1/sync/imports")
		log.Println("  WS   /v1/ws/sync/{jobId}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
