package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ekyc.backend/internal/config"
	domaincollab "ekyc.backend/internal/domain/collaborators"
	"ekyc.backend/internal/infrastructure/collaborators"
	"ekyc.backend/internal/infrastructure/events"
	"ekyc.backend/internal/infrastructure/jobs"
	"ekyc.backend/internal/infrastructure/repositories"
	"ekyc.backend/internal/interfaces/http/handlers"
	"ekyc.backend/internal/interfaces/http/middleware"
	"ekyc.backend/internal/usecases"
	"ekyc.backend/pkg/jwt"
	"ekyc.backend/pkg/logger"
	"ekyc.backend/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	runServer = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB  = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	// Load .env file
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := loadCfg()

	// Initialize Logger
	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	// Initialize Redis
	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(context.Background(), "Redis initialized")

	// Set Gin mode
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database using GORM
	dsn := cfg.Database.URL()
	db, err := openDB(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Printf("⚠️ Database not available: %v (endpoints will return errors)", err)
	} else {
		log.Println("✅ Connected to PostgreSQL via GORM")
	}

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry)

	// Initialize repositories
	kycRepo := repositories.NewKYCRepository(db)
	applicationRepo := repositories.NewCreditApplicationRepository(db)

	// Initialize event publisher
	var publisher events.Publisher
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	} else {
		publisher = events.NewNoopPublisher()
	}
	defer publisher.Close()

	// Initialize collaborators
	documentClient := collaborators.NewDocumentClient(cfg.Services.DocumentServiceURL, cfg.Services.Timeout)
	profileClient := collaborators.NewUserProfileClient(cfg.Services.UserServiceURL, cfg.Services.Timeout)
	smsSender := collaborators.NewSimulatedSMSSender()
	var faceMatcher domaincollab.FaceMatcher = collaborators.NewSimulatedFaceMatcher(nil)
	if cfg.Services.FaceMatchServiceURL != "" {
		faceMatcher = collaborators.NewFaceMatchClient(cfg.Services.FaceMatchServiceURL, cfg.Services.Timeout)
	}
	nfcVerifier := collaborators.NewSimulatedNFCVerifier(nil)
	bankConnector := collaborators.NewSimulatedBankConnector(nil)

	// Initialize usecases
	locker := redis.NewLocker()
	riskScorer := usecases.NewRiskScorer(documentClient)
	financialScoring := usecases.NewFinancialScoringService()
	businessScoring := usecases.NewBusinessScoringService()
	kycUsecase := usecases.NewKYCUsecase(kycRepo, locker, riskScorer, profileClient, publisher)
	identityUsecase := usecases.NewIdentityUsecase(kycRepo, documentClient, faceMatcher, nfcVerifier, publisher)
	phoneUsecase := usecases.NewPhoneUsecase(kycRepo, smsSender, profileClient, publisher)
	applicationUsecase := usecases.NewCreditApplicationUsecase(
		applicationRepo, kycRepo, profileClient, bankConnector,
		financialScoring, businessScoring, kycUsecase, locker, publisher,
	)
	scoringUsecase := usecases.NewScoringUsecase(profileClient, financialScoring, businessScoring)

	// Initialize handlers
	kycHandler := handlers.NewKYCHandler(kycUsecase, identityUsecase, phoneUsecase)
	applicationHandler := handlers.NewApplicationHandler(applicationUsecase)
	scoringHandler := handlers.NewScoringHandler(scoringUsecase)

	// Start background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kycExpiryJob := jobs.NewKYCExpiryJob(kycRepo, cfg.Jobs.KYCExpiryInterval)
	applicationExpiryJob := jobs.NewApplicationExpiryJob(applicationRepo, cfg.Jobs.ApplicationExpiryInterval)
	go kycExpiryJob.Start(ctx)
	go applicationExpiryJob.Start(ctx)

	// Initialize router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerMetricsRoute(r)
	registerAPIV1Routes(r, routeDeps{
		kycHandler:         kycHandler,
		applicationHandler: applicationHandler,
		scoringHandler:     scoringHandler,
		authMiddleware:     middleware.AuthMiddleware(jwtService),
	})

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("🛑 Shutting down server...")
		kycExpiryJob.Stop()
		applicationExpiryJob.Stop()
		cancel()
	}()

	// Start server
	log.Printf("🚀 eKYC Backend starting on port %s", cfg.Server.Port)
	log.Printf("📚 API: http://localhost:%s/api/v1", cfg.Server.Port)
	log.Printf("❤️ Health: http://localhost:%s/health", cfg.Server.Port)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
