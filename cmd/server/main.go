package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"cafeshift_backend/internal/database"
	"cafeshift_backend/internal/filestore"
	"cafeshift_backend/internal/middleware"
	"cafeshift_backend/internal/models"
	"cafeshift_backend/internal/notifier"
	"cafeshift_backend/internal/repositories"
	"cafeshift_backend/internal/router"
	"cafeshift_backend/internal/scheduler"
	"cafeshift_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Initialize Logger
	utils.InitLogger()

	// Load database configuration from environment variables
	dbHost := utils.Getenv("DB_HOST", "localhost")
	dbPort := utils.Getenv("DB_PORT", "5432")
	dbUser := utils.Getenv("DB_USER", "cafeshift_user")
	dbPassword := utils.Getenv("DB_PASSWORD", "cafeshift_password")
	dbName := utils.Getenv("DB_NAME", "cafeshift_db")
	dbSSLMode := utils.Getenv("DB_SSLMODE", "disable")
	dbSchemaPath := utils.Getenv("DB_SCHEMA_PATH", "")

	// Initialize Database
	database.InitDB(dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode, dbSchemaPath)
	utils.LogInfo("Database initialized", map[string]interface{}{"configured_from_env": true})

	engine := gin.Default()

	// Add GinLogger middleware for request logging
	engine.Use(utils.GinLogger())

	// Per-IP rate limiting
	rateLimit, err := middleware.RateLimit(utils.Getenv("RATE_LIMIT", "300-M"))
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT value: %v", err)
	}
	engine.Use(rateLimit)

	// CORS configuration
	corsAllowedOriginsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	var allowedOrigins []string
	if corsAllowedOriginsEnv != "" {
		allowedOrigins = strings.Split(corsAllowedOriginsEnv, ",")
	} else {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:3001"}
	}

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowCredentials = true
	engine.Use(cors.New(config))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Upload storage for payment proofs, CVs and avatars
	files, err := filestore.NewDiskStore(utils.Getenv("UPLOAD_DIR", "./uploads"))
	if err != nil {
		log.Fatalf("Failed to initialize upload storage: %v", err)
	}

	// Setup all application routes
	dbConn := database.GetDB()
	shiftRepo, invoiceService := router.Setup(engine, router.Dependencies{
		DB:       dbConn,
		Files:    files,
		Notifier: notifier.NewLogNotifier(),
	})

	// The auto-completion sweeper only runs under upfront invoicing; postpaid
	// deployments complete shifts manually.
	configRepo := repositories.NewConfigRepository(dbConn)
	cfg, err := configRepo.LoadPlatformConfig()
	if err != nil {
		log.Fatalf("Failed to load platform config: %v", err)
	}
	if cfg.InvoicingMode == models.InvoicingModeUpfront {
		var locker scheduler.Locker = scheduler.NewLocalLocker()
		if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
			redisClient := redis.NewClient(&redis.Options{
				Addr:     redisAddr,
				Password: os.Getenv("REDIS_PASSWORD"),
			})
			locker = scheduler.NewRedisLocker(redisClient)
			utils.LogInfo("Sweep lock backed by Redis", map[string]interface{}{"addr": redisAddr})
		}

		sweeper := scheduler.NewSweeper(shiftRepo, invoiceService, locker, dbConn, cfg.SweepInterval)
		if err := sweeper.Start(); err != nil {
			log.Fatalf("Failed to start auto-completion sweeper: %v", err)
		}
		defer sweeper.Stop()
	}

	// Server port configuration
	port := utils.Getenv("PORT", "8080")
	utils.LogInfo("Server starting", map[string]interface{}{"port": port, "configured_from_env": true})

	if err := engine.Run(":" + port); err != nil {
		utils.LogError(err, "Failed to start server")
		log.Fatalf("Failed to start server: %v", err)
	}
}
