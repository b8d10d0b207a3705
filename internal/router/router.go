package router

import (
	"database/sql"

	"cafeshift_backend/internal/filestore"
	"cafeshift_backend/internal/handlers"
	"cafeshift_backend/internal/middleware"
	"cafeshift_backend/internal/notifier"
	"cafeshift_backend/internal/repositories"
	"cafeshift_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Dependencies carries the wiring Setup needs beyond the database handle.
type Dependencies struct {
	DB       *sql.DB
	Files    filestore.Store
	Notifier notifier.Notifier
}

// Setup initializes the routing for the application and returns the shift
// repository and invoice service so main can hand them to the sweeper.
func Setup(engine *gin.Engine, deps Dependencies) (repositories.ShiftRepository, services.InvoiceService) {
	db := deps.DB

	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(db)
	shiftRepo := repositories.NewShiftRepository(db)
	appRepo := repositories.NewApplicationRepository(db)
	invoiceRepo := repositories.NewInvoiceRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	configRepo := repositories.NewConfigRepository(db)

	// Initialize Services
	authService := services.NewAuthService(authRepo, db)
	shiftService := services.NewShiftService(shiftRepo, appRepo, configRepo, deps.Notifier, db)
	appService := services.NewApplicationService(appRepo, shiftService, db)
	invoiceService := services.NewInvoiceService(invoiceRepo, shiftRepo, configRepo, deps.Notifier, db)
	paymentService := services.NewPaymentService(shiftRepo, paymentRepo, deps.Notifier, db)
	configService := services.NewConfigService(configRepo, db)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	shiftHandler := handlers.NewShiftHandler(shiftService)
	appHandler := handlers.NewApplicationHandler(appService)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	configHandler := handlers.NewConfigHandler(configService)
	fileHandler := handlers.NewFileHandler(deps.Files)

	apiV1 := engine.Group("/api/v1")

	// Public routes: registration and login.
	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	// Everything else requires a valid token.
	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupFileRoutes(authenticated, fileHandler)

		// Marketplace actions additionally require an approved account.
		approved := authenticated.Group("")
		approved.Use(middleware.ApprovedOnlyMiddleware())
		{
			SetupShiftRoutes(approved, shiftHandler, appHandler)
			SetupApplicationRoutes(approved, appHandler)
			SetupInvoiceRoutes(approved, invoiceHandler)
			SetupPaymentRoutes(approved, paymentHandler)
		}

		SetupAdminRoutes(authenticated, authHandler, shiftHandler, invoiceHandler, paymentHandler, configHandler)
	}

	return shiftRepo, invoiceService
}
