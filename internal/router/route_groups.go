package router

import (
	"cafeshift_backend/internal/handlers"
	"cafeshift_backend/internal/middleware"
	"cafeshift_backend/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupPublicAuthRoutes sets up registration and login.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/register", authHandler.SignUp)
	group.POST("/login", authHandler.Login)
}

// SetupAuthenticatedAuthRoutes sets up the profile routes.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetCurrentUser)
}

// SetupFileRoutes sets up the upload endpoint used for payment proofs, CVs
// and avatars.
func SetupFileRoutes(authenticatedGroup *gin.RouterGroup, fileHandler *handlers.FileHandler) {
	authenticatedGroup.POST("/files", fileHandler.Upload)
}

// SetupShiftRoutes sets up the shift lifecycle routes. Reads are open to all
// approved roles; cafe-side transitions are gated to cafes and admins,
// employee-side ones to employees.
func SetupShiftRoutes(approvedGroup *gin.RouterGroup, shiftHandler *handlers.ShiftHandler, appHandler *handlers.ApplicationHandler) {
	shiftRoutes := approvedGroup.Group("/shifts")
	{
		shiftRoutes.GET("", shiftHandler.GetShifts)
		shiftRoutes.GET("/:id", shiftHandler.GetShift)

		cafeRoutes := shiftRoutes.Group("")
		cafeRoutes.Use(middleware.RoleAuthMiddleware(models.RoleCafe, models.RoleAdmin))
		{
			cafeRoutes.POST("", shiftHandler.CreateShift)
			cafeRoutes.PUT("/:id", shiftHandler.UpdateShift)
			cafeRoutes.POST("/:id/cancel", shiftHandler.CancelShift)
			cafeRoutes.POST("/:id/pause", shiftHandler.PauseShift)
			cafeRoutes.POST("/:id/complete", shiftHandler.CompleteShift)
			cafeRoutes.POST("/:id/reject/:employeeId", shiftHandler.RejectEmployee)
			cafeRoutes.DELETE("/:id", shiftHandler.DeleteShift)
		}

		employeeRoutes := shiftRoutes.Group("")
		employeeRoutes.Use(middleware.RoleAuthMiddleware(models.RoleEmployee))
		{
			employeeRoutes.POST("/:id/claim", shiftHandler.ClaimShift)
			employeeRoutes.POST("/:id/withdraw", shiftHandler.WithdrawFromShift)
			employeeRoutes.POST("/:id/apply", appHandler.Apply)
		}
	}
}

// SetupApplicationRoutes sets up the application review routes.
func SetupApplicationRoutes(approvedGroup *gin.RouterGroup, appHandler *handlers.ApplicationHandler) {
	appRoutes := approvedGroup.Group("/applications")
	{
		appRoutes.GET("", appHandler.GetApplications)
		appRoutes.GET("/:id", appHandler.GetApplication)

		employeeRoutes := appRoutes.Group("")
		employeeRoutes.Use(middleware.RoleAuthMiddleware(models.RoleEmployee))
		{
			employeeRoutes.POST("/:id/withdraw", appHandler.Withdraw)
		}

		cafeRoutes := appRoutes.Group("")
		cafeRoutes.Use(middleware.RoleAuthMiddleware(models.RoleCafe, models.RoleAdmin))
		{
			cafeRoutes.POST("/:id/accept", appHandler.Accept)
			cafeRoutes.POST("/:id/reject", appHandler.Reject)
		}
	}
}

// SetupInvoiceRoutes sets up the cafe-facing invoice routes. Admin-side
// verification lives under /admin.
func SetupInvoiceRoutes(approvedGroup *gin.RouterGroup, invoiceHandler *handlers.InvoiceHandler) {
	invoiceRoutes := approvedGroup.Group("/invoices")
	invoiceRoutes.Use(middleware.RoleAuthMiddleware(models.RoleCafe, models.RoleAdmin))
	{
		invoiceRoutes.GET("", invoiceHandler.GetInvoices)
		invoiceRoutes.GET("/:id", invoiceHandler.GetInvoice)
		invoiceRoutes.GET("/:id/pdf", invoiceHandler.DownloadPDF)
		invoiceRoutes.POST("/:id/proof", invoiceHandler.SubmitProof)
	}

	shiftInvoiceRoutes := approvedGroup.Group("/shifts")
	shiftInvoiceRoutes.Use(middleware.RoleAuthMiddleware(models.RoleCafe, models.RoleAdmin))
	{
		shiftInvoiceRoutes.POST("/:id/invoice", invoiceHandler.GenerateInvoice)
	}
}

// SetupPaymentRoutes sets up the employee earnings view.
func SetupPaymentRoutes(approvedGroup *gin.RouterGroup, paymentHandler *handlers.PaymentHandler) {
	paymentRoutes := approvedGroup.Group("/earnings")
	paymentRoutes.Use(middleware.RoleAuthMiddleware(models.RoleEmployee))
	{
		paymentRoutes.GET("", paymentHandler.GetMyWeeklyEarnings)
	}
}

// SetupAdminRoutes sets up moderation, invoice verification, reconciliation
// and platform settings.
func SetupAdminRoutes(
	authenticatedGroup *gin.RouterGroup,
	authHandler *handlers.AuthHandler,
	shiftHandler *handlers.ShiftHandler,
	invoiceHandler *handlers.InvoiceHandler,
	paymentHandler *handlers.PaymentHandler,
	configHandler *handlers.ConfigHandler,
) {
	adminRoutes := authenticatedGroup.Group("/admin")
	adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		adminRoutes.PATCH("/users/:id/approval", authHandler.SetApproval)
		adminRoutes.POST("/shifts/:id/approve", shiftHandler.ApproveShift)

		adminRoutes.POST("/invoices/:id/approve", invoiceHandler.ApproveInvoice)
		adminRoutes.POST("/invoices/:id/mark-paid", invoiceHandler.MarkPaid)
		adminRoutes.POST("/invoices/:id/reject-proof", invoiceHandler.RejectProof)

		adminRoutes.GET("/earnings", paymentHandler.GetWeeklyEarnings)
		adminRoutes.POST("/payments/:employeeId/mark-paid", paymentHandler.MarkWeekPaid)

		adminRoutes.GET("/config", configHandler.GetPlatformConfig)
		adminRoutes.GET("/settings", configHandler.GetSettings)
		adminRoutes.GET("/settings/:key", configHandler.GetSetting)
		adminRoutes.PUT("/settings", configHandler.UpsertSetting)
		adminRoutes.DELETE("/settings/:key", configHandler.DeleteSetting)
	}
}
