package handlers

import (
	"errors"
	"net/http"
	"time"

	"cafeshift_backend/internal/services"
	"cafeshift_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// PaymentHandler holds the weekly reconciliation service.
type PaymentHandler struct {
	paymentService services.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(ps services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: ps}
}

func mapPaymentError(err error) *utils.APIError {
	switch {
	case errors.Is(err, services.ErrInvalidWeekStart),
		errors.Is(err, services.ErrPaymentProofRequired):
		return utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid settlement request.", err.Error())
	case errors.Is(err, services.ErrNoEarningsForWeek):
		return utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "No completed shifts for this employee and week.", err.Error())
	case errors.Is(err, services.ErrWeekAlreadyPaid):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Week is already settled for this employee.", err.Error())
	default:
		return utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Payment operation failed.", "Internal error")
	}
}

// earningsRange reads the date_from/date_to query pair, defaulting to the
// last four weeks.
func earningsRange(c *gin.Context) (string, string, bool) {
	dateFrom := c.Query("date_from")
	dateTo := c.Query("date_to")
	if dateFrom == "" {
		dateFrom = time.Now().AddDate(0, 0, -28).Format("2006-01-02")
	}
	if dateTo == "" {
		dateTo = time.Now().Format("2006-01-02")
	}
	if !utils.IsValidDate(dateFrom) || !utils.IsValidDate(dateTo) {
		utils.RespondValidationFailed(c, "date_from and date_to must be YYYY-MM-DD")
		return "", "", false
	}
	return dateFrom, dateTo, true
}

// GetWeeklyEarnings is the admin reconciliation view across all employees.
func (h *PaymentHandler) GetWeeklyEarnings(c *gin.Context) {
	dateFrom, dateTo, ok := earningsRange(c)
	if !ok {
		return
	}

	rows, err := h.paymentService.WeeklyEarnings(dateFrom, dateTo)
	if err != nil {
		utils.LogError(err, "GetWeeklyEarnings: Error from paymentService.WeeklyEarnings")
		utils.RespondWithError(c, mapPaymentError(err))
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GetMyWeeklyEarnings is the employee's own earnings view.
func (h *PaymentHandler) GetMyWeeklyEarnings(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	dateFrom, dateTo, ok := earningsRange(c)
	if !ok {
		return
	}

	rows, err := h.paymentService.EmployeeWeeklyEarnings(actor.ID, dateFrom, dateTo)
	if err != nil {
		utils.LogError(err, "GetMyWeeklyEarnings: Error from paymentService.EmployeeWeeklyEarnings")
		utils.RespondWithError(c, mapPaymentError(err))
		return
	}
	c.JSON(http.StatusOK, rows)
}

// MarkWeekPaid settles one employee-week with a transfer proof (admin).
func (h *PaymentHandler) MarkWeekPaid(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	employeeID, ok := parseIDParam(c, "employeeId")
	if !ok {
		return
	}

	var req struct {
		WeekStart       string `json:"week_start" binding:"required"`
		PaymentProofRef string `json:"payment_proof_ref" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, "week_start and payment_proof_ref are required")
		return
	}

	payment, err := h.paymentService.MarkWeekPaid(actor.ID, employeeID, req.WeekStart, req.PaymentProofRef)
	if err != nil {
		utils.LogError(err, "MarkWeekPaid: Error from paymentService.MarkWeekPaid")
		utils.RespondWithError(c, mapPaymentError(err))
		return
	}
	c.JSON(http.StatusOK, payment)
}
