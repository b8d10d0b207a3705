package handlers

import (
	"errors"
	"net/http"

	"cafeshift_backend/internal/models"
	"cafeshift_backend/internal/services"
	"cafeshift_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ShiftHandler holds the shift lifecycle service.
type ShiftHandler struct {
	shiftService services.ShiftService
}

// NewShiftHandler creates a new ShiftHandler.
func NewShiftHandler(ss services.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftService: ss}
}

// mapShiftError translates shift service sentinels into API errors. Anything
// unrecognized is reported as an internal error without leaking details.
func mapShiftError(err error) *utils.APIError {
	switch {
	case errors.Is(err, services.ErrShiftNotFound):
		return utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Shift not found.", err.Error())
	case errors.Is(err, services.ErrShiftValidation),
		errors.Is(err, services.ErrRateBelowFloor),
		errors.Is(err, services.ErrPaymentProofRequired):
		return utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid shift data.", err.Error())
	case errors.Is(err, services.ErrShiftLeadTime),
		errors.Is(err, services.ErrCancelWindowClosed),
		errors.Is(err, services.ErrPaymentWindowExpired):
		return utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeWindowExpired, "Action is outside its allowed time window.", err.Error())
	case errors.Is(err, services.ErrNotShiftOwner),
		errors.Is(err, services.ErrEmployeeBlocked),
		errors.Is(err, services.ErrNotInvited):
		return utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "You are not allowed to perform this action on this shift.", err.Error())
	case errors.Is(err, services.ErrShiftNotOpen),
		errors.Is(err, services.ErrShiftFull),
		errors.Is(err, services.ErrAlreadyAccepted),
		errors.Is(err, services.ErrScheduleConflict),
		errors.Is(err, services.ErrShiftNotEditable),
		errors.Is(err, services.ErrShiftTerminal),
		errors.Is(err, services.ErrShiftNotEnded),
		errors.Is(err, services.ErrEmployeeNotAccepted),
		errors.Is(err, services.ErrHeadcountBelowAccepted),
		errors.Is(err, services.ErrManualCompletionDisabled):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Shift state does not allow this action.", err.Error())
	default:
		return utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Shift operation failed.", "Internal error")
	}
}

// CreateShift posts a new shift for the calling cafe.
func (h *ShiftHandler) CreateShift(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateShift: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	if !utils.IsValidDate(req.Date) || !utils.IsValidTimeOfDay(req.StartTime) || !utils.IsValidTimeOfDay(req.EndTime) {
		utils.RespondValidationFailed(c, "date must be YYYY-MM-DD and times must be HH:MM")
		return
	}

	shift, err := h.shiftService.CreateShift(actor.ID, req)
	if err != nil {
		utils.LogError(err, "CreateShift: Error from shiftService.CreateShift")
		utils.RespondWithError(c, mapShiftError(err))
		return
	}
	c.JSON(http.StatusCreated, shift)
}

// GetShift returns one shift.
func (h *ShiftHandler) GetShift(c *gin.Context) {
	shiftID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	shift, err := h.shiftService.GetShiftByID(shiftID)
	if err != nil {
		utils.RespondWithError(c, mapShiftError(err))
		return
	}
	c.JSON(http.StatusOK, shift)
}

// GetShifts lists shifts with optional filters and pagination.
func (h *ShiftHandler) GetShifts(c *gin.Context) {
	filters := models.ShiftFilters{
		CafeID:     queryInt64(c, "cafe_id"),
		EmployeeID: queryInt64(c, "employee_id"),
		Status:     queryString(c, "status"),
		DateFrom:   queryString(c, "date_from"),
		DateTo:     queryString(c, "date_to"),
		Page:       queryIntDefault(c, "page", 1),
		PageSize:   queryIntDefault(c, "page_size", 20),
	}

	shifts, totalCount, err := h.shiftService.GetShifts(filters)
	if err != nil {
		utils.LogError(err, "GetShifts: Error from shiftService.GetShifts")
		utils.RespondWithError(c, mapShiftError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      shifts,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// UpdateShift edits a pending or open shift.
func (h *ShiftHandler) UpdateShift(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	shiftID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, "Invalid request payload: "+err.Error())
		return
	}

	shift, err := h.shiftService.UpdateShift(actor, shiftID, req)
	if err != nil {
		utils.LogError(err, "UpdateShift: Error from shiftService.UpdateShift")
		utils.RespondWithError(c, mapShiftError(err))
		return
	}
	c.JSON(http.StatusOK, shift)
}

// ApproveShift is the admin moderation gate: pending_approval -> open, with
// an optional employee-side rate.
func (h *ShiftHandler) ApproveShift(c *gin.Context) {
	shiftID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		EmployeeRate *float64 `json:"employee_rate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.RespondValidationFailed(c, "Invalid request payload: "+err.Error())
		return
	}

	shift, err := h.shiftService.ApproveShift(shiftID, req.EmployeeRate)
	if err != nil {
		utils.LogError(err, "ApproveShift: Error from shiftService.ApproveShift")
		utils.RespondWithError(c, mapShiftError(err))
		return
	}
	c.JSON(http.StatusOK, shift)
}

// ClaimShift lets an approved employee take an open shift directly.
func (h *ShiftHandler) ClaimShift(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	shiftID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	shift, err := h.shiftService.ClaimShift(actor.ID, shiftID)
	if err != nil {
		utils.LogError(err, "ClaimShift: Error from shiftService.ClaimShift")
		utils.RespondWithError(c, mapShiftError(err))
		return
	}
	c.JSON(http.StatusOK, shift)
}

// WithdrawFromShift lets an accepted employee leave a shift.
func (h *ShiftHandler) WithdrawFromShift(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	shiftID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	shift, err := h.shiftService.WithdrawEmployee(actor.ID, shiftID)
	if err != nil {
		utils.LogError(err, "WithdrawFromShift: Error from shiftService.WithdrawEmployee")
		utils.RespondWithError(c, mapShiftError(err))
		return
	}
	c.JSON(http.StatusOK, shift)
}

// RejectEmployee lets the cafe remove an accepted employee; the employee is
// blocked from re-claiming this shift.
func (h *ShiftHandler) RejectEmployee(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	shiftID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	employeeID, ok := parseIDParam(c, "employeeId")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.RespondValidationFailed(c, "Invalid request payload: "+err.Error())
		return
	}

	shift, err := h.shiftService.RejectEmployee(actor, shiftID, employeeID, req.Reason)
	if err != nil {
		utils.LogError(err, "RejectEmployee: Error from shiftService.RejectEmployee")
		utils.RespondWithError(c, mapShiftError(err))
		return
	}
	c.JSON(http.StatusOK, shift)
}

// CancelShift cancels an open or accepted shift outside the 24h window.
func (h *ShiftHandler) CancelShift(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	shiftID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	shift, err := h.shiftService.CancelShift(actor, shiftID)
	if err != nil {
		utils.LogError(err, "CancelShift: Error from shiftService.CancelShift")
		utils.RespondWithError(c, mapShiftError(err))
		return
	}
	c.JSON(http.StatusOK, shift)
}

// PauseShift takes a shift off the market; late pauses of staffed shifts cost
// the cafe a penalty.
func (h *ShiftHandler) PauseShift(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	shiftID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	shift, err := h.shiftService.PauseShift(actor, shiftID)
	if err != nil {
		utils.LogError(err, "PauseShift: Error from shiftService.PauseShift")
		utils.RespondWithError(c, mapShiftError(err))
		return
	}
	c.JSON(http.StatusOK, shift)
}

// CompleteShift is the manual completion path, only available under postpaid
// invoicing.
func (h *ShiftHandler) CompleteShift(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	shiftID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		PaymentProofRef string `json:"payment_proof_ref" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, "payment_proof_ref is required")
		return
	}

	shift, err := h.shiftService.CompleteShift(actor, shiftID, req.PaymentProofRef)
	if err != nil {
		utils.LogError(err, "CompleteShift: Error from shiftService.CompleteShift")
		utils.RespondWithError(c, mapShiftError(err))
		return
	}
	c.JSON(http.StatusOK, shift)
}

// DeleteShift removes a shift; staffed late deletions carry the cancellation
// penalty.
func (h *ShiftHandler) DeleteShift(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	shiftID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.shiftService.DeleteShift(actor, shiftID); err != nil {
		utils.LogError(err, "DeleteShift: Error from shiftService.DeleteShift")
		utils.RespondWithError(c, mapShiftError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Shift deleted successfully"})
}
