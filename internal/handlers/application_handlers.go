package handlers

import (
	"errors"
	"net/http"

	"cafeshift_backend/internal/models"
	"cafeshift_backend/internal/services"
	"cafeshift_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ApplicationHandler holds the application service.
type ApplicationHandler struct {
	appService services.ApplicationService
}

// NewApplicationHandler creates a new ApplicationHandler.
func NewApplicationHandler(as services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{appService: as}
}

func mapApplicationError(err error) *utils.APIError {
	switch {
	case errors.Is(err, services.ErrApplicationNotFound):
		return utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Application not found.", err.Error())
	case errors.Is(err, services.ErrDuplicateApplication):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "You have already applied to this shift.", err.Error())
	case errors.Is(err, services.ErrApplicationNotPending):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Application has already been reviewed or withdrawn.", err.Error())
	case errors.Is(err, services.ErrNotApplicationOwner):
		return utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Application belongs to another employee.", err.Error())
	default:
		// Accept and Apply surface shift-side errors too.
		return mapShiftError(err)
	}
}

// Apply files an application for an open shift.
func (h *ApplicationHandler) Apply(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	shiftID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	app, err := h.appService.Apply(actor.ID, shiftID)
	if err != nil {
		utils.LogError(err, "Apply: Error from appService.Apply")
		utils.RespondWithError(c, mapApplicationError(err))
		return
	}
	c.JSON(http.StatusCreated, app)
}

// GetApplication returns one application.
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	applicationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	app, err := h.appService.GetApplicationByID(applicationID)
	if err != nil {
		utils.RespondWithError(c, mapApplicationError(err))
		return
	}
	c.JSON(http.StatusOK, app)
}

// GetApplications lists applications. Employees see their own; cafes filter
// by shift.
func (h *ApplicationHandler) GetApplications(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	filters := models.ApplicationFilters{
		ShiftID: queryInt64(c, "shift_id"),
		Status:  queryString(c, "status"),
	}
	if actor.Role == models.RoleEmployee {
		filters.EmployeeID = &actor.ID
	} else {
		filters.EmployeeID = queryInt64(c, "employee_id")
	}

	apps, err := h.appService.GetApplications(filters)
	if err != nil {
		utils.LogError(err, "GetApplications: Error from appService.GetApplications")
		utils.RespondWithError(c, mapApplicationError(err))
		return
	}
	c.JSON(http.StatusOK, apps)
}

// Withdraw retracts the caller's own pending application.
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	applicationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.appService.Withdraw(actor.ID, applicationID); err != nil {
		utils.LogError(err, "Withdraw: Error from appService.Withdraw")
		utils.RespondWithError(c, mapApplicationError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Application withdrawn"})
}

// Accept approves an application; the employee is staffed onto the shift and
// remaining applications are rejected once the headcount is reached.
func (h *ApplicationHandler) Accept(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	applicationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	app, err := h.appService.Accept(actor, applicationID)
	if err != nil {
		utils.LogError(err, "Accept: Error from appService.Accept")
		utils.RespondWithError(c, mapApplicationError(err))
		return
	}
	c.JSON(http.StatusOK, app)
}

// Reject declines a pending application with an optional reason.
func (h *ApplicationHandler) Reject(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	applicationID, ok := parseIDParam(c, "id")
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

	app, err := h.appService.Reject(actor, applicationID, req.Reason)
	if err != nil {
		utils.LogError(err, "Reject: Error from appService.Reject")
		utils.RespondWithError(c, mapApplicationError(err))
		return
	}
	c.JSON(http.StatusOK, app)
}
