package services

import (
	"database/sql"
	"errors"
	"fmt"

	"cafeshift_backend/internal/models"
	"cafeshift_backend/internal/repositories"
)

// --- Custom Service Errors for Applications ---
var (
	ErrApplicationNotFound   = errors.New("application not found")
	ErrDuplicateApplication  = errors.New("employee has already applied to this shift")
	ErrApplicationNotPending = errors.New("application is no longer pending")
	ErrNotApplicationOwner   = errors.New("application belongs to another employee")
)

// ShiftFullReason is recorded on applications bulk-rejected because the
// shift's headcount was reached by another acceptance.
const ShiftFullReason = "shift fully staffed"

// --- ApplicationService Interface ---
// The application door to staffing: cafes review applicants instead of
// first-come-first-serve. Accepting goes through the same staffing operation
// as a direct claim, so the headcount invariant has a single owner.
type ApplicationService interface {
	Apply(employeeID, shiftID int64) (*models.Application, error)
	GetApplicationByID(id int64) (*models.Application, error)
	GetApplications(filters models.ApplicationFilters) ([]models.Application, error)
	Withdraw(employeeID, applicationID int64) error
	Accept(actor Actor, applicationID int64) (*models.Application, error)
	Reject(actor Actor, applicationID int64, reason string) (*models.Application, error)
}

type applicationService struct {
	appRepo  repositories.ApplicationRepository
	shiftSvc ShiftService
	db       *sql.DB
}

// NewApplicationService creates a new instance of ApplicationService.
func NewApplicationService(ar repositories.ApplicationRepository, ss ShiftService, db *sql.DB) ApplicationService {
	return &applicationService{appRepo: ar, shiftSvc: ss, db: db}
}

func (s *applicationService) Apply(employeeID, shiftID int64) (*models.Application, error) {
	shift, err := s.shiftSvc.GetShiftByID(shiftID)
	if err != nil {
		return nil, err
	}
	if shift.Status != models.ShiftStatusOpen {
		return nil, fmt.Errorf("%w: status is '%s'", ErrShiftNotOpen, shift.Status)
	}
	if shift.IsBlocked(employeeID) {
		return nil, ErrEmployeeBlocked
	}
	if !shift.IsInvited(employeeID) {
		return nil, ErrNotInvited
	}
	if shift.HasAccepted(employeeID) {
		return nil, ErrAlreadyAccepted
	}

	app := &models.Application{
		ShiftID:    shiftID,
		EmployeeID: employeeID,
		Status:     models.ApplicationStatusPending,
	}
	created, err := s.appRepo.CreateApplication(s.db, app)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrDuplicateApplication
		}
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	return created, nil
}

func (s *applicationService) GetApplicationByID(id int64) (*models.Application, error) {
	app, err := s.appRepo.GetApplicationByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to get application by ID: %w", err)
	}
	return app, nil
}

func (s *applicationService) GetApplications(filters models.ApplicationFilters) ([]models.Application, error) {
	apps, err := s.appRepo.GetApplications(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// Withdraw lets an employee retract their own pending application. Accepted
// applicants leave through the shift's withdrawal path instead, where the
// penalty rules live.
func (s *applicationService) Withdraw(employeeID, applicationID int64) error {
	app, err := s.GetApplicationByID(applicationID)
	if err != nil {
		return err
	}
	if app.EmployeeID != employeeID {
		return ErrNotApplicationOwner
	}
	if app.Status != models.ApplicationStatusPending {
		return fmt.Errorf("%w: status is '%s'", ErrApplicationNotPending, app.Status)
	}

	err = s.appRepo.UpdateApplicationStatus(s.db, applicationID,
		models.ApplicationStatusPending, models.ApplicationStatusWithdrawn, nil, nil)
	if err != nil {
		if errors.Is(err, repositories.ErrConditionFailed) {
			return ErrApplicationNotPending
		}
		return fmt.Errorf("failed to withdraw application: %w", err)
	}
	return nil
}

func (s *applicationService) Accept(actor Actor, applicationID int64) (*models.Application, error) {
	app, err := s.GetApplicationByID(applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationStatusPending {
		return nil, fmt.Errorf("%w: status is '%s'", ErrApplicationNotPending, app.Status)
	}
	shift, err := s.shiftSvc.GetShiftByID(app.ShiftID)
	if err != nil {
		return nil, err
	}
	if !actor.canActFor(shift.CafeID) {
		return nil, ErrNotShiftOwner
	}

	// Staff first: if the shift filled or closed since the application was
	// filed, the conditional append fails and the application stays pending.
	staffed, err := s.shiftSvc.StaffShift(app.ShiftID, app.EmployeeID)
	if err != nil {
		return nil, err
	}

	err = s.appRepo.UpdateApplicationStatus(s.db, applicationID,
		models.ApplicationStatusPending, models.ApplicationStatusAccepted, &actor.ID, nil)
	if err != nil && !errors.Is(err, repositories.ErrConditionFailed) {
		return nil, fmt.Errorf("failed to mark application accepted: %w", err)
	}

	// Reaching the headcount closes the shift; everyone else still waiting
	// is rejected in one sweep.
	if len(staffed.AcceptedBy) >= staffed.RequiredEmployees {
		reason := ShiftFullReason
		if _, err := s.appRepo.RejectPendingForShift(s.db, app.ShiftID, applicationID, actor.ID, reason); err != nil {
			return nil, fmt.Errorf("failed to reject remaining applications: %w", err)
		}
	}

	return s.GetApplicationByID(applicationID)
}

func (s *applicationService) Reject(actor Actor, applicationID int64, reason string) (*models.Application, error) {
	app, err := s.GetApplicationByID(applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationStatusPending {
		return nil, fmt.Errorf("%w: status is '%s'", ErrApplicationNotPending, app.Status)
	}
	shift, err := s.shiftSvc.GetShiftByID(app.ShiftID)
	if err != nil {
		return nil, err
	}
	if !actor.canActFor(shift.CafeID) {
		return nil, ErrNotShiftOwner
	}

	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	err = s.appRepo.UpdateApplicationStatus(s.db, applicationID,
		models.ApplicationStatusPending, models.ApplicationStatusRejected, &actor.ID, reasonPtr)
	if err != nil {
		if errors.Is(err, repositories.ErrConditionFailed) {
			return nil, ErrApplicationNotPending
		}
		return nil, fmt.Errorf("failed to reject application: %w", err)
	}
	return s.GetApplicationByID(applicationID)
}
