package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cafeshift_backend/internal/models"
	"cafeshift_backend/internal/notifier"
	"cafeshift_backend/internal/pricing"
	"cafeshift_backend/internal/repositories"
)

// --- Custom Service Errors for Shifts ---
var (
	ErrShiftNotFound            = errors.New("shift not found")
	ErrShiftValidation          = errors.New("shift data validation error")
	ErrNotShiftOwner            = errors.New("shift belongs to another cafe")
	ErrShiftNotOpen             = errors.New("shift is not open for claims")
	ErrShiftFull                = errors.New("shift is already full")
	ErrAlreadyAccepted          = errors.New("employee has already accepted this shift")
	ErrEmployeeBlocked          = errors.New("employee is blocked from this shift")
	ErrNotInvited               = errors.New("shift is restricted to invited employees")
	ErrScheduleConflict         = errors.New("employee has an overlapping accepted shift")
	ErrShiftLeadTime            = errors.New("shift starts too soon to be created")
	ErrRateBelowFloor           = errors.New("hourly rate is below the minimum for this lead time")
	ErrHeadcountBelowAccepted   = errors.New("required employees cannot drop below the accepted count")
	ErrShiftNotEditable         = errors.New("shift can no longer be edited")
	ErrShiftTerminal            = errors.New("shift is already completed or cancelled")
	ErrEmployeeNotAccepted      = errors.New("employee is not on the shift's accepted list")
	ErrCancelWindowClosed       = errors.New("cannot cancel shift with less than 24 hours remaining")
	ErrShiftNotEnded            = errors.New("shift end time has not passed yet")
	ErrPaymentWindowExpired     = errors.New("completion window after shift end has expired")
	ErrPaymentProofRequired     = errors.New("a payment proof must be attached to complete the shift")
	ErrManualCompletionDisabled = errors.New("manual completion is disabled under upfront invoicing")
)

// Actor is the authenticated caller as the core sees it: identity plus role,
// both trusted as given by the auth layer.
type Actor struct {
	ID   int64
	Role string
}

func (a Actor) canActFor(ownerID int64) bool {
	return a.Role == models.RoleAdmin || a.ID == ownerID
}

// --- Shift DTOs ---
type CreateShiftRequest struct {
	Date              string   `json:"date" binding:"required"`       // "YYYY-MM-DD"
	StartTime         string   `json:"start_time" binding:"required"` // "HH:MM"
	EndTime           string   `json:"end_time" binding:"required"`   // "HH:MM"
	RequiredEmployees int      `json:"required_employees" binding:"required,min=1"`
	Description       *string  `json:"description"`
	HourlyRate        *float64 `json:"hourly_rate"` // omitted: the tier floor for the lead time is assigned
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	Visibility        *string  `json:"visibility"` // "all" (default) or "invited"
	AllowedEmployees  []int64  `json:"allowed_employees"`
	PaymentProofRef   *string  `json:"payment_proof_ref"` // upfront deployments collect payment at creation
}

type UpdateShiftRequest struct {
	Date              *string  `json:"date"`
	StartTime         *string  `json:"start_time"`
	EndTime           *string  `json:"end_time"`
	RequiredEmployees *int     `json:"required_employees"`
	Description       *string  `json:"description"`
	HourlyRate        *float64 `json:"hourly_rate"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	Visibility        *string  `json:"visibility"`
	AllowedEmployees  []int64  `json:"allowed_employees"`
}

// --- ShiftService Interface ---
type ShiftService interface {
	CreateShift(cafeID int64, req CreateShiftRequest) (*models.Shift, error)
	GetShiftByID(shiftID int64) (*models.Shift, error)
	GetShifts(filters models.ShiftFilters) ([]models.Shift, int, error)
	UpdateShift(actor Actor, shiftID int64, req UpdateShiftRequest) (*models.Shift, error)
	ApproveShift(shiftID int64, employeeRate *float64) (*models.Shift, error)
	ClaimShift(employeeID, shiftID int64) (*models.Shift, error)
	// StaffShift is the single staffing operation both claim doors call;
	// the headcount invariant is enforced here and nowhere else.
	StaffShift(shiftID, employeeID int64) (*models.Shift, error)
	WithdrawEmployee(employeeID, shiftID int64) (*models.Shift, error)
	RejectEmployee(actor Actor, shiftID, employeeID int64, reason string) (*models.Shift, error)
	CancelShift(actor Actor, shiftID int64) (*models.Shift, error)
	PauseShift(actor Actor, shiftID int64) (*models.Shift, error)
	CompleteShift(actor Actor, shiftID int64, proofRef string) (*models.Shift, error)
	DeleteShift(actor Actor, shiftID int64) error
}

// --- shiftService Implementation ---
type shiftService struct {
	shiftRepo repositories.ShiftRepository
	appRepo   repositories.ApplicationRepository
	cfgRepo   repositories.ConfigRepository
	notify    notifier.Notifier
	db        *sql.DB
	now       func() time.Time
}

// NewShiftService creates a new instance of ShiftService.
func NewShiftService(
	sr repositories.ShiftRepository,
	ar repositories.ApplicationRepository,
	cr repositories.ConfigRepository,
	n notifier.Notifier,
	db *sql.DB,
) ShiftService {
	return &shiftService{
		shiftRepo: sr,
		appRepo:   ar,
		cfgRepo:   cr,
		notify:    n,
		db:        db,
		now:       time.Now,
	}
}

func (s *shiftService) CreateShift(cafeID int64, req CreateShiftRequest) (*models.Shift, error) {
	cfg, err := s.cfgRepo.LoadPlatformConfig()
	if err != nil {
		return nil, fmt.Errorf("loading platform config: %w", err)
	}

	if _, err := pricing.DurationHours(req.StartTime, req.EndTime); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShiftValidation, err)
	}
	start, err := pricing.ShiftStart(req.Date, req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShiftValidation, err)
	}
	if req.RequiredEmployees < 1 {
		return nil, fmt.Errorf("%w: required_employees must be at least 1", ErrShiftValidation)
	}

	lead := start.Sub(s.now())
	if lead < cfg.MinLeadTime {
		return nil, fmt.Errorf("%w: shifts must be created at least %s before start", ErrShiftLeadTime, cfg.MinLeadTime)
	}

	floor := pricing.TierFloor(cfg, lead)
	rate := floor
	if req.HourlyRate != nil {
		if *req.HourlyRate < floor {
			return nil, fmt.Errorf("%w: minimum %.2f for shifts posted %s in advance", ErrRateBelowFloor, floor, lead.Round(time.Minute))
		}
		rate = *req.HourlyRate
	}

	visibility := models.VisibilityAll
	if req.Visibility != nil {
		if *req.Visibility != models.VisibilityAll && *req.Visibility != models.VisibilityInvited {
			return nil, fmt.Errorf("%w: invalid visibility '%s'", ErrShiftValidation, *req.Visibility)
		}
		visibility = *req.Visibility
	}
	if visibility == models.VisibilityInvited && len(req.AllowedEmployees) == 0 {
		return nil, fmt.Errorf("%w: invited visibility requires a non-empty allow-list", ErrShiftValidation)
	}

	priorShifts := 0
	if cfg.FeeModel == models.FeeModelFixed {
		priorShifts, err = s.shiftRepo.CountShiftsByCafe(cafeID)
		if err != nil {
			return nil, fmt.Errorf("counting cafe shifts: %w", err)
		}
	}
	quote, err := pricing.QuoteShift(cfg, req.StartTime, req.EndTime, rate, req.RequiredEmployees, priorShifts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShiftValidation, err)
	}

	shift := &models.Shift{
		CafeID:            cafeID,
		Date:              req.Date,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		RequiredEmployees: req.RequiredEmployees,
		Description:       req.Description,
		Status:            models.ShiftStatusPendingApproval,
		AcceptedBy:        []int64{},
		BlockedEmployees:  []int64{},
		HourlyRate:        rate,
		PlatformFee:       quote.Fee,
		TotalCost:         quote.Total,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		PaymentProofRef:   req.PaymentProofRef,
		Visibility:        visibility,
		AllowedEmployees:  req.AllowedEmployees,
	}

	created, err := s.shiftRepo.CreateShift(s.db, shift)
	if err != nil {
		return nil, fmt.Errorf("failed to create shift: %w", err)
	}
	return created, nil
}

func (s *shiftService) GetShiftByID(shiftID int64) (*models.Shift, error) {
	shift, err := s.shiftRepo.GetShiftByID(shiftID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("failed to get shift by ID: %w", err)
	}
	return shift, nil
}

func (s *shiftService) GetShifts(filters models.ShiftFilters) ([]models.Shift, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	shifts, totalCount, err := s.shiftRepo.GetShifts(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list shifts: %w", err)
	}
	return shifts, totalCount, nil
}

func (s *shiftService) UpdateShift(actor Actor, shiftID int64, req UpdateShiftRequest) (*models.Shift, error) {
	shift, err := s.GetShiftByID(shiftID)
	if err != nil {
		return nil, err
	}
	if !actor.canActFor(shift.CafeID) {
		return nil, ErrNotShiftOwner
	}
	if shift.Status != models.ShiftStatusPendingApproval && shift.Status != models.ShiftStatusOpen {
		return nil, fmt.Errorf("%w: status is '%s'", ErrShiftNotEditable, shift.Status)
	}

	cfg, err := s.cfgRepo.LoadPlatformConfig()
	if err != nil {
		return nil, fmt.Errorf("loading platform config: %w", err)
	}

	if req.Date != nil {
		shift.Date = *req.Date
	}
	if req.StartTime != nil {
		shift.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		shift.EndTime = *req.EndTime
	}
	if req.RequiredEmployees != nil {
		if *req.RequiredEmployees < len(shift.AcceptedBy) {
			return nil, fmt.Errorf("%w: %d employees already accepted", ErrHeadcountBelowAccepted, len(shift.AcceptedBy))
		}
		if *req.RequiredEmployees < 1 {
			return nil, fmt.Errorf("%w: required_employees must be at least 1", ErrShiftValidation)
		}
		shift.RequiredEmployees = *req.RequiredEmployees
	}
	if req.Description != nil {
		shift.Description = req.Description
	}
	if req.Latitude != nil {
		shift.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		shift.Longitude = req.Longitude
	}
	if req.Visibility != nil {
		if *req.Visibility != models.VisibilityAll && *req.Visibility != models.VisibilityInvited {
			return nil, fmt.Errorf("%w: invalid visibility '%s'", ErrShiftValidation, *req.Visibility)
		}
		shift.Visibility = *req.Visibility
	}
	if req.AllowedEmployees != nil {
		shift.AllowedEmployees = req.AllowedEmployees
	}
	if shift.Visibility == models.VisibilityInvited && len(shift.AllowedEmployees) == 0 {
		return nil, fmt.Errorf("%w: invited visibility requires a non-empty allow-list", ErrShiftValidation)
	}

	start, err := pricing.ShiftStart(shift.Date, shift.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShiftValidation, err)
	}
	if req.HourlyRate != nil {
		floor := pricing.TierFloor(cfg, start.Sub(s.now()))
		if *req.HourlyRate < floor {
			return nil, fmt.Errorf("%w: minimum %.2f", ErrRateBelowFloor, floor)
		}
		shift.HourlyRate = *req.HourlyRate
	}

	// Cost fields are derived data; recompute whenever any input changed.
	// Under the fixed fee model the per-shift fee stays as fixed at creation.
	hours, err := pricing.DurationHours(shift.StartTime, shift.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShiftValidation, err)
	}
	base := pricing.BaseCost(hours, shift.HourlyRate, shift.RequiredEmployees)
	if cfg.FeeModel == models.FeeModelPercent {
		shift.PlatformFee = pricing.PercentFee(base, cfg.FeePercent)
	}
	shift.TotalCost = pricing.Round2(base + shift.PlatformFee)

	updated, err := s.shiftRepo.UpdateShift(s.db, shift)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("failed to update shift: %w", err)
	}
	return updated, nil
}

func (s *shiftService) ApproveShift(shiftID int64, employeeRate *float64) (*models.Shift, error) {
	shift, err := s.GetShiftByID(shiftID)
	if err != nil {
		return nil, err
	}
	if shift.Status != models.ShiftStatusPendingApproval {
		return nil, fmt.Errorf("%w: cannot approve a shift in status '%s'", ErrShiftNotEditable, shift.Status)
	}
	if employeeRate != nil && *employeeRate <= 0 {
		return nil, fmt.Errorf("%w: employee rate must be positive", ErrShiftValidation)
	}

	if err := s.shiftRepo.ApproveShift(s.db, shiftID, employeeRate); err != nil {
		if errors.Is(err, repositories.ErrConditionFailed) {
			return nil, fmt.Errorf("%w: shift is no longer pending approval", ErrShiftNotEditable)
		}
		return nil, fmt.Errorf("failed to approve shift: %w", err)
	}

	if s.notify != nil {
		s.notify.Send(shift.CafeID, notifier.TemplateShiftApproved, map[string]string{
			"shift_id": fmt.Sprintf("%d", shiftID),
		})
	}
	return s.GetShiftByID(shiftID)
}

// ClaimShift is the first-come-first-serve front door: guard checks for a
// specific error message, then the shared staffing operation. No application
// record is created on this path.
func (s *shiftService) ClaimShift(employeeID, shiftID int64) (*models.Shift, error) {
	shift, err := s.GetShiftByID(shiftID)
	if err != nil {
		return nil, err
	}
	if err := s.checkClaimable(shift, employeeID); err != nil {
		return nil, err
	}

	staffed, err := s.StaffShift(shiftID, employeeID)
	if err != nil {
		return nil, err
	}

	if s.notify != nil {
		s.notify.Send(staffed.CafeID, notifier.TemplateShiftClaimed, map[string]string{
			"shift_id":    fmt.Sprintf("%d", shiftID),
			"employee_id": fmt.Sprintf("%d", employeeID),
		})
	}
	return staffed, nil
}

// checkClaimable runs the pre-write guards. These exist for precise error
// messages; the conditional append in the repository is the actual backstop
// under concurrency.
func (s *shiftService) checkClaimable(shift *models.Shift, employeeID int64) error {
	// Employee-specific conditions first, so a duplicate claim on a shift
	// that has since filled up still names the real reason.
	if shift.HasAccepted(employeeID) {
		return ErrAlreadyAccepted
	}
	if shift.IsBlocked(employeeID) {
		return ErrEmployeeBlocked
	}
	if shift.Status != models.ShiftStatusOpen {
		return fmt.Errorf("%w: status is '%s'", ErrShiftNotOpen, shift.Status)
	}
	if !shift.IsInvited(employeeID) {
		return ErrNotInvited
	}
	if len(shift.AcceptedBy) >= shift.RequiredEmployees {
		return ErrShiftFull
	}

	sameDay, err := s.shiftRepo.GetAcceptedShiftsForEmployeeOnDate(employeeID, shift.Date)
	if err != nil {
		return fmt.Errorf("failed to check schedule conflicts: %w", err)
	}
	for _, other := range sameDay {
		if other.ID == shift.ID {
			continue
		}
		if timesOverlap(shift.StartTime, shift.EndTime, other.StartTime, other.EndTime) {
			return fmt.Errorf("%w: shift %d (%s-%s) on %s", ErrScheduleConflict,
				other.ID, other.StartTime, other.EndTime, other.Date)
		}
	}
	return nil
}

// StaffShift appends the employee through the atomic conditional update and
// promotes the shift to accepted when the headcount is reached. When the
// append loses a race the shift is re-read to report the precise reason.
func (s *shiftService) StaffShift(shiftID, employeeID int64) (*models.Shift, error) {
	accepted, required, err := s.shiftRepo.AppendAccepted(s.db, shiftID, employeeID)
	if err != nil {
		if errors.Is(err, repositories.ErrConditionFailed) {
			return nil, s.explainStaffFailure(shiftID, employeeID)
		}
		return nil, fmt.Errorf("failed to staff shift: %w", err)
	}

	if accepted >= required {
		if err := s.shiftRepo.PromoteIfFull(s.db, shiftID); err != nil {
			return nil, fmt.Errorf("failed to promote full shift: %w", err)
		}
	}
	return s.GetShiftByID(shiftID)
}

func (s *shiftService) explainStaffFailure(shiftID, employeeID int64) error {
	shift, err := s.GetShiftByID(shiftID)
	if err != nil {
		return err
	}
	switch {
	case shift.HasAccepted(employeeID):
		return ErrAlreadyAccepted
	case shift.IsBlocked(employeeID):
		return ErrEmployeeBlocked
	case shift.Status != models.ShiftStatusOpen:
		return fmt.Errorf("%w: status is '%s'", ErrShiftNotOpen, shift.Status)
	default:
		return ErrShiftFull
	}
}

func (s *shiftService) WithdrawEmployee(employeeID, shiftID int64) (*models.Shift, error) {
	shift, err := s.GetShiftByID(shiftID)
	if err != nil {
		return nil, err
	}
	if shift.Status == models.ShiftStatusCompleted || shift.Status == models.ShiftStatusCancelled {
		return nil, fmt.Errorf("%w: status is '%s'", ErrShiftTerminal, shift.Status)
	}
	if !shift.HasAccepted(employeeID) {
		return nil, ErrEmployeeNotAccepted
	}

	cfg, err := s.cfgRepo.LoadPlatformConfig()
	if err != nil {
		return nil, fmt.Errorf("loading platform config: %w", err)
	}

	// Withdrawing is always allowed, but late withdrawal from a shift not
	// posted the same day costs the employee a penalty on their expected
	// earnings for it.
	if late, _ := s.insideCancelWindow(shift, cfg); late && !postedSameDay(shift) {
		hours, hErr := pricing.DurationHours(shift.StartTime, shift.EndTime)
		if hErr == nil {
			earnings := pricing.BaseCost(hours, shift.EffectiveRate(), 1)
			penalty := pricing.Penalty(earnings, cfg.PenaltyPercent)
			if pErr := s.shiftRepo.AddEmployeePenalty(s.db, shiftID, penalty); pErr != nil {
				return nil, fmt.Errorf("failed to record withdrawal penalty: %w", pErr)
			}
		}
	}

	if err := s.shiftRepo.RemoveAccepted(s.db, shiftID, employeeID); err != nil {
		if errors.Is(err, repositories.ErrConditionFailed) {
			return nil, ErrEmployeeNotAccepted
		}
		return nil, fmt.Errorf("failed to remove employee from shift: %w", err)
	}
	if err := s.shiftRepo.ReopenIfShort(s.db, shiftID); err != nil {
		return nil, fmt.Errorf("failed to reopen shift: %w", err)
	}
	return s.GetShiftByID(shiftID)
}

func (s *shiftService) RejectEmployee(actor Actor, shiftID, employeeID int64, reason string) (*models.Shift, error) {
	shift, err := s.GetShiftByID(shiftID)
	if err != nil {
		return nil, err
	}
	if !actor.canActFor(shift.CafeID) {
		return nil, ErrNotShiftOwner
	}
	if !shift.HasAccepted(employeeID) {
		return nil, ErrEmployeeNotAccepted
	}

	if err := s.shiftRepo.RemoveAccepted(s.db, shiftID, employeeID); err != nil {
		if errors.Is(err, repositories.ErrConditionFailed) {
			return nil, ErrEmployeeNotAccepted
		}
		return nil, fmt.Errorf("failed to remove rejected employee: %w", err)
	}
	// The block is permanent for this shift; a later claim attempt fails.
	if err := s.shiftRepo.BlockEmployee(s.db, shiftID, employeeID); err != nil {
		return nil, fmt.Errorf("failed to block employee: %w", err)
	}
	if err := s.appRepo.UpsertRejection(s.db, shiftID, employeeID, actor.ID, reason); err != nil {
		return nil, fmt.Errorf("failed to record rejection: %w", err)
	}
	if err := s.shiftRepo.ReopenIfShort(s.db, shiftID); err != nil {
		return nil, fmt.Errorf("failed to reopen shift: %w", err)
	}

	if s.notify != nil {
		s.notify.Send(employeeID, notifier.TemplateEmployeeRejected, map[string]string{
			"shift_id": fmt.Sprintf("%d", shiftID),
			"reason":   reason,
		})
	}
	return s.GetShiftByID(shiftID)
}

func (s *shiftService) CancelShift(actor Actor, shiftID int64) (*models.Shift, error) {
	shift, err := s.GetShiftByID(shiftID)
	if err != nil {
		return nil, err
	}
	if !actor.canActFor(shift.CafeID) {
		return nil, ErrNotShiftOwner
	}
	if shift.Status != models.ShiftStatusOpen && shift.Status != models.ShiftStatusAccepted {
		return nil, fmt.Errorf("%w: status is '%s'", ErrShiftTerminal, shift.Status)
	}

	cfg, err := s.cfgRepo.LoadPlatformConfig()
	if err != nil {
		return nil, fmt.Errorf("loading platform config: %w", err)
	}
	if inside, remaining := s.insideCancelWindow(shift, cfg); inside {
		return nil, fmt.Errorf("%w: %s until start", ErrCancelWindowClosed, remaining.Round(time.Minute))
	}

	from := []string{models.ShiftStatusOpen, models.ShiftStatusAccepted}
	if err := s.shiftRepo.UpdateShiftStatus(s.db, shiftID, from, models.ShiftStatusCancelled); err != nil {
		if errors.Is(err, repositories.ErrConditionFailed) {
			return nil, fmt.Errorf("%w: shift changed state concurrently", ErrShiftTerminal)
		}
		return nil, fmt.Errorf("failed to cancel shift: %w", err)
	}

	if s.notify != nil {
		for _, employeeID := range shift.AcceptedBy {
			s.notify.Send(employeeID, notifier.TemplateShiftCancelled, map[string]string{
				"shift_id": fmt.Sprintf("%d", shiftID),
			})
		}
	}
	return s.GetShiftByID(shiftID)
}

func (s *shiftService) PauseShift(actor Actor, shiftID int64) (*models.Shift, error) {
	shift, err := s.GetShiftByID(shiftID)
	if err != nil {
		return nil, err
	}
	if !actor.canActFor(shift.CafeID) {
		return nil, ErrNotShiftOwner
	}
	if shift.Status != models.ShiftStatusOpen && shift.Status != models.ShiftStatusAccepted {
		return nil, fmt.Errorf("%w: status is '%s'", ErrShiftTerminal, shift.Status)
	}

	cfg, err := s.cfgRepo.LoadPlatformConfig()
	if err != nil {
		return nil, fmt.Errorf("loading platform config: %w", err)
	}
	if err := s.recordLatePenalty(shift, cfg); err != nil {
		return nil, err
	}

	from := []string{models.ShiftStatusOpen, models.ShiftStatusAccepted}
	if err := s.shiftRepo.UpdateShiftStatus(s.db, shiftID, from, models.ShiftStatusPaused); err != nil {
		if errors.Is(err, repositories.ErrConditionFailed) {
			return nil, fmt.Errorf("%w: shift changed state concurrently", ErrShiftTerminal)
		}
		return nil, fmt.Errorf("failed to pause shift: %w", err)
	}
	return s.GetShiftByID(shiftID)
}

func (s *shiftService) CompleteShift(actor Actor, shiftID int64, proofRef string) (*models.Shift, error) {
	cfg, err := s.cfgRepo.LoadPlatformConfig()
	if err != nil {
		return nil, fmt.Errorf("loading platform config: %w", err)
	}
	if cfg.InvoicingMode != models.InvoicingModePostpaid {
		return nil, ErrManualCompletionDisabled
	}

	shift, err := s.GetShiftByID(shiftID)
	if err != nil {
		return nil, err
	}
	if !actor.canActFor(shift.CafeID) {
		return nil, ErrNotShiftOwner
	}
	if shift.Status != models.ShiftStatusOpen && shift.Status != models.ShiftStatusAccepted {
		return nil, fmt.Errorf("%w: status is '%s'", ErrShiftTerminal, shift.Status)
	}
	if proofRef == "" {
		return nil, ErrPaymentProofRequired
	}

	end, err := pricing.ShiftEnd(shift.Date, shift.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShiftValidation, err)
	}
	now := s.now()
	if now.Before(end) {
		return nil, ErrShiftNotEnded
	}
	if now.After(end.Add(cfg.PaymentWindow)) {
		return nil, fmt.Errorf("%w: shift ended more than %s ago", ErrPaymentWindowExpired, cfg.PaymentWindow)
	}

	if err := s.shiftRepo.SetPaymentProof(s.db, shiftID, proofRef); err != nil {
		return nil, fmt.Errorf("failed to attach payment proof: %w", err)
	}
	from := []string{models.ShiftStatusOpen, models.ShiftStatusAccepted}
	if err := s.shiftRepo.UpdateShiftStatus(s.db, shiftID, from, models.ShiftStatusCompleted); err != nil {
		if errors.Is(err, repositories.ErrConditionFailed) {
			return nil, fmt.Errorf("%w: shift changed state concurrently", ErrShiftTerminal)
		}
		return nil, fmt.Errorf("failed to complete shift: %w", err)
	}
	return s.GetShiftByID(shiftID)
}

func (s *shiftService) DeleteShift(actor Actor, shiftID int64) error {
	shift, err := s.GetShiftByID(shiftID)
	if err != nil {
		return err
	}
	if !actor.canActFor(shift.CafeID) {
		return ErrNotShiftOwner
	}
	if shift.Status == models.ShiftStatusCompleted {
		return fmt.Errorf("%w: completed shifts cannot be deleted", ErrShiftTerminal)
	}

	// Deleting a staffed shift late is a cancellation in disguise; the same
	// cafe-side penalty is recorded before the row goes away.
	if len(shift.AcceptedBy) > 0 {
		cfg, cfgErr := s.cfgRepo.LoadPlatformConfig()
		if cfgErr != nil {
			return fmt.Errorf("loading platform config: %w", cfgErr)
		}
		if err := s.recordLatePenalty(shift, cfg); err != nil {
			return err
		}
	}

	if err := s.shiftRepo.DeleteShift(s.db, shiftID); err != nil {
		if errors.Is(err, repositories.ErrConditionFailed) {
			return ErrShiftNotFound
		}
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	return nil
}

// recordLatePenalty stores a cafe-side penalty when a staffed shift is
// withdrawn from the market inside the cancellation window, unless the shift
// was posted the same day it runs.
func (s *shiftService) recordLatePenalty(shift *models.Shift, cfg models.PlatformConfig) error {
	if len(shift.AcceptedBy) == 0 || postedSameDay(shift) {
		return nil
	}
	if inside, _ := s.insideCancelWindow(shift, cfg); !inside {
		return nil
	}
	penalty := pricing.Penalty(shift.TotalCost, cfg.PenaltyPercent)
	if err := s.shiftRepo.RecordCafePenalty(s.db, shift.ID, penalty); err != nil {
		return fmt.Errorf("failed to record cafe penalty: %w", err)
	}
	shift.CafePenalty = penalty
	return nil
}

// insideCancelWindow reports whether now is within the cancellation window
// before the shift's start, and how long remains until start. The boundary
// itself is inside: exactly 24h before start is already too late.
func (s *shiftService) insideCancelWindow(shift *models.Shift, cfg models.PlatformConfig) (bool, time.Duration) {
	start, err := pricing.ShiftStart(shift.Date, shift.StartTime)
	if err != nil {
		return false, 0
	}
	remaining := start.Sub(s.now())
	return remaining <= cfg.CancelWindow, remaining
}

// postedSameDay reports whether the shift was created on the calendar day it
// runs; same-day postings are exempt from late-cancellation penalties.
func postedSameDay(shift *models.Shift) bool {
	return shift.CreatedAt.Format("2006-01-02") == shift.Date
}

// timesOverlap applies the half-open interval test on two same-day time
// windows: start1 < end2 AND end1 > start2.
func timesOverlap(start1, end1, start2, end2 string) bool {
	s1, err1 := pricing.MinutesOfDay(start1)
	e1, err2 := pricing.MinutesOfDay(end1)
	s2, err3 := pricing.MinutesOfDay(start2)
	e2, err4 := pricing.MinutesOfDay(end2)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return false
	}
	return s1 < e2 && e1 > s2
}
