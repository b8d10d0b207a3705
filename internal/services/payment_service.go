package services

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"cafeshift_backend/internal/models"
	"cafeshift_backend/internal/notifier"
	"cafeshift_backend/internal/pricing"
	"cafeshift_backend/internal/repositories"
)

// --- Custom Service Errors for Payments ---
var (
	ErrWeekPaymentNotFound = errors.New("no settlement record for this employee and week")
	ErrNoEarningsForWeek   = errors.New("employee has no completed shifts in this week")
	ErrWeekAlreadyPaid     = errors.New("week is already settled for this employee")
	ErrInvalidWeekStart    = errors.New("week start must be a Monday in YYYY-MM-DD format")
)

// --- PaymentService Interface ---
// Weekly reconciliation of the platform -> employee leg. Earnings are a pure
// read model derived from completed shifts; a settlement row only materializes
// when an admin marks the week paid, and the amount is recomputed from the
// shifts at that moment rather than trusted from the view.
type PaymentService interface {
	WeeklyEarnings(dateFrom, dateTo string) ([]models.WeeklyEarnings, error)
	EmployeeWeeklyEarnings(employeeID int64, dateFrom, dateTo string) ([]models.WeeklyEarnings, error)
	MarkWeekPaid(adminID, employeeID int64, weekStart, proofRef string) (*models.EmployeeWeekPayment, error)
}

type paymentService struct {
	shiftRepo   repositories.ShiftRepository
	paymentRepo repositories.PaymentRepository
	notify      notifier.Notifier
	db          *sql.DB
}

// NewPaymentService creates a new instance of PaymentService.
func NewPaymentService(
	sr repositories.ShiftRepository,
	pr repositories.PaymentRepository,
	n notifier.Notifier,
	db *sql.DB,
) PaymentService {
	return &paymentService{shiftRepo: sr, paymentRepo: pr, notify: n, db: db}
}

// MondayOf normalizes a date to the Monday of its ISO week.
func MondayOf(date string) (string, error) {
	d, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidWeekStart, err)
	}
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset).Format("2006-01-02"), nil
}

// earningsKey identifies one row of the reconciliation view.
type earningsKey struct {
	employeeID int64
	weekStart  string
}

func (s *paymentService) WeeklyEarnings(dateFrom, dateTo string) ([]models.WeeklyEarnings, error) {
	return s.weeklyEarnings(nil, dateFrom, dateTo)
}

func (s *paymentService) EmployeeWeeklyEarnings(employeeID int64, dateFrom, dateTo string) ([]models.WeeklyEarnings, error) {
	return s.weeklyEarnings(&employeeID, dateFrom, dateTo)
}

func (s *paymentService) weeklyEarnings(onlyEmployee *int64, dateFrom, dateTo string) ([]models.WeeklyEarnings, error) {
	shifts, err := s.shiftRepo.GetCompletedShiftsBetween(dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed shifts: %w", err)
	}

	grouped := map[earningsKey]*models.WeeklyEarnings{}
	for i := range shifts {
		shift := &shifts[i]
		earning, err := shiftEarnings(shift)
		if err != nil {
			return nil, err
		}
		weekStart, err := MondayOf(shift.Date)
		if err != nil {
			return nil, err
		}
		for _, employeeID := range shift.AcceptedBy {
			if onlyEmployee != nil && employeeID != *onlyEmployee {
				continue
			}
			key := earningsKey{employeeID: employeeID, weekStart: weekStart}
			row, ok := grouped[key]
			if !ok {
				row = &models.WeeklyEarnings{
					EmployeeID: employeeID,
					WeekStart:  weekStart,
					Status:     models.WeekPaymentStatusPending,
				}
				grouped[key] = row
			}
			row.Amount = pricing.Round2(row.Amount + earning)
			row.ShiftIDs = append(row.ShiftIDs, shift.ID)
		}
	}
	if len(grouped) == 0 {
		return []models.WeeklyEarnings{}, nil
	}

	if err := s.overlaySettlements(grouped, dateFrom, dateTo); err != nil {
		return nil, err
	}

	rows := make([]models.WeeklyEarnings, 0, len(grouped))
	for _, row := range grouped {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].WeekStart != rows[j].WeekStart {
			return rows[i].WeekStart < rows[j].WeekStart
		}
		return rows[i].EmployeeID < rows[j].EmployeeID
	})
	return rows, nil
}

// overlaySettlements marks rows paid when a settlement record already exists.
func (s *paymentService) overlaySettlements(grouped map[earningsKey]*models.WeeklyEarnings, dateFrom, dateTo string) error {
	weekFrom, err := MondayOf(dateFrom)
	if err != nil {
		return err
	}
	weekTo, err := MondayOf(dateTo)
	if err != nil {
		return err
	}
	payments, err := s.paymentRepo.GetWeekPaymentsBetween(weekFrom, weekTo)
	if err != nil {
		return fmt.Errorf("failed to load week payments: %w", err)
	}
	for _, p := range payments {
		if row, ok := grouped[earningsKey{employeeID: p.EmployeeID, weekStart: p.WeekStart}]; ok {
			row.Status = p.Status
		}
	}
	return nil
}

// shiftEarnings is what one employee takes home from one completed shift:
// hours times the employee-side rate, never multiplied by headcount.
func shiftEarnings(shift *models.Shift) (float64, error) {
	hours, err := pricing.DurationHours(shift.StartTime, shift.EndTime)
	if err != nil {
		return 0, fmt.Errorf("%w: shift %d: %v", ErrShiftValidation, shift.ID, err)
	}
	return pricing.BaseCost(hours, shift.EffectiveRate(), 1), nil
}

// MarkWeekPaid settles one employee-week. The amount is recomputed from the
// completed shifts of that week at settlement time, so a stale admin view can
// never lock in a wrong figure.
func (s *paymentService) MarkWeekPaid(adminID, employeeID int64, weekStart, proofRef string) (*models.EmployeeWeekPayment, error) {
	if proofRef == "" {
		return nil, ErrPaymentProofRequired
	}
	monday, err := MondayOf(weekStart)
	if err != nil {
		return nil, err
	}
	if monday != weekStart {
		return nil, fmt.Errorf("%w: got %s, week starts %s", ErrInvalidWeekStart, weekStart, monday)
	}

	existing, err := s.paymentRepo.GetWeekPayment(employeeID, weekStart)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing settlement: %w", err)
	}
	if existing != nil && existing.Status == models.WeekPaymentStatusPaid {
		return nil, ErrWeekAlreadyPaid
	}

	weekEnd, _ := time.ParseInLocation("2006-01-02", weekStart, time.Local)
	dateTo := weekEnd.AddDate(0, 0, 6).Format("2006-01-02")
	rows, err := s.weeklyEarnings(&employeeID, weekStart, dateTo)
	if err != nil {
		return nil, err
	}
	var row *models.WeeklyEarnings
	for i := range rows {
		if rows[i].WeekStart == weekStart {
			row = &rows[i]
			break
		}
	}
	if row == nil {
		return nil, ErrNoEarningsForWeek
	}

	paidAt := time.Now()
	payment := &models.EmployeeWeekPayment{
		EmployeeID:      employeeID,
		WeekStart:       weekStart,
		Amount:          row.Amount,
		ShiftIDs:        row.ShiftIDs,
		Status:          models.WeekPaymentStatusPaid,
		PaymentProofRef: &proofRef,
		PaidAt:          &paidAt,
		PaidBy:          &adminID,
	}
	saved, err := s.paymentRepo.UpsertWeekPayment(s.db, payment)
	if err != nil {
		return nil, fmt.Errorf("failed to save settlement: %w", err)
	}

	if s.notify != nil {
		s.notify.Send(employeeID, notifier.TemplateWeekPaid, map[string]string{
			"week_start": weekStart,
			"amount":     fmt.Sprintf("%.2f", saved.Amount),
		})
	}
	return saved, nil
}
