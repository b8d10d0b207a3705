package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cafeshift_backend/internal/models"

	"github.com/lib/pq"
)

// ShiftRepository defines the interface for shift-related database operations.
// Headcount and staffing invariants are enforced here with conditional
// updates: the accepted_by array is only ever grown through AppendAccepted,
// whose WHERE clause is the real backstop against concurrent claim races.
type ShiftRepository interface {
	CreateShift(executor SQLExecutor, shift *models.Shift) (*models.Shift, error)
	GetShiftByID(id int64) (*models.Shift, error)
	GetShifts(filters models.ShiftFilters) ([]models.Shift, int, error)
	GetShiftsByStatus(status string) ([]models.Shift, error)
	GetAcceptedShiftsForEmployeeOnDate(employeeID int64, date string) ([]models.Shift, error)
	GetCompletedShiftsBetween(dateFrom, dateTo string) ([]models.Shift, error)
	CountShiftsByCafe(cafeID int64) (int, error)

	UpdateShift(executor SQLExecutor, shift *models.Shift) (*models.Shift, error)
	ApproveShift(executor SQLExecutor, id int64, employeeRate *float64) error
	UpdateShiftStatus(executor SQLExecutor, id int64, fromStatuses []string, to string) error
	SetPaymentProof(executor SQLExecutor, id int64, proofRef string) error
	RecordCafePenalty(executor SQLExecutor, id int64, amount float64) error
	AddEmployeePenalty(executor SQLExecutor, id int64, amount float64) error
	DeleteShift(executor SQLExecutor, id int64) error

	// AppendAccepted atomically appends the employee to accepted_by only if
	// the shift is open, below capacity and the employee is not already on
	// the list. Returns the new accepted count and the required headcount.
	AppendAccepted(executor SQLExecutor, shiftID, employeeID int64) (accepted int, required int, err error)
	// PromoteIfFull flips open -> accepted once the accepted list has
	// reached the required headcount.
	PromoteIfFull(executor SQLExecutor, shiftID int64) error
	// RemoveAccepted drops the employee from accepted_by.
	RemoveAccepted(executor SQLExecutor, shiftID, employeeID int64) error
	// ReopenIfShort flips accepted -> open when the list dropped below the
	// required headcount.
	ReopenIfShort(executor SQLExecutor, shiftID int64) error
	// BlockEmployee adds the employee to the permanent per-shift block list.
	BlockEmployee(executor SQLExecutor, shiftID, employeeID int64) error
}

type shiftRepository struct {
	db *sql.DB
}

// NewShiftRepository creates a new instance of ShiftRepository.
func NewShiftRepository(db *sql.DB) ShiftRepository {
	return &shiftRepository{db: db}
}

const selectShiftFields = `
	id, cafe_id, shift_date, start_time, end_time, required_employees, description,
	status, accepted_by, blocked_employees, hourly_rate, employee_rate, platform_fee,
	total_cost, cafe_penalty, employee_penalty, latitude, longitude, payment_proof_ref,
	visibility, allowed_employees, created_at, updated_at
`

// scanShiftRow scans one shift row, optionally with a trailing total_count
// column for list queries.
func scanShiftRow(row scanner, isList bool) (*models.Shift, int, error) {
	var shift models.Shift
	var acceptedBy, blockedEmployees, allowedEmployees pq.Int64Array
	var description, paymentProofRef sql.NullString
	var employeeRate, latitude, longitude sql.NullFloat64
	var totalCount int

	scanDest := []interface{}{
		&shift.ID, &shift.CafeID, &shift.Date, &shift.StartTime, &shift.EndTime,
		&shift.RequiredEmployees, &description, &shift.Status,
		&acceptedBy, &blockedEmployees, &shift.HourlyRate, &employeeRate,
		&shift.PlatformFee, &shift.TotalCost, &shift.CafePenalty, &shift.EmployeePenalty,
		&latitude, &longitude, &paymentProofRef, &shift.Visibility, &allowedEmployees,
		&shift.CreatedAt, &shift.UpdatedAt,
	}
	if isList {
		scanDest = append(scanDest, &totalCount)
	}

	if err := row.Scan(scanDest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("%w: scanning shift: %v", ErrDatabaseError, err)
	}

	shift.AcceptedBy = []int64(acceptedBy)
	shift.BlockedEmployees = []int64(blockedEmployees)
	shift.AllowedEmployees = []int64(allowedEmployees)
	if description.Valid {
		shift.Description = &description.String
	}
	if paymentProofRef.Valid {
		shift.PaymentProofRef = &paymentProofRef.String
	}
	if employeeRate.Valid {
		shift.EmployeeRate = &employeeRate.Float64
	}
	if latitude.Valid {
		shift.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		shift.Longitude = &longitude.Float64
	}
	return &shift, totalCount, nil
}

func scanShiftRows(rows *sql.Rows, isList bool) ([]models.Shift, int, error) {
	defer rows.Close()
	shifts := []models.Shift{}
	totalCount := 0
	for rows.Next() {
		shift, count, err := scanShiftRow(rows, isList)
		if err != nil {
			return nil, 0, err
		}
		shifts = append(shifts, *shift)
		totalCount = count
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating shifts: %v", ErrDatabaseError, err)
	}
	return shifts, totalCount, nil
}

func (r *shiftRepository) CreateShift(executor SQLExecutor, shift *models.Shift) (*models.Shift, error) {
	query := `INSERT INTO shifts
	            (cafe_id, shift_date, start_time, end_time, required_employees, description,
	             status, accepted_by, blocked_employees, hourly_rate, employee_rate, platform_fee,
	             total_cost, cafe_penalty, employee_penalty, latitude, longitude, payment_proof_ref,
	             visibility, allowed_employees, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	          RETURNING id, created_at, updated_at`

	currentTime := time.Now()
	shift.CreatedAt = currentTime
	shift.UpdatedAt = currentTime

	err := executor.QueryRow(query,
		shift.CafeID, shift.Date, shift.StartTime, shift.EndTime, shift.RequiredEmployees,
		shift.Description, shift.Status,
		pq.Array(shift.AcceptedBy), pq.Array(shift.BlockedEmployees),
		shift.HourlyRate, shift.EmployeeRate, shift.PlatformFee, shift.TotalCost,
		shift.CafePenalty, shift.EmployeePenalty, shift.Latitude, shift.Longitude,
		shift.PaymentProofRef, shift.Visibility, pq.Array(shift.AllowedEmployees),
		shift.CreatedAt, shift.UpdatedAt,
	).Scan(&shift.ID, &shift.CreatedAt, &shift.UpdatedAt)

	if err != nil {
		return nil, wrapPQError(err, "creating shift")
	}
	return shift, nil
}

func (r *shiftRepository) GetShiftByID(id int64) (*models.Shift, error) {
	query := "SELECT " + selectShiftFields + " FROM shifts WHERE id = $1"
	shift, _, err := scanShiftRow(r.db.QueryRow(query, id), false)
	return shift, err
}

func (r *shiftRepository) GetShifts(filters models.ShiftFilters) ([]models.Shift, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + selectShiftFields + ", COUNT(*) OVER() AS total_count FROM shifts")

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.CafeID != nil {
		conditions = append(conditions, fmt.Sprintf("cafe_id = $%d", argCount))
		args = append(args, *filters.CafeID)
		argCount++
	}
	if filters.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("accepted_by @> ARRAY[$%d]::bigint[]", argCount))
		args = append(args, *filters.EmployeeID)
		argCount++
	}
	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}
	if filters.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("shift_date >= $%d", argCount))
		args = append(args, *filters.DateFrom)
		argCount++
	}
	if filters.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("shift_date <= $%d", argCount))
		args = append(args, *filters.DateTo)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY shift_date, start_time, id")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: listing shifts: %v", ErrDatabaseError, err)
	}
	return scanShiftRows(rows, true)
}

func (r *shiftRepository) GetShiftsByStatus(status string) ([]models.Shift, error) {
	query := "SELECT " + selectShiftFields + " FROM shifts WHERE status = $1 ORDER BY shift_date, start_time, id"
	rows, err := r.db.Query(query, status)
	if err != nil {
		return nil, fmt.Errorf("%w: listing shifts by status: %v", ErrDatabaseError, err)
	}
	shifts, _, err := scanShiftRows(rows, false)
	return shifts, err
}

func (r *shiftRepository) GetAcceptedShiftsForEmployeeOnDate(employeeID int64, date string) ([]models.Shift, error) {
	query := "SELECT " + selectShiftFields + ` FROM shifts
	          WHERE shift_date = $1
	            AND accepted_by @> ARRAY[$2]::bigint[]
	            AND status IN ('open', 'accepted')`
	rows, err := r.db.Query(query, date, employeeID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing employee shifts on date: %v", ErrDatabaseError, err)
	}
	shifts, _, err := scanShiftRows(rows, false)
	return shifts, err
}

func (r *shiftRepository) GetCompletedShiftsBetween(dateFrom, dateTo string) ([]models.Shift, error) {
	query := "SELECT " + selectShiftFields + ` FROM shifts
	          WHERE status = 'completed' AND shift_date >= $1 AND shift_date <= $2
	          ORDER BY shift_date, id`
	rows, err := r.db.Query(query, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("%w: listing completed shifts: %v", ErrDatabaseError, err)
	}
	shifts, _, err := scanShiftRows(rows, false)
	return shifts, err
}

func (r *shiftRepository) CountShiftsByCafe(cafeID int64) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM shifts WHERE cafe_id = $1", cafeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting cafe shifts: %v", ErrDatabaseError, err)
	}
	return count, nil
}

// UpdateShift writes the mutable attributes of a shift. Staffing columns
// (accepted_by, blocked_employees) and status are deliberately excluded;
// those change only through the dedicated conditional operations below.
func (r *shiftRepository) UpdateShift(executor SQLExecutor, shift *models.Shift) (*models.Shift, error) {
	query := `UPDATE shifts SET
	            shift_date = $2, start_time = $3, end_time = $4, required_employees = $5,
	            description = $6, hourly_rate = $7, employee_rate = $8, platform_fee = $9,
	            total_cost = $10, latitude = $11, longitude = $12, payment_proof_ref = $13,
	            visibility = $14, allowed_employees = $15, updated_at = $16
	          WHERE id = $1
	          RETURNING updated_at`

	shift.UpdatedAt = time.Now()
	err := executor.QueryRow(query,
		shift.ID, shift.Date, shift.StartTime, shift.EndTime, shift.RequiredEmployees,
		shift.Description, shift.HourlyRate, shift.EmployeeRate, shift.PlatformFee,
		shift.TotalCost, shift.Latitude, shift.Longitude, shift.PaymentProofRef,
		shift.Visibility, pq.Array(shift.AllowedEmployees), shift.UpdatedAt,
	).Scan(&shift.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapPQError(err, "updating shift")
	}
	return shift, nil
}

func (r *shiftRepository) ApproveShift(executor SQLExecutor, id int64, employeeRate *float64) error {
	query := `UPDATE shifts
	          SET status = 'open', employee_rate = COALESCE($2, employee_rate), updated_at = NOW()
	          WHERE id = $1 AND status = 'pending_approval'`
	return execConditional(executor, query, "approving shift", id, employeeRate)
}

func (r *shiftRepository) UpdateShiftStatus(executor SQLExecutor, id int64, fromStatuses []string, to string) error {
	query := `UPDATE shifts SET status = $2, updated_at = NOW()
	          WHERE id = $1 AND status = ANY($3)`
	return execConditional(executor, query, "updating shift status", id, to, pq.Array(fromStatuses))
}

func (r *shiftRepository) SetPaymentProof(executor SQLExecutor, id int64, proofRef string) error {
	query := `UPDATE shifts SET payment_proof_ref = $2, updated_at = NOW() WHERE id = $1`
	return execConditional(executor, query, "setting payment proof", id, proofRef)
}

func (r *shiftRepository) RecordCafePenalty(executor SQLExecutor, id int64, amount float64) error {
	query := `UPDATE shifts SET cafe_penalty = $2, updated_at = NOW() WHERE id = $1`
	return execConditional(executor, query, "recording cafe penalty", id, amount)
}

func (r *shiftRepository) AddEmployeePenalty(executor SQLExecutor, id int64, amount float64) error {
	query := `UPDATE shifts SET employee_penalty = employee_penalty + $2, updated_at = NOW() WHERE id = $1`
	return execConditional(executor, query, "adding employee penalty", id, amount)
}

func (r *shiftRepository) DeleteShift(executor SQLExecutor, id int64) error {
	return execConditional(executor, "DELETE FROM shifts WHERE id = $1", "deleting shift", id)
}

func (r *shiftRepository) AppendAccepted(executor SQLExecutor, shiftID, employeeID int64) (int, int, error) {
	// The WHERE clause is the atomic backstop for concurrent claims on the
	// last slot: of N simultaneous claimants only one row update can match.
	query := `UPDATE shifts
	          SET accepted_by = array_append(accepted_by, $2), updated_at = NOW()
	          WHERE id = $1
	            AND status = 'open'
	            AND COALESCE(array_length(accepted_by, 1), 0) < required_employees
	            AND NOT (accepted_by @> ARRAY[$2]::bigint[])
	            AND NOT (blocked_employees @> ARRAY[$2]::bigint[])
	          RETURNING COALESCE(array_length(accepted_by, 1), 0), required_employees`

	var accepted, required int
	err := executor.QueryRow(query, shiftID, employeeID).Scan(&accepted, &required)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, ErrConditionFailed
		}
		return 0, 0, fmt.Errorf("%w: appending accepted employee: %v", ErrDatabaseError, err)
	}
	return accepted, required, nil
}

func (r *shiftRepository) PromoteIfFull(executor SQLExecutor, shiftID int64) error {
	query := `UPDATE shifts SET status = 'accepted', updated_at = NOW()
	          WHERE id = $1 AND status = 'open'
	            AND COALESCE(array_length(accepted_by, 1), 0) >= required_employees`
	_, err := executor.Exec(query, shiftID)
	if err != nil {
		return fmt.Errorf("%w: promoting full shift: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *shiftRepository) RemoveAccepted(executor SQLExecutor, shiftID, employeeID int64) error {
	query := `UPDATE shifts
	          SET accepted_by = array_remove(accepted_by, $2), updated_at = NOW()
	          WHERE id = $1 AND accepted_by @> ARRAY[$2]::bigint[]`
	return execConditional(executor, query, "removing accepted employee", shiftID, employeeID)
}

func (r *shiftRepository) ReopenIfShort(executor SQLExecutor, shiftID int64) error {
	query := `UPDATE shifts SET status = 'open', updated_at = NOW()
	          WHERE id = $1 AND status = 'accepted'
	            AND COALESCE(array_length(accepted_by, 1), 0) < required_employees`
	_, err := executor.Exec(query, shiftID)
	if err != nil {
		return fmt.Errorf("%w: reopening shift: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *shiftRepository) BlockEmployee(executor SQLExecutor, shiftID, employeeID int64) error {
	query := `UPDATE shifts
	          SET blocked_employees = array_append(blocked_employees, $2), updated_at = NOW()
	          WHERE id = $1 AND NOT (blocked_employees @> ARRAY[$2]::bigint[])`
	// Already-blocked is not an error; the block list is a set.
	_, err := executor.Exec(query, shiftID, employeeID)
	if err != nil {
		return fmt.Errorf("%w: blocking employee: %v", ErrDatabaseError, err)
	}
	return nil
}

// execConditional runs a guarded UPDATE/DELETE and maps "no row matched"
// onto ErrConditionFailed so services can re-read and explain.
func execConditional(executor SQLExecutor, query, context string, args ...interface{}) error {
	res, err := executor.Exec(query, args...)
	if err != nil {
		return wrapPQError(err, context)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDatabaseError, context, err)
	}
	if affected == 0 {
		return ErrConditionFailed
	}
	return nil
}
