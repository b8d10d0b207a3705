package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cafeshift_backend/internal/models"
)

// ApplicationRepository defines the interface for formal shift applications.
// The (shift_id, employee_id) unique constraint in the schema is what makes
// "at most one application per employee per shift" hold under concurrency.
type ApplicationRepository interface {
	CreateApplication(executor SQLExecutor, app *models.Application) (*models.Application, error)
	GetApplicationByID(id int64) (*models.Application, error)
	GetApplications(filters models.ApplicationFilters) ([]models.Application, error)
	// UpdateApplicationStatus moves a pending application to a terminal
	// status, recording the reviewer and an optional rejection reason.
	UpdateApplicationStatus(executor SQLExecutor, id int64, from, to string, reviewedBy *int64, reason *string) error
	// RejectPendingForShift bulk-rejects every pending application on a
	// shift except the one just accepted. Returns how many were rejected.
	RejectPendingForShift(executor SQLExecutor, shiftID, exceptID int64, reviewedBy int64, reason string) (int64, error)
	// UpsertRejection records a cafe-side rejection of an employee on a
	// shift, creating the application record if none exists yet.
	UpsertRejection(executor SQLExecutor, shiftID, employeeID, reviewedBy int64, reason string) error
}

type applicationRepository struct {
	db *sql.DB
}

// NewApplicationRepository creates a new instance of ApplicationRepository.
func NewApplicationRepository(db *sql.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

const selectApplicationFields = `
	id, shift_id, employee_id, status, reviewed_by, rejection_reason, reviewed_at, created_at, updated_at
`

func scanApplicationRow(row scanner) (*models.Application, error) {
	var app models.Application
	var reviewedBy sql.NullInt64
	var rejectionReason sql.NullString
	var reviewedAt sql.NullTime

	err := row.Scan(
		&app.ID, &app.ShiftID, &app.EmployeeID, &app.Status,
		&reviewedBy, &rejectionReason, &reviewedAt,
		&app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning application: %v", ErrDatabaseError, err)
	}

	if reviewedBy.Valid {
		app.ReviewedBy = &reviewedBy.Int64
	}
	if rejectionReason.Valid {
		app.RejectionReason = &rejectionReason.String
	}
	if reviewedAt.Valid {
		app.ReviewedAt = &reviewedAt.Time
	}
	return &app, nil
}

func (r *applicationRepository) CreateApplication(executor SQLExecutor, app *models.Application) (*models.Application, error) {
	query := `INSERT INTO applications (shift_id, employee_id, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, created_at, updated_at`

	currentTime := time.Now()
	app.CreatedAt = currentTime
	app.UpdatedAt = currentTime

	err := executor.QueryRow(query,
		app.ShiftID, app.EmployeeID, app.Status, app.CreatedAt, app.UpdatedAt,
	).Scan(&app.ID, &app.CreatedAt, &app.UpdatedAt)

	if err != nil {
		return nil, wrapPQError(err, "creating application")
	}
	return app, nil
}

func (r *applicationRepository) GetApplicationByID(id int64) (*models.Application, error) {
	query := "SELECT " + selectApplicationFields + " FROM applications WHERE id = $1"
	return scanApplicationRow(r.db.QueryRow(query, id))
}

func (r *applicationRepository) GetApplications(filters models.ApplicationFilters) ([]models.Application, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + selectApplicationFields + " FROM applications")

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.ShiftID != nil {
		conditions = append(conditions, fmt.Sprintf("shift_id = $%d", argCount))
		args = append(args, *filters.ShiftID)
		argCount++
	}
	if filters.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", argCount))
		args = append(args, *filters.EmployeeID)
		argCount++
	}
	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at, id")

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing applications: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	apps := []models.Application{}
	for rows.Next() {
		app, err := scanApplicationRow(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating applications: %v", ErrDatabaseError, err)
	}
	return apps, nil
}

func (r *applicationRepository) UpdateApplicationStatus(executor SQLExecutor, id int64, from, to string, reviewedBy *int64, reason *string) error {
	query := `UPDATE applications
	          SET status = $3, reviewed_by = $4, rejection_reason = $5, reviewed_at = NOW(), updated_at = NOW()
	          WHERE id = $1 AND status = $2`
	return execConditional(executor, query, "updating application status", id, from, to, reviewedBy, reason)
}

func (r *applicationRepository) RejectPendingForShift(executor SQLExecutor, shiftID, exceptID int64, reviewedBy int64, reason string) (int64, error) {
	query := `UPDATE applications
	          SET status = 'rejected', reviewed_by = $3, rejection_reason = $4, reviewed_at = NOW(), updated_at = NOW()
	          WHERE shift_id = $1 AND id <> $2 AND status = 'pending'`
	res, err := executor.Exec(query, shiftID, exceptID, reviewedBy, reason)
	if err != nil {
		return 0, fmt.Errorf("%w: bulk-rejecting applications: %v", ErrDatabaseError, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: bulk-rejecting applications: %v", ErrDatabaseError, err)
	}
	return affected, nil
}

func (r *applicationRepository) UpsertRejection(executor SQLExecutor, shiftID, employeeID, reviewedBy int64, reason string) error {
	query := `INSERT INTO applications (shift_id, employee_id, status, reviewed_by, rejection_reason, reviewed_at, created_at, updated_at)
	          VALUES ($1, $2, 'rejected', $3, $4, NOW(), NOW(), NOW())
	          ON CONFLICT (shift_id, employee_id) DO UPDATE
	          SET status = 'rejected', reviewed_by = $3, rejection_reason = $4, reviewed_at = NOW(), updated_at = NOW()`
	_, err := executor.Exec(query, shiftID, employeeID, reviewedBy, reason)
	if err != nil {
		return fmt.Errorf("%w: recording rejection: %v", ErrDatabaseError, err)
	}
	return nil
}
