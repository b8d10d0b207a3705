package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cafeshift_backend/internal/models"

	"github.com/lib/pq"
)

// PaymentRepository persists platform -> employee weekly settlement records.
// The (employee_id, week_start) unique constraint keeps one record per
// employee per ISO week; UpsertWeekPayment leans on it.
type PaymentRepository interface {
	GetWeekPayment(employeeID int64, weekStart string) (*models.EmployeeWeekPayment, error)
	GetWeekPaymentsBetween(weekFrom, weekTo string) ([]models.EmployeeWeekPayment, error)
	// UpsertWeekPayment inserts or replaces the settlement row for the
	// (employee, week) pair, overwriting the amount and shift list with the
	// freshly recomputed values.
	UpsertWeekPayment(executor SQLExecutor, payment *models.EmployeeWeekPayment) (*models.EmployeeWeekPayment, error)
}

type paymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a new instance of PaymentRepository.
func NewPaymentRepository(db *sql.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

const selectWeekPaymentFields = `
	id, employee_id, week_start, amount, shift_ids, status, payment_proof_ref, paid_at, paid_by, created_at, updated_at
`

func scanWeekPaymentRow(row scanner) (*models.EmployeeWeekPayment, error) {
	var p models.EmployeeWeekPayment
	var shiftIDs pq.Int64Array
	var proofRef sql.NullString
	var paidAt sql.NullTime
	var paidBy sql.NullInt64

	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.WeekStart, &p.Amount, &shiftIDs, &p.Status,
		&proofRef, &paidAt, &paidBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning week payment: %v", ErrDatabaseError, err)
	}

	p.ShiftIDs = []int64(shiftIDs)
	if proofRef.Valid {
		p.PaymentProofRef = &proofRef.String
	}
	if paidAt.Valid {
		p.PaidAt = &paidAt.Time
	}
	if paidBy.Valid {
		p.PaidBy = &paidBy.Int64
	}
	return &p, nil
}

func (r *paymentRepository) GetWeekPayment(employeeID int64, weekStart string) (*models.EmployeeWeekPayment, error) {
	query := "SELECT " + selectWeekPaymentFields + " FROM employee_week_payments WHERE employee_id = $1 AND week_start = $2"
	return scanWeekPaymentRow(r.db.QueryRow(query, employeeID, weekStart))
}

func (r *paymentRepository) GetWeekPaymentsBetween(weekFrom, weekTo string) ([]models.EmployeeWeekPayment, error) {
	query := "SELECT " + selectWeekPaymentFields + ` FROM employee_week_payments
	          WHERE week_start >= $1 AND week_start <= $2
	          ORDER BY week_start, employee_id`
	rows, err := r.db.Query(query, weekFrom, weekTo)
	if err != nil {
		return nil, fmt.Errorf("%w: listing week payments: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	payments := []models.EmployeeWeekPayment{}
	for rows.Next() {
		p, err := scanWeekPaymentRow(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating week payments: %v", ErrDatabaseError, err)
	}
	return payments, nil
}

func (r *paymentRepository) UpsertWeekPayment(executor SQLExecutor, payment *models.EmployeeWeekPayment) (*models.EmployeeWeekPayment, error) {
	query := `INSERT INTO employee_week_payments
	            (employee_id, week_start, amount, shift_ids, status, payment_proof_ref, paid_at, paid_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          ON CONFLICT (employee_id, week_start) DO UPDATE
	          SET amount = $3, shift_ids = $4, status = $5, payment_proof_ref = $6,
	              paid_at = $7, paid_by = $8, updated_at = $10
	          RETURNING id, created_at, updated_at`

	currentTime := time.Now()
	payment.CreatedAt = currentTime
	payment.UpdatedAt = currentTime

	err := executor.QueryRow(query,
		payment.EmployeeID, payment.WeekStart, payment.Amount, pq.Array(payment.ShiftIDs),
		payment.Status, payment.PaymentProofRef, payment.PaidAt, payment.PaidBy,
		payment.CreatedAt, payment.UpdatedAt,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)

	if err != nil {
		return nil, wrapPQError(err, "upserting week payment")
	}
	return payment, nil
}
