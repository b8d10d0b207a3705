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

// InvoiceRepository defines the interface for invoice persistence. The
// unique constraint on shift_id is the at-most-one-invoice-per-shift
// backstop; CreateInvoice surfaces it as ErrDuplicateKey.
type InvoiceRepository interface {
	CreateInvoice(executor SQLExecutor, invoice *models.Invoice) (*models.Invoice, error)
	GetInvoiceByID(id int64) (*models.Invoice, error)
	GetInvoiceByShiftID(shiftID int64) (*models.Invoice, error)
	GetInvoices(filters models.InvoiceFilters) ([]models.Invoice, int, error)
	// UpdateInvoiceStatus moves an invoice along the approval workflow,
	// guarded by its current status.
	UpdateInvoiceStatus(executor SQLExecutor, id int64, from []string, to string, proofRef, rejectionReason *string, paidAt *time.Time) error
}

type invoiceRepository struct {
	db *sql.DB
}

// NewInvoiceRepository creates a new instance of InvoiceRepository.
func NewInvoiceRepository(db *sql.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

const selectInvoiceFields = `
	id, cafe_id, shift_id, number, shift_date, start_time, end_time, hours, headcount,
	base_amount, platform_fee, penalty_amount, total, status, paid_at, payment_proof_ref,
	rejection_reason, created_at, updated_at
`

func scanInvoiceRow(row scanner, isList bool) (*models.Invoice, int, error) {
	var inv models.Invoice
	var paidAt sql.NullTime
	var proofRef, rejectionReason sql.NullString
	var totalCount int

	scanDest := []interface{}{
		&inv.ID, &inv.CafeID, &inv.ShiftID, &inv.Number,
		&inv.ShiftDate, &inv.StartTime, &inv.EndTime, &inv.Hours, &inv.Headcount,
		&inv.BaseAmount, &inv.PlatformFee, &inv.PenaltyAmount, &inv.Total, &inv.Status,
		&paidAt, &proofRef, &rejectionReason, &inv.CreatedAt, &inv.UpdatedAt,
	}
	if isList {
		scanDest = append(scanDest, &totalCount)
	}

	if err := row.Scan(scanDest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("%w: scanning invoice: %v", ErrDatabaseError, err)
	}

	if paidAt.Valid {
		inv.PaidAt = &paidAt.Time
	}
	if proofRef.Valid {
		inv.PaymentProofRef = &proofRef.String
	}
	if rejectionReason.Valid {
		inv.RejectionReason = &rejectionReason.String
	}
	return &inv, totalCount, nil
}

func (r *invoiceRepository) CreateInvoice(executor SQLExecutor, invoice *models.Invoice) (*models.Invoice, error) {
	query := `INSERT INTO invoices
	            (cafe_id, shift_id, number, shift_date, start_time, end_time, hours, headcount,
	             base_amount, platform_fee, penalty_amount, total, status, paid_at, payment_proof_ref,
	             rejection_reason, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	          RETURNING id, created_at, updated_at`

	currentTime := time.Now()
	invoice.CreatedAt = currentTime
	invoice.UpdatedAt = currentTime

	err := executor.QueryRow(query,
		invoice.CafeID, invoice.ShiftID, invoice.Number,
		invoice.ShiftDate, invoice.StartTime, invoice.EndTime, invoice.Hours, invoice.Headcount,
		invoice.BaseAmount, invoice.PlatformFee, invoice.PenaltyAmount, invoice.Total, invoice.Status,
		invoice.PaidAt, invoice.PaymentProofRef, invoice.RejectionReason,
		invoice.CreatedAt, invoice.UpdatedAt,
	).Scan(&invoice.ID, &invoice.CreatedAt, &invoice.UpdatedAt)

	if err != nil {
		return nil, wrapPQError(err, "creating invoice")
	}
	return invoice, nil
}

func (r *invoiceRepository) GetInvoiceByID(id int64) (*models.Invoice, error) {
	query := "SELECT " + selectInvoiceFields + " FROM invoices WHERE id = $1"
	invoice, _, err := scanInvoiceRow(r.db.QueryRow(query, id), false)
	return invoice, err
}

func (r *invoiceRepository) GetInvoiceByShiftID(shiftID int64) (*models.Invoice, error) {
	query := "SELECT " + selectInvoiceFields + " FROM invoices WHERE shift_id = $1"
	invoice, _, err := scanInvoiceRow(r.db.QueryRow(query, shiftID), false)
	return invoice, err
}

func (r *invoiceRepository) GetInvoices(filters models.InvoiceFilters) ([]models.Invoice, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + selectInvoiceFields + ", COUNT(*) OVER() AS total_count FROM invoices")

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.CafeID != nil {
		conditions = append(conditions, fmt.Sprintf("cafe_id = $%d", argCount))
		args = append(args, *filters.CafeID)
		argCount++
	}
	if filters.ShiftID != nil {
		conditions = append(conditions, fmt.Sprintf("shift_id = $%d", argCount))
		args = append(args, *filters.ShiftID)
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
	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: listing invoices: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	invoices := []models.Invoice{}
	totalCount := 0
	for rows.Next() {
		invoice, count, err := scanInvoiceRow(rows, true)
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, *invoice)
		totalCount = count
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating invoices: %v", ErrDatabaseError, err)
	}
	return invoices, totalCount, nil
}

func (r *invoiceRepository) UpdateInvoiceStatus(executor SQLExecutor, id int64, from []string, to string, proofRef, rejectionReason *string, paidAt *time.Time) error {
	query := `UPDATE invoices
	          SET status = $2,
	              payment_proof_ref = COALESCE($3, payment_proof_ref),
	              rejection_reason = $4,
	              paid_at = COALESCE($5, paid_at),
	              updated_at = NOW()
	          WHERE id = $1 AND status = ANY($6)`
	return execConditional(executor, query, "updating invoice status", id, to, proofRef, rejectionReason, paidAt, pq.Array(from))
}
