package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cafeshift_backend/internal/models"
	"cafeshift_backend/internal/notifier"
	"cafeshift_backend/internal/pdfgen"
	"cafeshift_backend/internal/pricing"
	"cafeshift_backend/internal/repositories"
)

// --- Custom Service Errors for Invoices ---
var (
	ErrInvoiceNotFound       = errors.New("invoice not found")
	ErrInvoiceExists         = errors.New("shift already has an invoice")
	ErrInvoiceStateConflict  = errors.New("invoice is not in a status allowing this transition")
	ErrInvoicingModeMismatch = errors.New("operation not available under the active invoicing mode")
	ErrShiftNotCompleted     = errors.New("shift must be completed before invoicing")
	ErrNotInvoiceOwner       = errors.New("invoice belongs to another cafe")
)

// --- InvoiceService Interface ---
// Under upfront invoicing the auto-completion sweep creates invoices already
// settled; the manual workflow below (draft, approved, pending_verification,
// paid) only exists under postpaid invoicing. The two modes never mix.
type InvoiceService interface {
	GenerateInvoice(actor Actor, shiftID int64) (*models.Invoice, error)
	GetInvoiceByID(actor Actor, id int64) (*models.Invoice, error)
	GetInvoices(actor Actor, filters models.InvoiceFilters) ([]models.Invoice, int, error)
	ApproveInvoice(id int64) (*models.Invoice, error)
	SubmitProof(actor Actor, id int64, proofRef string) (*models.Invoice, error)
	MarkPaid(id int64) (*models.Invoice, error)
	RejectProof(id int64, reason string) (*models.Invoice, error)
	// RenderPDF returns the invoice document bytes and a download filename.
	RenderPDF(actor Actor, id int64) ([]byte, string, error)
	// CreateSettledInvoice builds an already-paid invoice for a shift that the
	// auto-completion sweep is closing. ErrInvoiceExists when one is present.
	CreateSettledInvoice(shift *models.Shift) (*models.Invoice, error)
}

type invoiceService struct {
	invoiceRepo repositories.InvoiceRepository
	shiftRepo   repositories.ShiftRepository
	cfgRepo     repositories.ConfigRepository
	notify      notifier.Notifier
	db          *sql.DB
	now         func() time.Time
}

// NewInvoiceService creates a new instance of InvoiceService.
func NewInvoiceService(
	ir repositories.InvoiceRepository,
	sr repositories.ShiftRepository,
	cr repositories.ConfigRepository,
	n notifier.Notifier,
	db *sql.DB,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: ir,
		shiftRepo:   sr,
		cfgRepo:     cr,
		notify:      n,
		db:          db,
		now:         time.Now,
	}
}

// invoiceNumber derives a human-readable unique number from the issue instant
// and the shift.
func (s *invoiceService) invoiceNumber(shiftID int64) string {
	return fmt.Sprintf("INV-%s-%04d", s.now().Format("20060102150405"), shiftID%10000)
}

// buildInvoice snapshots the billable facts of a shift. The snapshot is
// immutable from here on; later shift edits never reprice an issued invoice.
func (s *invoiceService) buildInvoice(shift *models.Shift, status string) (*models.Invoice, error) {
	hours, err := pricing.DurationHours(shift.StartTime, shift.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShiftValidation, err)
	}

	headcount := len(shift.AcceptedBy)
	base := pricing.BaseCost(hours, shift.HourlyRate, headcount)
	total := pricing.Round2(base + shift.PlatformFee + shift.CafePenalty)

	return &models.Invoice{
		CafeID:        shift.CafeID,
		ShiftID:       shift.ID,
		Number:        s.invoiceNumber(shift.ID),
		ShiftDate:     shift.Date,
		StartTime:     shift.StartTime,
		EndTime:       shift.EndTime,
		Hours:         hours,
		Headcount:     headcount,
		BaseAmount:    base,
		PlatformFee:   shift.PlatformFee,
		PenaltyAmount: shift.CafePenalty,
		Total:         total,
		Status:        status,
	}, nil
}

// GenerateInvoice opens the manual workflow for a completed shift (postpaid
// mode only) by issuing a draft invoice.
func (s *invoiceService) GenerateInvoice(actor Actor, shiftID int64) (*models.Invoice, error) {
	cfg, err := s.cfgRepo.LoadPlatformConfig()
	if err != nil {
		return nil, fmt.Errorf("loading platform config: %w", err)
	}
	if cfg.InvoicingMode != models.InvoicingModePostpaid {
		return nil, fmt.Errorf("%w: invoices are issued automatically under upfront invoicing", ErrInvoicingModeMismatch)
	}

	shift, err := s.shiftRepo.GetShiftByID(shiftID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("failed to get shift: %w", err)
	}
	if !actor.canActFor(shift.CafeID) {
		return nil, ErrNotShiftOwner
	}
	if shift.Status != models.ShiftStatusCompleted {
		return nil, fmt.Errorf("%w: status is '%s'", ErrShiftNotCompleted, shift.Status)
	}

	invoice, err := s.buildInvoice(shift, models.InvoiceStatusDraft)
	if err != nil {
		return nil, err
	}
	created, err := s.invoiceRepo.CreateInvoice(s.db, invoice)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrInvoiceExists
		}
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	return created, nil
}

// CreateSettledInvoice is the sweep's creation path: the cafe already paid at
// posting time, so the invoice is born paid.
func (s *invoiceService) CreateSettledInvoice(shift *models.Shift) (*models.Invoice, error) {
	invoice, err := s.buildInvoice(shift, models.InvoiceStatusPaid)
	if err != nil {
		return nil, err
	}
	paidAt := s.now()
	invoice.PaidAt = &paidAt
	invoice.PaymentProofRef = shift.PaymentProofRef

	created, err := s.invoiceRepo.CreateInvoice(s.db, invoice)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrInvoiceExists
		}
		return nil, fmt.Errorf("failed to create settled invoice: %w", err)
	}

	if s.notify != nil {
		s.notify.Send(shift.CafeID, notifier.TemplateInvoiceIssued, map[string]string{
			"invoice_number": created.Number,
			"shift_id":       fmt.Sprintf("%d", shift.ID),
		})
	}
	return created, nil
}

func (s *invoiceService) GetInvoiceByID(actor Actor, id int64) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetInvoiceByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice by ID: %w", err)
	}
	if !actor.canActFor(invoice.CafeID) {
		return nil, ErrNotInvoiceOwner
	}
	return invoice, nil
}

func (s *invoiceService) GetInvoices(actor Actor, filters models.InvoiceFilters) ([]models.Invoice, int, error) {
	// Cafes only ever see their own invoices regardless of the filter.
	if actor.Role != models.RoleAdmin {
		filters.CafeID = &actor.ID
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	invoices, totalCount, err := s.invoiceRepo.GetInvoices(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, totalCount, nil
}

func (s *invoiceService) ApproveInvoice(id int64) (*models.Invoice, error) {
	return s.transition(id, []string{models.InvoiceStatusDraft}, models.InvoiceStatusApproved, nil, nil, nil)
}

func (s *invoiceService) SubmitProof(actor Actor, id int64, proofRef string) (*models.Invoice, error) {
	if proofRef == "" {
		return nil, ErrPaymentProofRequired
	}
	invoice, err := s.GetInvoiceByID(actor, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status != models.InvoiceStatusApproved {
		return nil, fmt.Errorf("%w: status is '%s'", ErrInvoiceStateConflict, invoice.Status)
	}
	return s.transition(id, []string{models.InvoiceStatusApproved}, models.InvoiceStatusPendingVerification, &proofRef, nil, nil)
}

func (s *invoiceService) MarkPaid(id int64) (*models.Invoice, error) {
	paidAt := s.now()
	return s.transition(id, []string{models.InvoiceStatusPendingVerification}, models.InvoiceStatusPaid, nil, nil, &paidAt)
}

// RejectProof sends a submitted proof back: the invoice returns to approved
// with the rejection reason recorded, and the cafe submits again.
func (s *invoiceService) RejectProof(id int64, reason string) (*models.Invoice, error) {
	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	return s.transition(id, []string{models.InvoiceStatusPendingVerification}, models.InvoiceStatusApproved, nil, reasonPtr, nil)
}

func (s *invoiceService) transition(id int64, from []string, to string, proofRef, reason *string, paidAt *time.Time) (*models.Invoice, error) {
	err := s.invoiceRepo.UpdateInvoiceStatus(s.db, id, from, to, proofRef, reason, paidAt)
	if err != nil {
		if errors.Is(err, repositories.ErrConditionFailed) {
			invoice, getErr := s.invoiceRepo.GetInvoiceByID(id)
			if getErr != nil {
				return nil, ErrInvoiceNotFound
			}
			return nil, fmt.Errorf("%w: status is '%s'", ErrInvoiceStateConflict, invoice.Status)
		}
		return nil, fmt.Errorf("failed to update invoice status: %w", err)
	}
	invoice, err := s.invoiceRepo.GetInvoiceByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload invoice: %w", err)
	}
	return invoice, nil
}

func (s *invoiceService) RenderPDF(actor Actor, id int64) ([]byte, string, error) {
	invoice, err := s.GetInvoiceByID(actor, id)
	if err != nil {
		return nil, "", err
	}
	cfg, err := s.cfgRepo.LoadPlatformConfig()
	if err != nil {
		return nil, "", fmt.Errorf("loading platform config: %w", err)
	}

	data, err := pdfgen.RenderInvoice(invoice, cfg.Bank)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render invoice PDF: %w", err)
	}
	return data, invoice.Number + ".pdf", nil
}
