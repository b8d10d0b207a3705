package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"cafeshift_backend/internal/models"
)

func newInvoiceServiceForTest(cfgRepo *fakeConfigRepo) (InvoiceService, *fakeShiftRepo, *fakeInvoiceRepo) {
	shiftRepo := newFakeShiftRepo()
	invoiceRepo := newFakeInvoiceRepo()
	svc := NewInvoiceService(invoiceRepo, shiftRepo, cfgRepo, nil, nil).(*invoiceService)
	svc.now = func() time.Time { return testNow }
	return svc, shiftRepo, invoiceRepo
}

func seedBilledShift(repo *fakeShiftRepo, status string) *models.Shift {
	proof := "upfront-receipt.pdf"
	return repo.seed(&models.Shift{
		CafeID:            1,
		Date:              "2026-08-25",
		StartTime:         "09:00",
		EndTime:           "17:00",
		RequiredEmployees: 1,
		Status:            status,
		AcceptedBy:        []int64{7},
		HourlyRate:        16,
		PlatformFee:       25.60,
		TotalCost:         281.60,
		PaymentProofRef:   &proof,
	})
}

func TestGenerateInvoiceRequiresPostpaidMode(t *testing.T) {
	cfgRepo := newFakeConfigRepo()
	svc, shiftRepo, _ := newInvoiceServiceForTest(cfgRepo)
	shift := seedBilledShift(shiftRepo, models.ShiftStatusCompleted)

	// The default mode is upfront, where the sweep issues invoices itself.
	_, err := svc.GenerateInvoice(Actor{ID: 1, Role: models.RoleCafe}, shift.ID)
	if !errors.Is(err, ErrInvoicingModeMismatch) {
		t.Errorf("upfront mode error = %v, want ErrInvoicingModeMismatch", err)
	}
}

func TestGenerateInvoiceDraft(t *testing.T) {
	cfgRepo := newFakeConfigRepo()
	cfgRepo.cfg.InvoicingMode = models.InvoicingModePostpaid
	svc, shiftRepo, _ := newInvoiceServiceForTest(cfgRepo)
	shift := seedBilledShift(shiftRepo, models.ShiftStatusCompleted)
	cafe := Actor{ID: 1, Role: models.RoleCafe}

	if _, err := svc.GenerateInvoice(Actor{ID: 2, Role: models.RoleCafe}, shift.ID); !errors.Is(err, ErrNotShiftOwner) {
		t.Errorf("foreign cafe error = %v, want ErrNotShiftOwner", err)
	}

	invoice, err := svc.GenerateInvoice(cafe, shift.ID)
	if err != nil {
		t.Fatalf("GenerateInvoice failed: %v", err)
	}
	if invoice.Status != models.InvoiceStatusDraft {
		t.Errorf("status = %q, want draft", invoice.Status)
	}
	if !strings.HasPrefix(invoice.Number, "INV-") {
		t.Errorf("number = %q, want INV- prefix", invoice.Number)
	}
	// 8h x 16 x 1 employee, plus the fee snapshotted from the shift.
	if invoice.Hours != 8 || invoice.Headcount != 1 {
		t.Errorf("snapshot = %vh x %d, want 8h x 1", invoice.Hours, invoice.Headcount)
	}
	if invoice.BaseAmount != 128 || invoice.PlatformFee != 25.60 {
		t.Errorf("amounts = %v + %v, want 128 + 25.60", invoice.BaseAmount, invoice.PlatformFee)
	}
	if invoice.Total != 153.60 {
		t.Errorf("total = %v, want 153.60", invoice.Total)
	}

	if _, err := svc.GenerateInvoice(cafe, shift.ID); !errors.Is(err, ErrInvoiceExists) {
		t.Errorf("second invoice error = %v, want ErrInvoiceExists", err)
	}
}

func TestGenerateInvoiceShiftNotCompleted(t *testing.T) {
	cfgRepo := newFakeConfigRepo()
	cfgRepo.cfg.InvoicingMode = models.InvoicingModePostpaid
	svc, shiftRepo, _ := newInvoiceServiceForTest(cfgRepo)
	shift := seedBilledShift(shiftRepo, models.ShiftStatusAccepted)

	_, err := svc.GenerateInvoice(Actor{ID: 1, Role: models.RoleCafe}, shift.ID)
	if !errors.Is(err, ErrShiftNotCompleted) {
		t.Errorf("error = %v, want ErrShiftNotCompleted", err)
	}
}

func TestPostpaidVerificationWorkflow(t *testing.T) {
	cfgRepo := newFakeConfigRepo()
	cfgRepo.cfg.InvoicingMode = models.InvoicingModePostpaid
	svc, shiftRepo, _ := newInvoiceServiceForTest(cfgRepo)
	shift := seedBilledShift(shiftRepo, models.ShiftStatusCompleted)
	cafe := Actor{ID: 1, Role: models.RoleCafe}

	invoice, err := svc.GenerateInvoice(cafe, shift.ID)
	if err != nil {
		t.Fatalf("GenerateInvoice failed: %v", err)
	}

	// Proof cannot be submitted before the admin approves the draft.
	if _, err := svc.SubmitProof(cafe, invoice.ID, "transfer.png"); !errors.Is(err, ErrInvoiceStateConflict) {
		t.Errorf("premature proof error = %v, want ErrInvoiceStateConflict", err)
	}

	approved, err := svc.ApproveInvoice(invoice.ID)
	if err != nil {
		t.Fatalf("ApproveInvoice failed: %v", err)
	}
	if approved.Status != models.InvoiceStatusApproved {
		t.Errorf("status = %q, want approved", approved.Status)
	}

	if _, err := svc.SubmitProof(cafe, invoice.ID, ""); !errors.Is(err, ErrPaymentProofRequired) {
		t.Errorf("empty proof error = %v, want ErrPaymentProofRequired", err)
	}
	pending, err := svc.SubmitProof(cafe, invoice.ID, "transfer.png")
	if err != nil {
		t.Fatalf("SubmitProof failed: %v", err)
	}
	if pending.Status != models.InvoiceStatusPendingVerification {
		t.Errorf("status = %q, want pending_verification", pending.Status)
	}
	if pending.PaymentProofRef == nil || *pending.PaymentProofRef != "transfer.png" {
		t.Errorf("proof = %v, want transfer.png", pending.PaymentProofRef)
	}

	paid, err := svc.MarkPaid(invoice.ID)
	if err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}
	if paid.Status != models.InvoiceStatusPaid {
		t.Errorf("status = %q, want paid", paid.Status)
	}
	if paid.PaidAt == nil {
		t.Error("paid_at not set")
	}

	// Terminal state: no further transitions.
	if _, err := svc.ApproveInvoice(invoice.ID); !errors.Is(err, ErrInvoiceStateConflict) {
		t.Errorf("approve after paid error = %v, want ErrInvoiceStateConflict", err)
	}
	if _, err := svc.MarkPaid(invoice.ID); !errors.Is(err, ErrInvoiceStateConflict) {
		t.Errorf("double mark-paid error = %v, want ErrInvoiceStateConflict", err)
	}
}

func TestRejectProofReturnsToApproved(t *testing.T) {
	cfgRepo := newFakeConfigRepo()
	cfgRepo.cfg.InvoicingMode = models.InvoicingModePostpaid
	svc, shiftRepo, _ := newInvoiceServiceForTest(cfgRepo)
	shift := seedBilledShift(shiftRepo, models.ShiftStatusCompleted)
	cafe := Actor{ID: 1, Role: models.RoleCafe}

	invoice, err := svc.GenerateInvoice(cafe, shift.ID)
	if err != nil {
		t.Fatalf("GenerateInvoice failed: %v", err)
	}
	if _, err := svc.ApproveInvoice(invoice.ID); err != nil {
		t.Fatalf("ApproveInvoice failed: %v", err)
	}
	if _, err := svc.SubmitProof(cafe, invoice.ID, "blurry.png"); err != nil {
		t.Fatalf("SubmitProof failed: %v", err)
	}

	rejected, err := svc.RejectProof(invoice.ID, "amount does not match")
	if err != nil {
		t.Fatalf("RejectProof failed: %v", err)
	}
	if rejected.Status != models.InvoiceStatusApproved {
		t.Errorf("status = %q, want back to approved", rejected.Status)
	}
	if rejected.RejectionReason == nil || *rejected.RejectionReason != "amount does not match" {
		t.Errorf("reason = %v, want recorded", rejected.RejectionReason)
	}

	// The cafe submits a corrected proof.
	resubmitted, err := svc.SubmitProof(cafe, invoice.ID, "corrected.png")
	if err != nil {
		t.Fatalf("resubmitting proof: %v", err)
	}
	if resubmitted.Status != models.InvoiceStatusPendingVerification {
		t.Errorf("status = %q, want pending_verification", resubmitted.Status)
	}
}

func TestCreateSettledInvoice(t *testing.T) {
	svc, shiftRepo, _ := newInvoiceServiceForTest(newFakeConfigRepo())
	shift := seedBilledShift(shiftRepo, models.ShiftStatusCompleted)

	invoice, err := svc.CreateSettledInvoice(shift)
	if err != nil {
		t.Fatalf("CreateSettledInvoice failed: %v", err)
	}
	if invoice.Status != models.InvoiceStatusPaid {
		t.Errorf("status = %q, want born paid", invoice.Status)
	}
	if invoice.PaidAt == nil || !invoice.PaidAt.Equal(testNow) {
		t.Errorf("paid_at = %v, want %v", invoice.PaidAt, testNow)
	}
	if invoice.PaymentProofRef == nil || *invoice.PaymentProofRef != "upfront-receipt.pdf" {
		t.Errorf("proof = %v, want carried over from the shift", invoice.PaymentProofRef)
	}

	if _, err := svc.CreateSettledInvoice(shift); !errors.Is(err, ErrInvoiceExists) {
		t.Errorf("second settle error = %v, want ErrInvoiceExists", err)
	}
}

func TestGetInvoicesScopedToOwnCafe(t *testing.T) {
	svc, shiftRepo, invoiceRepo := newInvoiceServiceForTest(newFakeConfigRepo())

	own := seedBilledShift(shiftRepo, models.ShiftStatusCompleted)
	other := seedBilledShift(shiftRepo, models.ShiftStatusCompleted)
	other.CafeID = 2
	shiftRepo.seed(other)

	if _, err := svc.CreateSettledInvoice(own); err != nil {
		t.Fatalf("settling own shift: %v", err)
	}
	if _, err := svc.CreateSettledInvoice(other); err != nil {
		t.Fatalf("settling other shift: %v", err)
	}

	invoices, total, err := svc.GetInvoices(Actor{ID: 1, Role: models.RoleCafe}, models.InvoiceFilters{})
	if err != nil {
		t.Fatalf("GetInvoices failed: %v", err)
	}
	if total != 1 || len(invoices) != 1 || invoices[0].CafeID != 1 {
		t.Errorf("cafe view = %d invoices (total %d), want only its own", len(invoices), total)
	}

	all, total, err := svc.GetInvoices(Actor{ID: 99, Role: models.RoleAdmin}, models.InvoiceFilters{})
	if err != nil {
		t.Fatalf("GetInvoices as admin failed: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Errorf("admin view = %d invoices (total %d), want all 2", len(all), total)
	}

	if _, err := svc.GetInvoiceByID(Actor{ID: 2, Role: models.RoleCafe}, invoices[0].ID); !errors.Is(err, ErrNotInvoiceOwner) {
		t.Errorf("foreign invoice error = %v, want ErrNotInvoiceOwner", err)
	}
	if _, err := invoiceRepo.GetInvoiceByShiftID(own.ID); err != nil {
		t.Errorf("lookup by shift failed: %v", err)
	}
}
