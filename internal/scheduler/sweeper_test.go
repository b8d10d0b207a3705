package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"cafeshift_backend/internal/models"
	"cafeshift_backend/internal/repositories"
	"cafeshift_backend/internal/services"
)

// stubShiftRepo implements just enough of repositories.ShiftRepository for
// the sweeper: listing accepted shifts and the guarded status flip.
type stubShiftRepo struct {
	mu     sync.Mutex
	shifts map[int64]*models.Shift
}

func newStubShiftRepo(shifts ...*models.Shift) *stubShiftRepo {
	r := &stubShiftRepo{shifts: map[int64]*models.Shift{}}
	for _, s := range shifts {
		r.shifts[s.ID] = s
	}
	return r
}

func (r *stubShiftRepo) GetShiftsByStatus(status string) ([]models.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Shift
	for _, s := range r.shifts {
		if s.Status == status {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubShiftRepo) UpdateShiftStatus(_ repositories.SQLExecutor, id int64, from []string, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[id]
	if !ok {
		return repositories.ErrConditionFailed
	}
	for _, f := range from {
		if s.Status == f {
			s.Status = to
			return nil
		}
	}
	return repositories.ErrConditionFailed
}

func (r *stubShiftRepo) status(id int64) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shifts[id].Status
}

// Unused interface methods.
func (r *stubShiftRepo) CreateShift(repositories.SQLExecutor, *models.Shift) (*models.Shift, error) {
	panic("not used")
}
func (r *stubShiftRepo) GetShiftByID(int64) (*models.Shift, error) { panic("not used") }
func (r *stubShiftRepo) GetShifts(models.ShiftFilters) ([]models.Shift, int, error) {
	panic("not used")
}
func (r *stubShiftRepo) GetAcceptedShiftsForEmployeeOnDate(int64, string) ([]models.Shift, error) {
	panic("not used")
}
func (r *stubShiftRepo) GetCompletedShiftsBetween(string, string) ([]models.Shift, error) {
	panic("not used")
}
func (r *stubShiftRepo) CountShiftsByCafe(int64) (int, error) { panic("not used") }
func (r *stubShiftRepo) UpdateShift(repositories.SQLExecutor, *models.Shift) (*models.Shift, error) {
	panic("not used")
}
func (r *stubShiftRepo) ApproveShift(repositories.SQLExecutor, int64, *float64) error {
	panic("not used")
}
func (r *stubShiftRepo) SetPaymentProof(repositories.SQLExecutor, int64, string) error {
	panic("not used")
}
func (r *stubShiftRepo) RecordCafePenalty(repositories.SQLExecutor, int64, float64) error {
	panic("not used")
}
func (r *stubShiftRepo) AddEmployeePenalty(repositories.SQLExecutor, int64, float64) error {
	panic("not used")
}
func (r *stubShiftRepo) DeleteShift(repositories.SQLExecutor, int64) error { panic("not used") }
func (r *stubShiftRepo) AppendAccepted(repositories.SQLExecutor, int64, int64) (int, int, error) {
	panic("not used")
}
func (r *stubShiftRepo) PromoteIfFull(repositories.SQLExecutor, int64) error { panic("not used") }
func (r *stubShiftRepo) RemoveAccepted(repositories.SQLExecutor, int64, int64) error {
	panic("not used")
}
func (r *stubShiftRepo) ReopenIfShort(repositories.SQLExecutor, int64) error { panic("not used") }
func (r *stubShiftRepo) BlockEmployee(repositories.SQLExecutor, int64, int64) error {
	panic("not used")
}

// stubInvoiceService records settled invoices per shift and enforces the
// one-invoice-per-shift rule like the real service.
type stubInvoiceService struct {
	mu      sync.Mutex
	created map[int64]int
}

func newStubInvoiceService() *stubInvoiceService {
	return &stubInvoiceService{created: map[int64]int{}}
}

func (s *stubInvoiceService) CreateSettledInvoice(shift *models.Shift) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created[shift.ID] > 0 {
		return nil, services.ErrInvoiceExists
	}
	s.created[shift.ID]++
	return &models.Invoice{ShiftID: shift.ID, Status: models.InvoiceStatusPaid}, nil
}

func (s *stubInvoiceService) count(shiftID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created[shiftID]
}

func (s *stubInvoiceService) GenerateInvoice(services.Actor, int64) (*models.Invoice, error) {
	panic("not used")
}
func (s *stubInvoiceService) GetInvoiceByID(services.Actor, int64) (*models.Invoice, error) {
	panic("not used")
}
func (s *stubInvoiceService) GetInvoices(services.Actor, models.InvoiceFilters) ([]models.Invoice, int, error) {
	panic("not used")
}
func (s *stubInvoiceService) ApproveInvoice(int64) (*models.Invoice, error) { panic("not used") }
func (s *stubInvoiceService) SubmitProof(services.Actor, int64, string) (*models.Invoice, error) {
	panic("not used")
}
func (s *stubInvoiceService) MarkPaid(int64) (*models.Invoice, error) { panic("not used") }
func (s *stubInvoiceService) RejectProof(int64, string) (*models.Invoice, error) {
	panic("not used")
}
func (s *stubInvoiceService) RenderPDF(services.Actor, int64) ([]byte, string, error) {
	panic("not used")
}

func sweepShift(id int64, date, start, end string, accepted []int64) *models.Shift {
	return &models.Shift{
		ID:                id,
		CafeID:            1,
		Date:              date,
		StartTime:         start,
		EndTime:           end,
		RequiredEmployees: len(accepted),
		Status:            models.ShiftStatusAccepted,
		AcceptedBy:        accepted,
		HourlyRate:        16,
	}
}

func TestRunOnceCompletesEndedShifts(t *testing.T) {
	now := time.Date(2026, 9, 1, 20, 0, 0, 0, time.Local)
	today := now.Format("2006-01-02")

	ended := sweepShift(1, today, "09:00", "17:00", []int64{7})
	running := sweepShift(2, today, "18:00", "23:00", []int64{8})
	repo := newStubShiftRepo(ended, running)
	invoices := newStubInvoiceService()

	sw := NewSweeper(repo, invoices, NewLocalLocker(), nil, time.Minute)
	sw.now = func() time.Time { return now }

	if err := sw.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if got := repo.status(1); got != models.ShiftStatusCompleted {
		t.Errorf("ended shift status = %q, want completed", got)
	}
	if invoices.count(1) != 1 {
		t.Errorf("ended shift invoices = %d, want 1", invoices.count(1))
	}
	if got := repo.status(2); got != models.ShiftStatusAccepted {
		t.Errorf("running shift status = %q, want still accepted", got)
	}
	if invoices.count(2) != 0 {
		t.Errorf("running shift invoices = %d, want 0", invoices.count(2))
	}
}

func TestRunOnceIdempotent(t *testing.T) {
	now := time.Date(2026, 9, 1, 20, 0, 0, 0, time.Local)
	today := now.Format("2006-01-02")

	ended := sweepShift(1, today, "09:00", "17:00", []int64{7})
	repo := newStubShiftRepo(ended)
	invoices := newStubInvoiceService()

	sw := NewSweeper(repo, invoices, NewLocalLocker(), nil, time.Minute)
	sw.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if err := sw.RunOnce(context.Background()); err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
	}

	if invoices.count(1) != 1 {
		t.Errorf("invoices after repeated runs = %d, want exactly 1", invoices.count(1))
	}
	if got := repo.status(1); got != models.ShiftStatusCompleted {
		t.Errorf("status after repeated runs = %q, want completed", got)
	}
}

func TestSweepSkipsWhenLeaseHeld(t *testing.T) {
	now := time.Date(2026, 9, 1, 20, 0, 0, 0, time.Local)
	today := now.Format("2006-01-02")

	repo := newStubShiftRepo(sweepShift(1, today, "09:00", "17:00", []int64{7}))
	invoices := newStubInvoiceService()

	held := NewLocalLocker()
	if ok, _ := held.Acquire(context.Background(), time.Minute); !ok {
		t.Fatal("pre-acquire failed")
	}

	sw := NewSweeper(repo, invoices, held, nil, time.Minute)
	sw.now = func() time.Time { return now }

	if err := sw.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if invoices.count(1) != 0 {
		t.Errorf("invoices = %d, want 0 while the lease is held elsewhere", invoices.count(1))
	}
}

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	ok, err := l.Acquire(ctx, time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire = (%v, %v), want (true, nil)", ok, err)
	}
	if ok, _ := l.Acquire(ctx, time.Minute); ok {
		t.Error("second acquire succeeded while held")
	}
	l.Release(ctx)
	if ok, _ := l.Acquire(ctx, time.Minute); !ok {
		t.Error("acquire after release failed")
	}
}
