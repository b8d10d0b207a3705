package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"cafeshift_backend/internal/models"
	"cafeshift_backend/internal/repositories"
)

// In-memory repository fakes. They mirror the SQL semantics the real
// repositories promise, including the conditional-update sentinels, so the
// services under test see the same error surface.

type fakeShiftRepo struct {
	mu     sync.Mutex
	nextID int64
	shifts map[int64]*models.Shift
}

func newFakeShiftRepo() *fakeShiftRepo {
	return &fakeShiftRepo{nextID: 1, shifts: map[int64]*models.Shift{}}
}

func (r *fakeShiftRepo) put(s *models.Shift) *models.Shift {
	if s.ID == 0 {
		s.ID = r.nextID
		r.nextID++
	} else if s.ID >= r.nextID {
		r.nextID = s.ID + 1
	}
	cp := *s
	r.shifts[s.ID] = &cp
	return s
}

func (r *fakeShiftRepo) seed(s *models.Shift) *models.Shift {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.AcceptedBy == nil {
		s.AcceptedBy = []int64{}
	}
	if s.BlockedEmployees == nil {
		s.BlockedEmployees = []int64{}
	}
	return r.put(s)
}

func (r *fakeShiftRepo) CreateShift(_ repositories.SQLExecutor, shift *models.Shift) (*models.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	shift.CreatedAt = time.Now()
	shift.UpdatedAt = shift.CreatedAt
	return r.put(shift), nil
}

func (r *fakeShiftRepo) GetShiftByID(id int64) (*models.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeShiftRepo) GetShifts(filters models.ShiftFilters) ([]models.Shift, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Shift
	for _, s := range r.shifts {
		if filters.CafeID != nil && s.CafeID != *filters.CafeID {
			continue
		}
		if filters.Status != nil && s.Status != *filters.Status {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r *fakeShiftRepo) GetShiftsByStatus(status string) ([]models.Shift, error) {
	s := status
	out, _, err := r.GetShifts(models.ShiftFilters{Status: &s})
	return out, err
}

func (r *fakeShiftRepo) GetAcceptedShiftsForEmployeeOnDate(employeeID int64, date string) ([]models.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Shift
	for _, s := range r.shifts {
		if s.Date != date {
			continue
		}
		if s.Status != models.ShiftStatusOpen && s.Status != models.ShiftStatusAccepted {
			continue
		}
		if s.HasAccepted(employeeID) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeShiftRepo) GetCompletedShiftsBetween(dateFrom, dateTo string) ([]models.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Shift
	for _, s := range r.shifts {
		if s.Status == models.ShiftStatusCompleted && s.Date >= dateFrom && s.Date <= dateTo {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeShiftRepo) CountShiftsByCafe(cafeID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.shifts {
		if s.CafeID == cafeID {
			n++
		}
	}
	return n, nil
}

func (r *fakeShiftRepo) UpdateShift(_ repositories.SQLExecutor, shift *models.Shift) (*models.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.shifts[shift.ID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	shift.AcceptedBy = existing.AcceptedBy
	shift.BlockedEmployees = existing.BlockedEmployees
	shift.Status = existing.Status
	shift.UpdatedAt = time.Now()
	r.put(shift)
	return shift, nil
}

func (r *fakeShiftRepo) ApproveShift(_ repositories.SQLExecutor, id int64, employeeRate *float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[id]
	if !ok || s.Status != models.ShiftStatusPendingApproval {
		return repositories.ErrConditionFailed
	}
	s.Status = models.ShiftStatusOpen
	if employeeRate != nil {
		s.EmployeeRate = employeeRate
	}
	return nil
}

func (r *fakeShiftRepo) UpdateShiftStatus(_ repositories.SQLExecutor, id int64, fromStatuses []string, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[id]
	if !ok {
		return repositories.ErrConditionFailed
	}
	for _, from := range fromStatuses {
		if s.Status == from {
			s.Status = to
			return nil
		}
	}
	return repositories.ErrConditionFailed
}

func (r *fakeShiftRepo) SetPaymentProof(_ repositories.SQLExecutor, id int64, proofRef string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[id]
	if !ok {
		return repositories.ErrConditionFailed
	}
	s.PaymentProofRef = &proofRef
	return nil
}

func (r *fakeShiftRepo) RecordCafePenalty(_ repositories.SQLExecutor, id int64, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[id]
	if !ok {
		return repositories.ErrConditionFailed
	}
	s.CafePenalty = amount
	return nil
}

func (r *fakeShiftRepo) AddEmployeePenalty(_ repositories.SQLExecutor, id int64, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[id]
	if !ok {
		return repositories.ErrConditionFailed
	}
	s.EmployeePenalty += amount
	return nil
}

func (r *fakeShiftRepo) DeleteShift(_ repositories.SQLExecutor, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.shifts[id]; !ok {
		return repositories.ErrConditionFailed
	}
	delete(r.shifts, id)
	return nil
}

func (r *fakeShiftRepo) AppendAccepted(_ repositories.SQLExecutor, shiftID, employeeID int64) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[shiftID]
	if !ok {
		return 0, 0, repositories.ErrConditionFailed
	}
	if s.Status != models.ShiftStatusOpen ||
		len(s.AcceptedBy) >= s.RequiredEmployees ||
		s.HasAccepted(employeeID) || s.IsBlocked(employeeID) {
		return 0, 0, repositories.ErrConditionFailed
	}
	s.AcceptedBy = append(s.AcceptedBy, employeeID)
	return len(s.AcceptedBy), s.RequiredEmployees, nil
}

func (r *fakeShiftRepo) PromoteIfFull(_ repositories.SQLExecutor, shiftID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[shiftID]
	if !ok {
		return repositories.ErrConditionFailed
	}
	if s.Status == models.ShiftStatusOpen && len(s.AcceptedBy) >= s.RequiredEmployees {
		s.Status = models.ShiftStatusAccepted
	}
	return nil
}

func (r *fakeShiftRepo) RemoveAccepted(_ repositories.SQLExecutor, shiftID, employeeID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[shiftID]
	if !ok || !s.HasAccepted(employeeID) {
		return repositories.ErrConditionFailed
	}
	kept := s.AcceptedBy[:0]
	for _, id := range s.AcceptedBy {
		if id != employeeID {
			kept = append(kept, id)
		}
	}
	s.AcceptedBy = kept
	return nil
}

func (r *fakeShiftRepo) ReopenIfShort(_ repositories.SQLExecutor, shiftID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[shiftID]
	if !ok {
		return repositories.ErrConditionFailed
	}
	if s.Status == models.ShiftStatusAccepted && len(s.AcceptedBy) < s.RequiredEmployees {
		s.Status = models.ShiftStatusOpen
	}
	return nil
}

func (r *fakeShiftRepo) BlockEmployee(_ repositories.SQLExecutor, shiftID, employeeID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[shiftID]
	if !ok {
		return repositories.ErrConditionFailed
	}
	if !s.IsBlocked(employeeID) {
		s.BlockedEmployees = append(s.BlockedEmployees, employeeID)
	}
	return nil
}

type fakeAppRepo struct {
	mu     sync.Mutex
	nextID int64
	apps   map[int64]*models.Application
}

func newFakeAppRepo() *fakeAppRepo {
	return &fakeAppRepo{nextID: 1, apps: map[int64]*models.Application{}}
}

func (r *fakeAppRepo) CreateApplication(_ repositories.SQLExecutor, app *models.Application) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.apps {
		if existing.ShiftID == app.ShiftID && existing.EmployeeID == app.EmployeeID {
			return nil, repositories.ErrDuplicateKey
		}
	}
	app.ID = r.nextID
	r.nextID++
	app.CreatedAt = time.Now()
	app.UpdatedAt = app.CreatedAt
	cp := *app
	r.apps[app.ID] = &cp
	return app, nil
}

func (r *fakeAppRepo) GetApplicationByID(id int64) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAppRepo) GetApplications(filters models.ApplicationFilters) ([]models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Application
	for _, a := range r.apps {
		if filters.ShiftID != nil && a.ShiftID != *filters.ShiftID {
			continue
		}
		if filters.EmployeeID != nil && a.EmployeeID != *filters.EmployeeID {
			continue
		}
		if filters.Status != nil && a.Status != *filters.Status {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAppRepo) UpdateApplicationStatus(_ repositories.SQLExecutor, id int64, from, to string, reviewedBy *int64, reason *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	if !ok || a.Status != from {
		return repositories.ErrConditionFailed
	}
	now := time.Now()
	a.Status = to
	a.ReviewedBy = reviewedBy
	a.RejectionReason = reason
	a.ReviewedAt = &now
	return nil
}

func (r *fakeAppRepo) RejectPendingForShift(_ repositories.SQLExecutor, shiftID, exceptID, reviewedBy int64, reason string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	now := time.Now()
	for _, a := range r.apps {
		if a.ShiftID == shiftID && a.ID != exceptID && a.Status == models.ApplicationStatusPending {
			a.Status = models.ApplicationStatusRejected
			a.ReviewedBy = &reviewedBy
			reasonCopy := reason
			a.RejectionReason = &reasonCopy
			a.ReviewedAt = &now
			n++
		}
	}
	return n, nil
}

func (r *fakeAppRepo) UpsertRejection(_ repositories.SQLExecutor, shiftID, employeeID, reviewedBy int64, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, a := range r.apps {
		if a.ShiftID == shiftID && a.EmployeeID == employeeID {
			a.Status = models.ApplicationStatusRejected
			a.ReviewedBy = &reviewedBy
			a.RejectionReason = &reason
			a.ReviewedAt = &now
			return nil
		}
	}
	a := &models.Application{
		ID: r.nextID, ShiftID: shiftID, EmployeeID: employeeID,
		Status: models.ApplicationStatusRejected, ReviewedBy: &reviewedBy,
		RejectionReason: &reason, ReviewedAt: &now, CreatedAt: now, UpdatedAt: now,
	}
	r.nextID++
	r.apps[a.ID] = a
	return nil
}

type fakeConfigRepo struct {
	cfg models.PlatformConfig
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{cfg: models.DefaultPlatformConfig()}
}

func (r *fakeConfigRepo) LoadPlatformConfig() (models.PlatformConfig, error) { return r.cfg, nil }
func (r *fakeConfigRepo) GetSettings() ([]models.PlatformSetting, error) {
	return []models.PlatformSetting{}, nil
}
func (r *fakeConfigRepo) GetSettingByKey(key string) (*models.PlatformSetting, error) {
	return nil, repositories.ErrNotFound
}
func (r *fakeConfigRepo) UpsertSetting(_ repositories.SQLExecutor, setting *models.PlatformSetting) (*models.PlatformSetting, error) {
	return setting, nil
}
func (r *fakeConfigRepo) DeleteSettingByKey(_ repositories.SQLExecutor, key string) error {
	return nil
}

type fakeInvoiceRepo struct {
	mu       sync.Mutex
	nextID   int64
	invoices map[int64]*models.Invoice
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{nextID: 1, invoices: map[int64]*models.Invoice{}}
}

func (r *fakeInvoiceRepo) CreateInvoice(_ repositories.SQLExecutor, invoice *models.Invoice) (*models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.invoices {
		if existing.ShiftID == invoice.ShiftID {
			return nil, repositories.ErrDuplicateKey
		}
	}
	invoice.ID = r.nextID
	r.nextID++
	invoice.CreatedAt = time.Now()
	invoice.UpdatedAt = invoice.CreatedAt
	cp := *invoice
	r.invoices[invoice.ID] = &cp
	return invoice, nil
}

func (r *fakeInvoiceRepo) GetInvoiceByID(id int64) (*models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (r *fakeInvoiceRepo) GetInvoiceByShiftID(shiftID int64) (*models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invoices {
		if inv.ShiftID == shiftID {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeInvoiceRepo) GetInvoices(filters models.InvoiceFilters) ([]models.Invoice, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Invoice
	for _, inv := range r.invoices {
		if filters.CafeID != nil && inv.CafeID != *filters.CafeID {
			continue
		}
		if filters.Status != nil && inv.Status != *filters.Status {
			continue
		}
		out = append(out, *inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r *fakeInvoiceRepo) UpdateInvoiceStatus(_ repositories.SQLExecutor, id int64, from []string, to string, proofRef, rejectionReason *string, paidAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return repositories.ErrConditionFailed
	}
	matched := false
	for _, f := range from {
		if inv.Status == f {
			matched = true
			break
		}
	}
	if !matched {
		return repositories.ErrConditionFailed
	}
	inv.Status = to
	if proofRef != nil {
		inv.PaymentProofRef = proofRef
	}
	inv.RejectionReason = rejectionReason
	if paidAt != nil {
		inv.PaidAt = paidAt
	}
	return nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	nextID   int64
	payments map[string]*models.EmployeeWeekPayment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{nextID: 1, payments: map[string]*models.EmployeeWeekPayment{}}
}

func paymentKey(employeeID int64, weekStart string) string {
	return fmt.Sprintf("%s/%d", weekStart, employeeID)
}

func (r *fakePaymentRepo) GetWeekPayment(employeeID int64, weekStart string) (*models.EmployeeWeekPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[paymentKey(employeeID, weekStart)]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) GetWeekPaymentsBetween(weekFrom, weekTo string) ([]models.EmployeeWeekPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.EmployeeWeekPayment
	for _, p := range r.payments {
		if p.WeekStart >= weekFrom && p.WeekStart <= weekTo {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) UpsertWeekPayment(_ repositories.SQLExecutor, payment *models.EmployeeWeekPayment) (*models.EmployeeWeekPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := paymentKey(payment.EmployeeID, payment.WeekStart)
	if existing, ok := r.payments[key]; ok {
		payment.ID = existing.ID
	} else {
		payment.ID = r.nextID
		r.nextID++
	}
	cp := *payment
	r.payments[key] = &cp
	return payment, nil
}
