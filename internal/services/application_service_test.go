package services

import (
	"errors"
	"testing"
	"time"

	"cafeshift_backend/internal/models"
)

func newApplicationServiceForTest() (ApplicationService, *shiftService, *fakeShiftRepo, *fakeAppRepo) {
	shiftSvc, shiftRepo, appRepo := newShiftServiceForTest(newFakeConfigRepo())
	appSvc := NewApplicationService(appRepo, shiftSvc, nil)
	return appSvc, shiftSvc, shiftRepo, appRepo
}

func TestApplyAndDuplicate(t *testing.T) {
	appSvc, _, shiftRepo, _ := newApplicationServiceForTest()
	shift := seedOpenShift(shiftRepo, testNow.Add(48*time.Hour), 8, 1)

	app, err := appSvc.Apply(10, shift.ID)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if app.Status != models.ApplicationStatusPending {
		t.Errorf("status = %q, want pending", app.Status)
	}

	if _, err := appSvc.Apply(10, shift.ID); !errors.Is(err, ErrDuplicateApplication) {
		t.Errorf("duplicate apply error = %v, want ErrDuplicateApplication", err)
	}
}

func TestApplyClosedShift(t *testing.T) {
	appSvc, _, shiftRepo, _ := newApplicationServiceForTest()
	shift := seedOpenShift(shiftRepo, testNow.Add(48*time.Hour), 8, 1)
	shift.Status = models.ShiftStatusCancelled
	shiftRepo.seed(shift)

	if _, err := appSvc.Apply(10, shift.ID); !errors.Is(err, ErrShiftNotOpen) {
		t.Errorf("apply on cancelled shift error = %v, want ErrShiftNotOpen", err)
	}
}

func TestAcceptStaffsAndBulkRejects(t *testing.T) {
	appSvc, _, shiftRepo, appRepo := newApplicationServiceForTest()
	shift := seedOpenShift(shiftRepo, testNow.Add(48*time.Hour), 8, 1)

	first, err := appSvc.Apply(10, shift.ID)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	second, err := appSvc.Apply(11, shift.ID)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	cafe := Actor{ID: 1, Role: models.RoleCafe}
	accepted, err := appSvc.Accept(cafe, first.ID)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if accepted.Status != models.ApplicationStatusAccepted {
		t.Errorf("accepted status = %q, want accepted", accepted.Status)
	}

	// Headcount 1 reached: the shift closes and the other applicant is
	// rejected with the standard reason.
	updatedShift, err := shiftRepo.GetShiftByID(shift.ID)
	if err != nil {
		t.Fatalf("reloading shift: %v", err)
	}
	if updatedShift.Status != models.ShiftStatusAccepted {
		t.Errorf("shift status = %q, want accepted", updatedShift.Status)
	}

	other, err := appRepo.GetApplicationByID(second.ID)
	if err != nil {
		t.Fatalf("reloading second application: %v", err)
	}
	if other.Status != models.ApplicationStatusRejected {
		t.Errorf("second application status = %q, want rejected", other.Status)
	}
	if other.RejectionReason == nil || *other.RejectionReason != ShiftFullReason {
		t.Errorf("rejection reason = %v, want %q", other.RejectionReason, ShiftFullReason)
	}
}

func TestAcceptOnFullShift(t *testing.T) {
	appSvc, _, shiftRepo, _ := newApplicationServiceForTest()
	shift := seedOpenShift(shiftRepo, testNow.Add(48*time.Hour), 8, 1)

	app, err := appSvc.Apply(10, shift.ID)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	// Someone claims directly before the cafe reviews.
	shift.AcceptedBy = []int64{99}
	shift.Status = models.ShiftStatusAccepted
	shiftRepo.seed(shift)

	_, err = appSvc.Accept(Actor{ID: 1, Role: models.RoleCafe}, app.ID)
	if !errors.Is(err, ErrShiftNotOpen) && !errors.Is(err, ErrShiftFull) {
		t.Fatalf("accept on full shift error = %v, want ErrShiftNotOpen or ErrShiftFull", err)
	}

	// The application survives for a later decision.
	got, err := appSvc.GetApplicationByID(app.ID)
	if err != nil {
		t.Fatalf("reloading application: %v", err)
	}
	if got.Status != models.ApplicationStatusPending {
		t.Errorf("application status = %q, want still pending", got.Status)
	}
}

func TestWithdrawApplication(t *testing.T) {
	appSvc, _, shiftRepo, _ := newApplicationServiceForTest()
	shift := seedOpenShift(shiftRepo, testNow.Add(48*time.Hour), 8, 1)

	app, err := appSvc.Apply(10, shift.ID)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	if err := appSvc.Withdraw(11, app.ID); !errors.Is(err, ErrNotApplicationOwner) {
		t.Errorf("foreign withdraw error = %v, want ErrNotApplicationOwner", err)
	}
	if err := appSvc.Withdraw(10, app.ID); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if err := appSvc.Withdraw(10, app.ID); !errors.Is(err, ErrApplicationNotPending) {
		t.Errorf("double withdraw error = %v, want ErrApplicationNotPending", err)
	}
}

func TestRejectApplication(t *testing.T) {
	appSvc, _, shiftRepo, _ := newApplicationServiceForTest()
	shift := seedOpenShift(shiftRepo, testNow.Add(48*time.Hour), 8, 1)

	app, err := appSvc.Apply(10, shift.ID)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	if _, err := appSvc.Reject(Actor{ID: 2, Role: models.RoleCafe}, app.ID, "x"); !errors.Is(err, ErrNotShiftOwner) {
		t.Errorf("foreign reject error = %v, want ErrNotShiftOwner", err)
	}

	got, err := appSvc.Reject(Actor{ID: 1, Role: models.RoleCafe}, app.ID, "profile incomplete")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if got.Status != models.ApplicationStatusRejected {
		t.Errorf("status = %q, want rejected", got.Status)
	}
	if got.RejectionReason == nil || *got.RejectionReason != "profile incomplete" {
		t.Errorf("reason = %v, want recorded", got.RejectionReason)
	}
}
