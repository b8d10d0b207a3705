package pricing

import (
	"errors"
	"testing"
	"time"

	"cafeshift_backend/internal/models"
)

func TestDurationHours(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		want    float64
		wantErr error
	}{
		{name: "full day shift", start: "09:00", end: "17:00", want: 8},
		{name: "half hour granularity", start: "09:30", end: "13:15", want: 3.75},
		{name: "one minute", start: "09:00", end: "09:01", want: 1.0 / 60},
		{name: "end equals start", start: "09:00", end: "09:00", wantErr: ErrEndNotAfterStart},
		{name: "end before start", start: "17:00", end: "09:00", wantErr: ErrEndNotAfterStart},
		{name: "overnight rejected", start: "22:00", end: "06:00", wantErr: ErrEndNotAfterStart},
		{name: "not zero padded", start: "9:00", end: "17:00", wantErr: ErrInvalidTimeOfDay},
		{name: "out of range hour", start: "24:00", end: "25:00", wantErr: ErrInvalidTimeOfDay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DurationHours(tt.start, tt.end)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("DurationHours(%q, %q) error = %v, want %v", tt.start, tt.end, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DurationHours(%q, %q) unexpected error: %v", tt.start, tt.end, err)
			}
			if got != tt.want {
				t.Errorf("DurationHours(%q, %q) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestCalculateShiftCost(t *testing.T) {
	// 8h x 16.00/h x 2 employees = 256.00 base, 10% fee = 25.60, total 281.60
	base, fee, total, err := CalculateShiftCost("09:00", "17:00", 16, 10, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base != 256.00 {
		t.Errorf("base = %v, want 256.00", base)
	}
	if fee != 25.60 {
		t.Errorf("fee = %v, want 25.60", fee)
	}
	if total != 281.60 {
		t.Errorf("total = %v, want 281.60", total)
	}
}

func TestCalculateShiftCostRounding(t *testing.T) {
	// 3h45m x 15.55/h = 58.3125 -> 58.31, fee 10% of 58.31... computed on the
	// rounded base: 5.831 -> 5.83
	base, fee, total, err := CalculateShiftCost("09:15", "13:00", 15.55, 10, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base != 58.31 {
		t.Errorf("base = %v, want 58.31", base)
	}
	if fee != 5.83 {
		t.Errorf("fee = %v, want 5.83", fee)
	}
	if total != 64.14 {
		t.Errorf("total = %v, want 64.14", total)
	}
}

func TestTierFloor(t *testing.T) {
	cfg := models.DefaultPlatformConfig()

	tests := []struct {
		name string
		lead time.Duration
		want float64
	}{
		{name: "four hours lead", lead: 4 * time.Hour, want: 18},
		{name: "just under twelve", lead: 12*time.Hour - time.Minute, want: 18},
		{name: "exactly twelve", lead: 12 * time.Hour, want: 16},
		{name: "just under twenty four", lead: 24*time.Hour - time.Minute, want: 16},
		{name: "exactly twenty four", lead: 24 * time.Hour, want: 14},
		{name: "thirty hours lead", lead: 30 * time.Hour, want: 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TierFloor(cfg, tt.lead); got != tt.want {
				t.Errorf("TierFloor(%v) = %v, want %v", tt.lead, got, tt.want)
			}
		})
	}
}

func TestFixedFeeWaiver(t *testing.T) {
	cfg := models.DefaultPlatformConfig()
	cfg.FeeModel = models.FeeModelFixed

	for prior := 0; prior < cfg.FreeShiftCount; prior++ {
		if got := FixedFee(cfg, prior); got != 0 {
			t.Errorf("FixedFee(prior=%d) = %v, want 0 within the free allowance", prior, got)
		}
	}
	if got := FixedFee(cfg, cfg.FreeShiftCount); got != 15 {
		t.Errorf("FixedFee(prior=%d) = %v, want 15", cfg.FreeShiftCount, got)
	}
	if got := FixedFee(cfg, 100); got != 15 {
		t.Errorf("FixedFee(prior=100) = %v, want 15", got)
	}
}

func TestQuoteShiftFixedModel(t *testing.T) {
	cfg := models.DefaultPlatformConfig()
	cfg.FeeModel = models.FeeModelFixed

	q, err := QuoteShift(cfg, "10:00", "18:00", 14, 1, cfg.FreeShiftCount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Base != 112.00 {
		t.Errorf("base = %v, want 112.00", q.Base)
	}
	if q.Fee != 15.00 {
		t.Errorf("fee = %v, want 15.00", q.Fee)
	}
	if q.Total != 127.00 {
		t.Errorf("total = %v, want 127.00", q.Total)
	}
}

func TestPenalty(t *testing.T) {
	if got := Penalty(281.60, 50); got != 140.80 {
		t.Errorf("Penalty(281.60, 50) = %v, want 140.80", got)
	}
	// Half-cent boundary rounds up: 100.01 x 50% = 50.005 -> 50.01
	if got := Penalty(100.01, 50); got != 50.01 {
		t.Errorf("Penalty(100.01, 50) = %v, want 50.01", got)
	}
	if got := Penalty(200, 0); got != 0 {
		t.Errorf("Penalty(200, 0) = %v, want 0", got)
	}
}

func TestShiftStart(t *testing.T) {
	start, err := ShiftStart("2026-09-01", "09:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Year() != 2026 || start.Month() != time.September || start.Day() != 1 {
		t.Errorf("date parsed wrong: %v", start)
	}
	if start.Hour() != 9 || start.Minute() != 30 {
		t.Errorf("time parsed wrong: %v", start)
	}

	if _, err := ShiftStart("01-09-2026", "09:30"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate for non-ISO date, got %v", err)
	}
}
