// Package pricing holds the pure money and time-window math for shifts:
// duration, base cost, platform fees under both fee models, penalties and
// the advance-notice rate tiers. All functions are stateless; configuration
// comes in as a value so tests run deterministically.
package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"cafeshift_backend/internal/models"
)

var (
	ErrInvalidTimeOfDay = errors.New("invalid time of day, expected zero-padded 24-hour HH:MM")
	ErrInvalidDate      = errors.New("invalid date, expected YYYY-MM-DD")
	ErrEndNotAfterStart = errors.New("shift end time must be after start time on the same calendar day")
)

// MinutesOfDay parses a zero-padded 24-hour "HH:MM" string into minutes
// since midnight.
func MinutesOfDay(t string) (int, error) {
	if len(t) != 5 || t[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, t)
	}
	parsed, err := time.Parse("15:04", t)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, t)
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

// DurationHours computes the shift length in hours from its start and end
// time-of-day. End must be strictly after start; shifts crossing midnight
// are rejected rather than wrapped.
func DurationHours(start, end string) (float64, error) {
	startMin, err := MinutesOfDay(start)
	if err != nil {
		return 0, err
	}
	endMin, err := MinutesOfDay(end)
	if err != nil {
		return 0, err
	}
	if endMin <= startMin {
		return 0, ErrEndNotAfterStart
	}
	return float64(endMin-startMin) / 60, nil
}

// ShiftStart combines a shift's date and start time-of-day into a time.Time
// in the server's local zone. Shift times are local by definition.
func ShiftStart(date, start string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+start, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q %q", ErrInvalidDate, date, start)
	}
	return t, nil
}

// ShiftEnd is ShiftStart for the end time-of-day.
func ShiftEnd(date, end string) (time.Time, error) {
	return ShiftStart(date, end)
}

// Round2 rounds a monetary value half-up at the cent boundary.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// BaseCost is hours x hourly rate x headcount, rounded to cents.
func BaseCost(hours, hourlyRate float64, headcount int) float64 {
	base := decimal.NewFromFloat(hours).
		Mul(decimal.NewFromFloat(hourlyRate)).
		Mul(decimal.NewFromInt(int64(headcount)))
	f, _ := base.Round(2).Float64()
	return f
}

// PercentFee is the percentage-model platform fee on a base amount.
func PercentFee(base, feePercent float64) float64 {
	fee := decimal.NewFromFloat(base).
		Mul(decimal.NewFromFloat(feePercent)).
		Div(decimal.NewFromInt(100))
	f, _ := fee.Round(2).Float64()
	return f
}

// FixedFee is the fixed-model per-shift fee: waived while the cafe is still
// inside its free-shift allowance, else the flat configured amount.
// priorShifts counts shifts the cafe has already posted.
func FixedFee(cfg models.PlatformConfig, priorShifts int) float64 {
	if priorShifts < cfg.FreeShiftCount {
		return 0
	}
	return Round2(cfg.FixedFeeAmount)
}

// Penalty computes a late-cancellation penalty as a percentage of the
// affected amount, rounded to cents. The amount is the shift's total cost
// for cafe-side penalties or the employee's expected earnings for
// employee-side ones.
func Penalty(amount, penaltyPercent float64) float64 {
	p := decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(penaltyPercent)).
		Div(decimal.NewFromInt(100))
	f, _ := p.Round(2).Float64()
	return f
}

// TierFloor returns the minimum hourly rate for a shift posted with the
// given lead time before its start. Rates decrease with advance notice;
// last-minute shifts cost more.
func TierFloor(cfg models.PlatformConfig, lead time.Duration) float64 {
	switch {
	case lead < 12*time.Hour:
		return cfg.TierFloorUnder12h
	case lead < 24*time.Hour:
		return cfg.TierFloor12to24h
	default:
		return cfg.TierFloorOver24h
	}
}

// CalculateShiftCost computes base, percentage fee and total for a shift.
func CalculateShiftCost(start, end string, hourlyRate, feePercent float64, headcount int) (base, fee, total float64, err error) {
	hours, err := DurationHours(start, end)
	if err != nil {
		return 0, 0, 0, err
	}
	base = BaseCost(hours, hourlyRate, headcount)
	fee = PercentFee(base, feePercent)
	total = Round2(base + fee)
	return base, fee, total, nil
}

// Quote is the priced-out view of a shift at creation or edit time.
type Quote struct {
	Hours float64
	Base  float64
	Fee   float64
	Total float64
}

// QuoteShift prices a shift under the configured fee model. priorShifts is
// only consulted under the fixed model's free-shift waiver.
func QuoteShift(cfg models.PlatformConfig, start, end string, hourlyRate float64, headcount, priorShifts int) (Quote, error) {
	hours, err := DurationHours(start, end)
	if err != nil {
		return Quote{}, err
	}
	q := Quote{Hours: hours}
	q.Base = BaseCost(hours, hourlyRate, headcount)
	if cfg.FeeModel == models.FeeModelFixed {
		q.Fee = FixedFee(cfg, priorShifts)
	} else {
		q.Fee = PercentFee(q.Base, cfg.FeePercent)
	}
	q.Total = Round2(q.Base + q.Fee)
	return q, nil
}
