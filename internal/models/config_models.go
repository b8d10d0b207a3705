package models

import "time"

// Fee models and invoicing modes selectable via platform settings.
const (
	FeeModelPercent = "percent"
	FeeModelFixed   = "fixed"

	InvoicingModeUpfront  = "upfront"  // payment collected before staffing, sweep issues paid invoices
	InvoicingModePostpaid = "postpaid" // invoices approved and paid after completion
)

// BankDetails are shown on invoices so cafes know where to transfer.
type BankDetails struct {
	BankName      string `json:"bank_name"`
	AccountHolder string `json:"account_holder"`
	IBAN          string `json:"iban"`
}

// PlatformConfig is the read-mostly business configuration consumed by the
// pricing engine and the lifecycle guards. It is resolved fresh from the
// platform_settings table on each operation and overlaid onto the defaults
// below, never held as a mutable process-wide singleton.
type PlatformConfig struct {
	FeeModel       string  // percent or fixed
	FeePercent     float64 // percentage of base cost, percent model
	FixedFeeAmount float64 // flat per-shift fee, fixed model
	FreeShiftCount int     // first N shifts per cafe waive the fixed fee

	PenaltyPercent float64 // late-cancellation penalty, percent of the affected amount

	// Minimum hourly rate floors by how far in advance the shift is posted.
	// Last-minute shifts cost more.
	TierFloorUnder12h float64
	TierFloor12to24h  float64
	TierFloorOver24h  float64

	MinLeadTime   time.Duration // shifts may not be created closer to start than this
	CancelWindow  time.Duration // cafe cancellation forbidden inside this window before start
	PaymentWindow time.Duration // manual completion allowed this long after end

	InvoicingMode string        // upfront or postpaid
	SweepInterval time.Duration // auto-completion sweep cadence

	Bank BankDetails
}

// DefaultPlatformConfig returns the hardcoded fallbacks used when a setting
// is absent from the platform_settings table.
func DefaultPlatformConfig() PlatformConfig {
	return PlatformConfig{
		FeeModel:          FeeModelPercent,
		FeePercent:        10,
		FixedFeeAmount:    15,
		FreeShiftCount:    3,
		PenaltyPercent:    50,
		TierFloorUnder12h: 18,
		TierFloor12to24h:  16,
		TierFloorOver24h:  14,
		MinLeadTime:       3 * time.Hour,
		CancelWindow:      24 * time.Hour,
		PaymentWindow:     48 * time.Hour,
		InvoicingMode:     InvoicingModeUpfront,
		SweepInterval:     60 * time.Second,
		Bank: BankDetails{
			BankName:      "Example Bank",
			AccountHolder: "CafeShift Platform B.V.",
			IBAN:          "NL00EXMP0000000000",
		},
	}
}

// PlatformSetting is one key/value override row backing PlatformConfig.
type PlatformSetting struct {
	ID           int64     `json:"id" db:"id"`
	SettingKey   string    `json:"setting_key" db:"setting_key" binding:"required"`
	SettingValue *string   `json:"setting_value,omitempty" db:"setting_value"`
	Description  *string   `json:"description,omitempty" db:"description"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
