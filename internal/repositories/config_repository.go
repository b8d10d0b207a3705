package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cafeshift_backend/internal/models"
)

// ConfigRepository reads and writes the platform_settings key/value table
// and materializes it as a PlatformConfig value with hardcoded fallbacks.
type ConfigRepository interface {
	// LoadPlatformConfig returns the defaults overlaid with whatever
	// settings rows exist. Unknown keys are ignored, malformed values fall
	// back to the default.
	LoadPlatformConfig() (models.PlatformConfig, error)
	GetSettings() ([]models.PlatformSetting, error)
	GetSettingByKey(key string) (*models.PlatformSetting, error)
	UpsertSetting(executor SQLExecutor, setting *models.PlatformSetting) (*models.PlatformSetting, error)
	DeleteSettingByKey(executor SQLExecutor, key string) error
}

type configRepository struct {
	db *sql.DB
}

// NewConfigRepository creates a new instance of ConfigRepository.
func NewConfigRepository(db *sql.DB) ConfigRepository {
	return &configRepository{db: db}
}

// Setting keys recognized by LoadPlatformConfig.
const (
	SettingFeeModel          = "fee_model"
	SettingFeePercent        = "fee_percent"
	SettingFixedFeeAmount    = "fixed_fee_amount"
	SettingFreeShiftCount    = "free_shift_count"
	SettingPenaltyPercent    = "penalty_percent"
	SettingTierFloorUnder12h = "tier_floor_under_12h"
	SettingTierFloor12to24h  = "tier_floor_12_to_24h"
	SettingTierFloorOver24h  = "tier_floor_over_24h"
	SettingMinLeadTime       = "min_lead_time"  // Go duration string, e.g. "3h"
	SettingCancelWindow      = "cancel_window"  // Go duration string
	SettingPaymentWindow     = "payment_window" // Go duration string
	SettingInvoicingMode     = "invoicing_mode"
	SettingSweepInterval     = "sweep_interval" // Go duration string
	SettingBankName          = "bank_name"
	SettingBankAccountHolder = "bank_account_holder"
	SettingBankIBAN          = "bank_iban"
)

func (r *configRepository) LoadPlatformConfig() (models.PlatformConfig, error) {
	cfg := models.DefaultPlatformConfig()

	rows, err := r.db.Query("SELECT setting_key, setting_value FROM platform_settings WHERE setting_value IS NOT NULL")
	if err != nil {
		return cfg, fmt.Errorf("%w: loading platform config: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return cfg, fmt.Errorf("%w: scanning platform setting: %v", ErrDatabaseError, err)
		}
		applySetting(&cfg, key, value)
	}
	if err := rows.Err(); err != nil {
		return cfg, fmt.Errorf("%w: iterating platform settings: %v", ErrDatabaseError, err)
	}
	return cfg, nil
}

func applySetting(cfg *models.PlatformConfig, key, value string) {
	switch key {
	case SettingFeeModel:
		if value == models.FeeModelPercent || value == models.FeeModelFixed {
			cfg.FeeModel = value
		}
	case SettingFeePercent:
		setFloat(&cfg.FeePercent, value)
	case SettingFixedFeeAmount:
		setFloat(&cfg.FixedFeeAmount, value)
	case SettingFreeShiftCount:
		if n, err := strconv.Atoi(value); err == nil && n >= 0 {
			cfg.FreeShiftCount = n
		}
	case SettingPenaltyPercent:
		setFloat(&cfg.PenaltyPercent, value)
	case SettingTierFloorUnder12h:
		setFloat(&cfg.TierFloorUnder12h, value)
	case SettingTierFloor12to24h:
		setFloat(&cfg.TierFloor12to24h, value)
	case SettingTierFloorOver24h:
		setFloat(&cfg.TierFloorOver24h, value)
	case SettingMinLeadTime:
		setDuration(&cfg.MinLeadTime, value)
	case SettingCancelWindow:
		setDuration(&cfg.CancelWindow, value)
	case SettingPaymentWindow:
		setDuration(&cfg.PaymentWindow, value)
	case SettingInvoicingMode:
		if value == models.InvoicingModeUpfront || value == models.InvoicingModePostpaid {
			cfg.InvoicingMode = value
		}
	case SettingSweepInterval:
		setDuration(&cfg.SweepInterval, value)
	case SettingBankName:
		cfg.Bank.BankName = value
	case SettingBankAccountHolder:
		cfg.Bank.AccountHolder = value
	case SettingBankIBAN:
		cfg.Bank.IBAN = value
	}
}

func setFloat(dst *float64, value string) {
	if f, err := strconv.ParseFloat(value, 64); err == nil && f >= 0 {
		*dst = f
	}
}

func setDuration(dst *time.Duration, value string) {
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		*dst = d
	}
}

func scanSettingRow(row scanner) (*models.PlatformSetting, error) {
	var s models.PlatformSetting
	var value, description sql.NullString

	err := row.Scan(&s.ID, &s.SettingKey, &value, &description, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning platform setting: %v", ErrDatabaseError, err)
	}
	if value.Valid {
		s.SettingValue = &value.String
	}
	if description.Valid {
		s.Description = &description.String
	}
	return &s, nil
}

func (r *configRepository) GetSettings() ([]models.PlatformSetting, error) {
	rows, err := r.db.Query("SELECT id, setting_key, setting_value, description, created_at, updated_at FROM platform_settings ORDER BY setting_key")
	if err != nil {
		return nil, fmt.Errorf("%w: listing platform settings: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	settings := []models.PlatformSetting{}
	for rows.Next() {
		s, err := scanSettingRow(rows)
		if err != nil {
			return nil, err
		}
		settings = append(settings, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating platform settings: %v", ErrDatabaseError, err)
	}
	return settings, nil
}

func (r *configRepository) GetSettingByKey(key string) (*models.PlatformSetting, error) {
	query := "SELECT id, setting_key, setting_value, description, created_at, updated_at FROM platform_settings WHERE setting_key = $1"
	return scanSettingRow(r.db.QueryRow(query, key))
}

func (r *configRepository) UpsertSetting(executor SQLExecutor, setting *models.PlatformSetting) (*models.PlatformSetting, error) {
	query := `INSERT INTO platform_settings (setting_key, setting_value, description, created_at, updated_at)
	          VALUES ($1, $2, $3, NOW(), NOW())
	          ON CONFLICT (setting_key) DO UPDATE
	          SET setting_value = $2, description = COALESCE($3, platform_settings.description), updated_at = NOW()
	          RETURNING id, created_at, updated_at`

	err := executor.QueryRow(query, setting.SettingKey, setting.SettingValue, setting.Description).
		Scan(&setting.ID, &setting.CreatedAt, &setting.UpdatedAt)
	if err != nil {
		return nil, wrapPQError(err, "upserting platform setting")
	}
	return setting, nil
}

func (r *configRepository) DeleteSettingByKey(executor SQLExecutor, key string) error {
	return execConditional(executor, "DELETE FROM platform_settings WHERE setting_key = $1", "deleting platform setting", key)
}
