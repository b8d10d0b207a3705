package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cafeshift_backend/internal/models"
	"cafeshift_backend/internal/repositories"
)

// --- Custom Service Errors for Settings ---
var (
	ErrSettingNotFound   = errors.New("platform setting not found")
	ErrUnknownSettingKey = errors.New("unknown platform setting key")
	ErrInvalidSetting    = errors.New("invalid value for platform setting")
)

// --- Settings DTOs ---
type UpsertSettingRequest struct {
	SettingKey   string  `json:"setting_key" binding:"required"`
	SettingValue string  `json:"setting_value" binding:"required"`
	Description  *string `json:"description"`
}

// --- ConfigService Interface ---
// Admin management of the platform_settings overrides. Values are validated
// on the way in so LoadPlatformConfig never has to reject what it reads.
type ConfigService interface {
	GetPlatformConfig() (models.PlatformConfig, error)
	GetSettings() ([]models.PlatformSetting, error)
	GetSettingByKey(key string) (*models.PlatformSetting, error)
	UpsertSetting(req UpsertSettingRequest) (*models.PlatformSetting, error)
	DeleteSettingByKey(key string) error
}

type configService struct {
	cfgRepo repositories.ConfigRepository
	db      *sql.DB
}

// NewConfigService creates a new instance of ConfigService.
func NewConfigService(cr repositories.ConfigRepository, db *sql.DB) ConfigService {
	return &configService{cfgRepo: cr, db: db}
}

func (s *configService) GetPlatformConfig() (models.PlatformConfig, error) {
	cfg, err := s.cfgRepo.LoadPlatformConfig()
	if err != nil {
		return cfg, fmt.Errorf("failed to load platform config: %w", err)
	}
	return cfg, nil
}

func (s *configService) GetSettings() ([]models.PlatformSetting, error) {
	settings, err := s.cfgRepo.GetSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	return settings, nil
}

func (s *configService) GetSettingByKey(key string) (*models.PlatformSetting, error) {
	setting, err := s.cfgRepo.GetSettingByKey(key)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return setting, nil
}

func (s *configService) UpsertSetting(req UpsertSettingRequest) (*models.PlatformSetting, error) {
	if err := validateSetting(req.SettingKey, req.SettingValue); err != nil {
		return nil, err
	}

	setting := &models.PlatformSetting{
		SettingKey:   req.SettingKey,
		SettingValue: &req.SettingValue,
		Description:  req.Description,
	}
	saved, err := s.cfgRepo.UpsertSetting(s.db, setting)
	if err != nil {
		return nil, fmt.Errorf("failed to save setting: %w", err)
	}
	return saved, nil
}

func (s *configService) DeleteSettingByKey(key string) error {
	if err := s.cfgRepo.DeleteSettingByKey(s.db, key); err != nil {
		if errors.Is(err, repositories.ErrConditionFailed) {
			return ErrSettingNotFound
		}
		return fmt.Errorf("failed to delete setting: %w", err)
	}
	return nil
}

func validateSetting(key, value string) error {
	switch key {
	case repositories.SettingFeeModel:
		if value != models.FeeModelPercent && value != models.FeeModelFixed {
			return fmt.Errorf("%w: fee_model must be '%s' or '%s'", ErrInvalidSetting, models.FeeModelPercent, models.FeeModelFixed)
		}
	case repositories.SettingInvoicingMode:
		if value != models.InvoicingModeUpfront && value != models.InvoicingModePostpaid {
			return fmt.Errorf("%w: invoicing_mode must be '%s' or '%s'", ErrInvalidSetting, models.InvoicingModeUpfront, models.InvoicingModePostpaid)
		}
	case repositories.SettingFeePercent, repositories.SettingFixedFeeAmount,
		repositories.SettingPenaltyPercent, repositories.SettingTierFloorUnder12h,
		repositories.SettingTierFloor12to24h, repositories.SettingTierFloorOver24h:
		if f, err := strconv.ParseFloat(value, 64); err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidSetting, key)
		}
	case repositories.SettingFreeShiftCount:
		if n, err := strconv.Atoi(value); err != nil || n < 0 {
			return fmt.Errorf("%w: free_shift_count must be a non-negative integer", ErrInvalidSetting)
		}
	case repositories.SettingMinLeadTime, repositories.SettingCancelWindow,
		repositories.SettingPaymentWindow, repositories.SettingSweepInterval:
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			return fmt.Errorf("%w: %s must be a positive duration like '24h'", ErrInvalidSetting, key)
		}
	case repositories.SettingBankName, repositories.SettingBankAccountHolder, repositories.SettingBankIBAN:
		if value == "" {
			return fmt.Errorf("%w: %s cannot be empty", ErrInvalidSetting, key)
		}
	default:
		return fmt.Errorf("%w: '%s'", ErrUnknownSettingKey, key)
	}
	return nil
}
