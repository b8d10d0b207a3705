package services

import (
	"errors"
	"testing"

	"cafeshift_backend/internal/repositories"
)

func TestValidateSetting(t *testing.T) {
	valid := []struct{ key, value string }{
		{repositories.SettingFeeModel, "percent"},
		{repositories.SettingFeeModel, "fixed"},
		{repositories.SettingInvoicingMode, "postpaid"},
		{repositories.SettingFeePercent, "12.5"},
		{repositories.SettingFixedFeeAmount, "0"},
		{repositories.SettingPenaltyPercent, "50"},
		{repositories.SettingFreeShiftCount, "3"},
		{repositories.SettingTierFloorUnder12h, "18"},
		{repositories.SettingMinLeadTime, "3h"},
		{repositories.SettingCancelWindow, "24h"},
		{repositories.SettingSweepInterval, "90s"},
		{repositories.SettingBankIBAN, "DK5000400440116243"},
	}
	for _, tt := range valid {
		if err := validateSetting(tt.key, tt.value); err != nil {
			t.Errorf("validateSetting(%q, %q) = %v, want nil", tt.key, tt.value, err)
		}
	}

	invalid := []struct {
		key, value string
		want       error
	}{
		{repositories.SettingFeeModel, "hybrid", ErrInvalidSetting},
		{repositories.SettingInvoicingMode, "monthly", ErrInvalidSetting},
		{repositories.SettingFeePercent, "-1", ErrInvalidSetting},
		{repositories.SettingFeePercent, "ten", ErrInvalidSetting},
		{repositories.SettingFreeShiftCount, "2.5", ErrInvalidSetting},
		{repositories.SettingMinLeadTime, "0s", ErrInvalidSetting},
		{repositories.SettingCancelWindow, "yesterday", ErrInvalidSetting},
		{repositories.SettingBankName, "", ErrInvalidSetting},
		{"surge_multiplier", "2", ErrUnknownSettingKey},
	}
	for _, tt := range invalid {
		if err := validateSetting(tt.key, tt.value); !errors.Is(err, tt.want) {
			t.Errorf("validateSetting(%q, %q) = %v, want %v", tt.key, tt.value, err, tt.want)
		}
	}
}

func TestUpsertSettingRejectsInvalid(t *testing.T) {
	svc := NewConfigService(newFakeConfigRepo(), nil)

	if _, err := svc.UpsertSetting(UpsertSettingRequest{SettingKey: "surge_multiplier", SettingValue: "2"}); !errors.Is(err, ErrUnknownSettingKey) {
		t.Errorf("unknown key error = %v, want ErrUnknownSettingKey", err)
	}

	saved, err := svc.UpsertSetting(UpsertSettingRequest{SettingKey: repositories.SettingPenaltyPercent, SettingValue: "40"})
	if err != nil {
		t.Fatalf("UpsertSetting failed: %v", err)
	}
	if saved.SettingValue == nil || *saved.SettingValue != "40" {
		t.Errorf("saved value = %v, want 40", saved.SettingValue)
	}
}

func TestGetSettingByKeyNotFound(t *testing.T) {
	svc := NewConfigService(newFakeConfigRepo(), nil)

	if _, err := svc.GetSettingByKey(repositories.SettingFeePercent); !errors.Is(err, ErrSettingNotFound) {
		t.Errorf("missing setting error = %v, want ErrSettingNotFound", err)
	}
}
