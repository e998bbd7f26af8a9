package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"monty/internal/core"
	"monty/internal/storage"
)

const (
	SettingTargetAmount = "target_amount"
	SettingTargetDate   = "target_date"
	SettingSalaryDay    = "salary_day"
	SettingTotalBudget  = "total_budget"

	defaultSalaryDay = 1
)

var ErrUnknownSetting = errors.New("services: unknown setting key")

var allowedSettings = map[string]struct{}{
	SettingTargetAmount: {},
	SettingTargetDate:   {},
	SettingSalaryDay:    {},
	SettingTotalBudget:  {},
}

// SettingsService stores whitelisted key/value settings and the monthly
// budget configuration.
type SettingsService struct {
	storage *storage.SQLiteRepository
}

func NewSettingsService(storage *storage.SQLiteRepository) *SettingsService {
	return &SettingsService{storage: storage}
}

// All returns the current value of every whitelisted key that is set.
func (s *SettingsService) All(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(allowedSettings))
	for key := range allowedSettings {
		v, err := s.storage.GetSetting(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	if _, ok := allowedSettings[key]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}
	switch key {
	case SettingSalaryDay:
		day, err := strconv.Atoi(value)
		if err != nil || day < 1 || day > 31 {
			return fmt.Errorf("services: salary_day must be an integer in 1..31")
		}
	case SettingTargetAmount, SettingTotalBudget:
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return fmt.Errorf("services: %s must be an integer amount", key)
		}
	case SettingTargetDate:
		if _, err := time.Parse("2006-01-02", value); err != nil {
			return fmt.Errorf("services: target_date must be YYYY-MM-DD")
		}
	}
	return s.storage.SetSetting(ctx, key, value)
}

// SalaryDay returns the configured salary day, defaulting to the first
// of the month when unset.
func (s *SettingsService) SalaryDay(ctx context.Context) (int, error) {
	v, err := s.storage.GetSetting(ctx, SettingSalaryDay)
	if errors.Is(err, storage.ErrNotFound) {
		return defaultSalaryDay, nil
	}
	if err != nil {
		return 0, err
	}
	day, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse salary_day: %w", err)
	}
	return day, nil
}

// IntSetting returns an integer setting or 0 when unset.
func (s *SettingsService) IntSetting(ctx context.Context, key string) (int64, error) {
	v, err := s.storage.GetSetting(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

// DateSetting returns a date setting or the zero time when unset.
func (s *SettingsService) DateSetting(ctx context.Context, key string) (time.Time, error) {
	v, err := s.storage.GetSetting(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	d, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

// UpsertBudget stores a category limit for the current financial period.
func (s *SettingsService) UpsertBudget(ctx context.Context, categoryID, limitAmount int64, now time.Time) (core.MonthlyBudget, error) {
	if _, err := s.storage.GetCategory(ctx, categoryID); err != nil {
		return core.MonthlyBudget{}, fmt.Errorf("lookup category: %w", err)
	}
	salaryDay, err := s.SalaryDay(ctx)
	if err != nil {
		return core.MonthlyBudget{}, err
	}
	period, err := core.ComputePeriod(now, salaryDay)
	if err != nil {
		return core.MonthlyBudget{}, err
	}
	b := core.MonthlyBudget{
		CategoryID:  categoryID,
		Period:      period.Start,
		LimitAmount: limitAmount,
	}
	if err := b.Validate(); err != nil {
		return core.MonthlyBudget{}, err
	}
	if err := s.storage.UpsertBudget(ctx, b); err != nil {
		return core.MonthlyBudget{}, fmt.Errorf("save budget: %w", err)
	}
	return b, nil
}
