package services

import (
	"context"
	"fmt"
	"time"

	"monty/internal/storage"
)

// GoalProgress is the savings goal state for one user.
type GoalProgress struct {
	TargetAmount    int64   `json:"target_amount"`
	TargetDate      string  `json:"target_date,omitempty"`
	Saved           int64   `json:"saved"`
	Remaining       int64   `json:"remaining"`
	ProgressPercent float64 `json:"progress_percent"`
	DaysRemaining   int     `json:"days_remaining"`
	DailyNeeded     int64   `json:"daily_needed"`
}

// GoalService reports progress toward the configured savings target.
type GoalService struct {
	storage  *storage.SQLiteRepository
	settings *SettingsService
	now      func() time.Time
}

func NewGoalService(storage *storage.SQLiteRepository, settings *SettingsService) *GoalService {
	return &GoalService{
		storage:  storage,
		settings: settings,
		now:      time.Now,
	}
}

// Progress sums the user's savings-group transactions against the
// target amount and date settings. An unset target yields zero progress
// figures rather than an error.
func (s *GoalService) Progress(ctx context.Context, userID int64) (GoalProgress, error) {
	target, err := s.settings.IntSetting(ctx, SettingTargetAmount)
	if err != nil {
		return GoalProgress{}, err
	}
	targetDate, err := s.settings.DateSetting(ctx, SettingTargetDate)
	if err != nil {
		return GoalProgress{}, err
	}
	saved, err := s.storage.SavingsTotal(ctx, userID)
	if err != nil {
		return GoalProgress{}, fmt.Errorf("load savings total: %w", err)
	}

	p := GoalProgress{
		TargetAmount: target,
		Saved:        saved,
	}
	if !targetDate.IsZero() {
		p.TargetDate = targetDate.Format("2006-01-02")
	}
	if target <= 0 {
		return p, nil
	}

	p.Remaining = target - saved
	if p.Remaining < 0 {
		p.Remaining = 0
	}
	p.ProgressPercent = roundPercent(float64(saved) / float64(target) * 100)
	if p.ProgressPercent > 100 {
		p.ProgressPercent = 100
	}

	if !targetDate.IsZero() {
		days := int(targetDate.Sub(s.now().UTC().Truncate(24*time.Hour)).Hours() / 24)
		if days > 0 {
			p.DaysRemaining = days
			p.DailyNeeded = (p.Remaining + int64(days) - 1) / int64(days)
		}
	}
	return p, nil
}
