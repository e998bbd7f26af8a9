package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"monty/internal/core"
	"monty/internal/storage"
)

// BudgetRow is one category line of the budget dashboard.
type BudgetRow struct {
	CategoryID   int64   `json:"category_id"`
	CategoryName string  `json:"category_name"`
	CategoryIcon string  `json:"category_icon"`
	LimitAmount  int64   `json:"limit_amount"`
	Spent        int64   `json:"spent"`
	Remaining    int64   `json:"remaining"`
	UsedPercent  float64 `json:"used_percent"`
}

// BudgetDashboard is the current financial period's budget state.
type BudgetDashboard struct {
	PeriodStart string      `json:"period_start"`
	PeriodEnd   string      `json:"period_end"`
	TotalBudget int64       `json:"total_budget"`
	TotalLimit  int64       `json:"total_limit"`
	TotalSpent  int64       `json:"total_spent"`
	Remaining   int64       `json:"remaining"`
	Budgets     []BudgetRow `json:"budgets"`
}

// BudgetService assembles the per-period budget dashboard.
type BudgetService struct {
	storage  *storage.SQLiteRepository
	settings *SettingsService
	now      func() time.Time
}

func NewBudgetService(storage *storage.SQLiteRepository, settings *SettingsService) *BudgetService {
	return &BudgetService{
		storage:  storage,
		settings: settings,
		now:      time.Now,
	}
}

// CurrentDashboard reports configured limits against actual spending for
// the salary-day period containing today.
func (s *BudgetService) CurrentDashboard(ctx context.Context) (BudgetDashboard, error) {
	salaryDay, err := s.settings.SalaryDay(ctx)
	if err != nil {
		return BudgetDashboard{}, err
	}
	period, err := core.ComputePeriod(s.now().UTC(), salaryDay)
	if err != nil {
		return BudgetDashboard{}, err
	}

	budgets, err := s.storage.ListBudgets(ctx, period.Start)
	if err != nil {
		return BudgetDashboard{}, fmt.Errorf("load budgets: %w", err)
	}
	spent, err := s.storage.SpentByCategory(ctx, period.Start, period.End.AddDate(0, 0, 1))
	if err != nil {
		return BudgetDashboard{}, fmt.Errorf("load spending: %w", err)
	}
	totalBudget, err := s.settings.IntSetting(ctx, SettingTotalBudget)
	if err != nil {
		return BudgetDashboard{}, err
	}

	dash := BudgetDashboard{
		PeriodStart: period.Start.Format("2006-01-02"),
		PeriodEnd:   period.End.Format("2006-01-02"),
		TotalBudget: totalBudget,
		Budgets:     make([]BudgetRow, 0, len(budgets)),
	}

	for _, b := range budgets {
		row := BudgetRow{
			CategoryID:   b.Category.ID,
			CategoryName: b.Category.Name,
			CategoryIcon: b.Category.Icon,
			LimitAmount:  b.Budget.LimitAmount,
			Spent:        spent[b.Category.ID],
		}
		row.Remaining = row.LimitAmount - row.Spent
		if row.LimitAmount > 0 {
			row.UsedPercent = roundPercent(float64(row.Spent) / float64(row.LimitAmount) * 100)
		}
		dash.TotalLimit += row.LimitAmount
		dash.Budgets = append(dash.Budgets, row)
	}
	for _, amount := range spent {
		dash.TotalSpent += amount
	}
	dash.Remaining = dash.TotalBudget - dash.TotalSpent

	return dash, nil
}

// roundPercent keeps one decimal place.
func roundPercent(p float64) float64 {
	return math.Round(p*10) / 10
}
