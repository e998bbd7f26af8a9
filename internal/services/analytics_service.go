package services

import (
	"context"
	"fmt"
	"time"

	"monty/internal/cache"
	"monty/internal/core"
	"monty/internal/storage"
)

// AnalyticsService builds aggregated reports over a months-based or an
// explicit date window.
type AnalyticsService struct {
	storage  *storage.SQLiteRepository
	settings *SettingsService
	reports  *cache.LRUCache[core.Report]
	now      func() time.Time
}

func NewAnalyticsService(storage *storage.SQLiteRepository, settings *SettingsService, reports *cache.LRUCache[core.Report]) *AnalyticsService {
	return &AnalyticsService{
		storage:  storage,
		settings: settings,
		reports:  reports,
		now:      time.Now,
	}
}

// Report aggregates the trailing window of 30 days per month.
func (s *AnalyticsService) Report(ctx context.Context, months int) (core.Report, error) {
	if months < 1 || months > 12 {
		return core.Report{}, fmt.Errorf("months %d out of range [1,12]", months)
	}

	end := s.now().UTC()
	start := end.AddDate(0, 0, -30*months)

	key := fmt.Sprintf("analytics:months:%d", months)
	return s.report(ctx, key, core.Window{Start: start, End: end})
}

// PeriodReport aggregates an explicit date range. Both dates are
// inclusive day boundaries.
func (s *AnalyticsService) PeriodReport(ctx context.Context, start, end time.Time) (core.Report, error) {
	if end.Before(start) {
		return core.Report{}, fmt.Errorf("period end %s before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	window := core.Window{Start: start, End: end.AddDate(0, 0, 1)}
	key := fmt.Sprintf("analytics:period:%s:%s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	return s.report(ctx, key, window)
}

// CurrentPeriodReport aggregates the salary-day financial period that
// contains today.
func (s *AnalyticsService) CurrentPeriodReport(ctx context.Context) (core.Report, error) {
	salaryDay, err := s.settings.SalaryDay(ctx)
	if err != nil {
		return core.Report{}, err
	}
	period, err := core.ComputePeriod(s.now().UTC(), salaryDay)
	if err != nil {
		return core.Report{}, err
	}
	return s.PeriodReport(ctx, period.Start, period.End)
}

func (s *AnalyticsService) report(ctx context.Context, key string, window core.Window) (core.Report, error) {
	if s.reports != nil {
		if cached, ok := s.reports.Get(key); ok {
			return cached, nil
		}
	}

	views, err := s.storage.ListTransactionViews(ctx, storage.TransactionFilter{
		Start: window.Start,
		End:   window.End,
	})
	if err != nil {
		return core.Report{}, fmt.Errorf("load transactions: %w", err)
	}

	report := core.Aggregate(views, window)

	// The aggregator can only compare against transactions it was given;
	// the caller fetched the current window only, so run the mirrored
	// window query and override the comparison.
	prev, err := s.previousTotals(ctx, window)
	if err != nil {
		return core.Report{}, err
	}
	report.Previous = prev

	if s.reports != nil {
		s.reports.Set(key, report)
	}
	return report, nil
}

func (s *AnalyticsService) previousTotals(ctx context.Context, window core.Window) (*core.Comparison, error) {
	length := window.End.Sub(window.Start)
	if length <= 0 {
		return nil, nil
	}
	prevViews, err := s.storage.ListTransactionViews(ctx, storage.TransactionFilter{
		Start: window.Start.Add(-length),
		End:   window.Start,
	})
	if err != nil {
		return nil, fmt.Errorf("load previous period transactions: %w", err)
	}
	totals := core.PeriodTotals(prevViews)
	return &totals, nil
}
