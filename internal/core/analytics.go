package core

import (
	"sort"
	"time"
)

const (
	byCategoryLimit  = 10
	topExpensesLimit = 5

	// Display name used when a transaction's owner has no name on record.
	unknownUserName = "Unknown"
)

type (
	// Window is the reporting range. Totals and breakdowns trust the
	// caller's pre-filtering; the window itself is only used to derive
	// the previous-period comparison range.
	Window struct {
		Start time.Time
		End   time.Time
	}

	// CategoryRow is one by-category breakdown entry. Kind is "income",
	// "savings" or "expense".
	CategoryRow struct {
		Name   string `json:"name"`
		Icon   string `json:"icon"`
		Amount int64  `json:"amount"`
		Kind   string `json:"type"`
	}

	// GroupRow is one by-group breakdown entry. A single group can emit
	// both an income and an expense row.
	GroupRow struct {
		Group  string `json:"group"`
		Amount int64  `json:"amount"`
		Kind   string `json:"type"`
	}

	// DailyRow is one day of the daily series. Savings are excluded from
	// both sides of this view.
	DailyRow struct {
		Date    string `json:"date"` // ISO date, day granularity
		Income  int64  `json:"income"`
		Expense int64  `json:"expense"`
	}

	// UserRow is one by-user breakdown entry.
	UserRow struct {
		UserID  int64  `json:"user_id"`
		Name    string `json:"name"`
		Income  int64  `json:"income"`
		Expense int64  `json:"expense"`
		Savings int64  `json:"savings"`
	}

	// Comparison holds income/expense totals for the window of equal
	// length immediately preceding the reporting window.
	Comparison struct {
		TotalIncome   int64 `json:"total_income"`
		TotalExpenses int64 `json:"total_expenses"`
		Balance       int64 `json:"balance"`
	}

	// Report is the full aggregation result. All amounts are integers in
	// the smallest currency unit.
	Report struct {
		TotalIncome   int64         `json:"total_income"`
		TotalExpenses int64         `json:"total_expenses"`
		TotalSavings  int64         `json:"total_savings"`
		Balance       int64         `json:"balance"`
		ByCategory    []CategoryRow `json:"by_category"`
		ByGroup       []GroupRow    `json:"by_group"`
		Daily         []DailyRow    `json:"daily_data"`
		TopExpenses   []CategoryRow `json:"top_expenses"`
		ByUser        []UserRow     `json:"by_user"`
		Previous      *Comparison   `json:"comparison_previous_period,omitempty"`
	}
)

// class is the three-way classification every breakdown is built on:
// INCOME-typed categories are income, SAVINGS-group categories are savings,
// every other EXPENSE-typed category is expense.
type class int

const (
	classIncome class = iota
	classSavings
	classExpense
)

func classify(t TransactionView) class {
	switch {
	case t.CategoryType == TypeIncome:
		return classIncome
	case t.CategoryGroup == GroupSavings:
		return classSavings
	default:
		return classExpense
	}
}

// Aggregate computes the full analytics report for a transaction set.
// It is a pure function: it never fails, holds no state, and an empty
// input yields zero totals and empty breakdowns.
func Aggregate(txns []TransactionView, window Window) Report {
	var r Report

	for _, t := range txns {
		switch classify(t) {
		case classIncome:
			r.TotalIncome += t.Amount
		case classSavings:
			r.TotalSavings += t.Amount
		default:
			r.TotalExpenses += t.Amount
		}
	}
	// Savings are allocated funds, not spent funds.
	r.Balance = r.TotalIncome - r.TotalExpenses

	r.ByCategory = aggregateByCategory(txns)
	r.ByGroup = aggregateByGroup(txns)
	r.Daily = aggregateDaily(txns)
	r.TopExpenses = topExpenses(r.ByCategory)
	r.ByUser = aggregateByUser(txns)
	r.Previous = comparePrevious(txns, window)

	return r
}

type categoryAccum struct {
	name    string
	icon    string
	income  int64
	expense int64
	savings int64
}

func aggregateByCategory(txns []TransactionView) []CategoryRow {
	accums := make(map[string]*categoryAccum)
	var order []string // first-seen order keeps the sort deterministic

	for _, t := range txns {
		a, ok := accums[t.CategoryName]
		if !ok {
			a = &categoryAccum{name: t.CategoryName, icon: t.CategoryIcon}
			accums[t.CategoryName] = a
			order = append(order, t.CategoryName)
		}
		switch classify(t) {
		case classIncome:
			a.income += t.Amount
		case classSavings:
			a.savings += t.Amount
		default:
			a.expense += t.Amount
		}
	}

	rows := make([]CategoryRow, 0, len(order))
	for _, name := range order {
		a := accums[name]
		rows = append(rows, CategoryRow{
			Name:   a.name,
			Icon:   a.icon,
			Amount: firstNonZero(a.expense, a.savings, a.income),
			Kind:   categoryKind(a),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Amount > rows[j].Amount })
	if len(rows) > byCategoryLimit {
		rows = rows[:byCategoryLimit]
	}
	return rows
}

// firstNonZero picks the row amount with expense > savings > income
// precedence. Categories are single-classed in well-formed data; the
// precedence only matters for ambiguous ones.
func firstNonZero(expense, savings, income int64) int64 {
	if expense != 0 {
		return expense
	}
	if savings != 0 {
		return savings
	}
	return income
}

// categoryKind tags the row: income wins, then savings, expense is the
// default. Intentionally not symmetric with firstNonZero.
func categoryKind(a *categoryAccum) string {
	if a.income > 0 {
		return "income"
	}
	if a.savings > 0 {
		return "savings"
	}
	return "expense"
}

func aggregateByGroup(txns []TransactionView) []GroupRow {
	type groupAccum struct {
		income  int64
		expense int64
	}
	accums := make(map[string]*groupAccum)
	var order []string

	for _, t := range txns {
		key := string(t.CategoryGroup)
		a, ok := accums[key]
		if !ok {
			a = &groupAccum{}
			accums[key] = a
			order = append(order, key)
		}
		// Savings are not split out here: the SAVINGS group is its own
		// bucket already, so its amounts fold into that bucket's expense.
		if t.CategoryType == TypeIncome {
			a.income += t.Amount
		} else {
			a.expense += t.Amount
		}
	}

	var rows []GroupRow
	for _, key := range order {
		a := accums[key]
		if a.income > 0 {
			rows = append(rows, GroupRow{Group: key, Amount: a.income, Kind: "income"})
		}
		if a.expense > 0 {
			rows = append(rows, GroupRow{Group: key, Amount: a.expense, Kind: "expense"})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Amount > rows[j].Amount })
	return rows
}

func aggregateDaily(txns []TransactionView) []DailyRow {
	accums := make(map[string]*DailyRow)
	var order []string

	for _, t := range txns {
		day := t.Date.Format("2006-01-02")
		a, ok := accums[day]
		if !ok {
			a = &DailyRow{Date: day}
			accums[day] = a
			order = append(order, day)
		}
		switch classify(t) {
		case classIncome:
			a.Income += t.Amount
		case classExpense:
			a.Expense += t.Amount
		case classSavings:
			// excluded from the daily series entirely
		}
	}

	rows := make([]DailyRow, 0, len(order))
	for _, day := range order {
		rows = append(rows, *accums[day])
	}
	// ISO date strings sort chronologically.
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	return rows
}

// topExpenses keeps the expense and savings category rows, already in
// amount-descending order, truncated to the top 5.
func topExpenses(byCategory []CategoryRow) []CategoryRow {
	var rows []CategoryRow
	for _, row := range byCategory {
		if row.Kind == "expense" || row.Kind == "savings" {
			rows = append(rows, row)
		}
		if len(rows) == topExpensesLimit {
			break
		}
	}
	return rows
}

func aggregateByUser(txns []TransactionView) []UserRow {
	accums := make(map[int64]*UserRow)
	var order []int64

	for _, t := range txns {
		a, ok := accums[t.UserID]
		if !ok {
			name := t.UserName
			if name == "" {
				name = unknownUserName
			}
			a = &UserRow{UserID: t.UserID, Name: name}
			accums[t.UserID] = a
			order = append(order, t.UserID)
		}
		switch classify(t) {
		case classIncome:
			a.Income += t.Amount
		case classSavings:
			a.Savings += t.Amount
		default:
			a.Expense += t.Amount
		}
	}

	rows := make([]UserRow, 0, len(order))
	for _, id := range order {
		rows = append(rows, *accums[id])
	}
	return rows
}

// comparePrevious totals income and expenses over the input restricted to
// the window of equal length immediately before the reporting window,
// [start-len, start). A non-positive window length yields nil.
func comparePrevious(txns []TransactionView, window Window) *Comparison {
	length := window.End.Sub(window.Start)
	if length <= 0 {
		return nil
	}
	prevStart := window.Start.Add(-length)

	var c Comparison
	for _, t := range txns {
		if t.Date.Before(prevStart) || !t.Date.Before(window.Start) {
			continue
		}
		switch classify(t) {
		case classIncome:
			c.TotalIncome += t.Amount
		case classExpense:
			c.TotalExpenses += t.Amount
		case classSavings:
			// comparison reports income/expense only
		}
	}
	c.Balance = c.TotalIncome - c.TotalExpenses
	return &c
}

// PeriodTotals computes the comparison figures for an arbitrary transaction
// set. The analytics service uses it to fill the previous-period comparison
// from a dedicated storage query over the mirrored window.
func PeriodTotals(txns []TransactionView) Comparison {
	var c Comparison
	for _, t := range txns {
		switch classify(t) {
		case classIncome:
			c.TotalIncome += t.Amount
		case classExpense:
			c.TotalExpenses += t.Amount
		case classSavings:
		}
	}
	c.Balance = c.TotalIncome - c.TotalExpenses
	return c
}
