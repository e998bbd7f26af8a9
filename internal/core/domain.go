package core

import (
	"errors"
	"strings"
	"time"
)

const (
	GroupBase    CategoryGroup = "BASE"
	GroupComfort CategoryGroup = "COMFORT"
	GroupSavings CategoryGroup = "SAVINGS"
	GroupIncome  CategoryGroup = "INCOME"
)

const (
	TypeExpense TransactionType = "EXPENSE"
	TypeIncome  TransactionType = "INCOME"
)

type (
	CategoryGroup   string
	TransactionType string

	// Category is an immutable reference entity: transactions point at it,
	// never own it.
	Category struct {
		ID    int64
		Name  string
		Icon  string
		Group CategoryGroup
		Type  TransactionType
	}

	User struct {
		ID         int64
		TelegramID int64
		FirstName  string
		IsActive   bool
	}

	Transaction struct {
		ID         string // uuid
		UserID     int64
		CategoryID int64
		Amount     int64 // smallest currency unit
		Date       time.Time
		Comment    string
	}

	// MonthlyBudget is a spending limit for one category within one
	// financial period. Period holds the period-start date and acts as
	// the period key; (CategoryID, Period) is unique.
	MonthlyBudget struct {
		ID          int64
		CategoryID  int64
		Period      time.Time
		LimitAmount int64
	}

	// TransactionView is a transaction joined with its resolved category
	// classification and owner, the shape the aggregator consumes.
	TransactionView struct {
		ID            string
		Amount        int64
		Date          time.Time
		Comment       string
		CategoryName  string
		CategoryIcon  string
		CategoryGroup CategoryGroup
		CategoryType  TransactionType
		UserID        int64
		UserName      string
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidGroup    = errors.New("invalid category group")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrCommentTooLong  = errors.New("comment too long (max 255 characters)")
)

func (g CategoryGroup) Valid() bool {
	switch g {
	case GroupBase, GroupComfort, GroupSavings, GroupIncome:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool {
	return t == TypeExpense || t == TypeIncome
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("empty category name")
	}
	if !c.Group.Valid() {
		return ErrInvalidGroup
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	// Income categories always belong to the INCOME group; savings are an
	// expense-flavored group, not a third transaction type.
	if c.Type == TypeIncome && c.Group != GroupIncome {
		return ErrInvalidGroup
	}
	if c.Group == GroupSavings && c.Type != TypeExpense {
		return ErrInvalidType
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.Amount < 0 {
		return ErrInvalidAmount
	}
	if t.CategoryID <= 0 {
		return ErrInvalidCategory
	}
	if len(t.Comment) > 255 {
		return ErrCommentTooLong
	}
	return nil
}

func (b MonthlyBudget) Validate() error {
	if b.CategoryID <= 0 {
		return ErrInvalidCategory
	}
	if b.LimitAmount < 0 {
		return ErrInvalidAmount
	}
	return nil
}
