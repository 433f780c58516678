package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// OverallCategory labels alerts for budgets that cover all spending.
const OverallCategory = "Overall"

type (
	TransactionType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID              int64
		Email           string
		Name            string
		ProfilePhotoURL string
		CreatedAt       time.Time
	}

	Category struct {
		ID      int64
		OwnerID int64
		Name    string
		Type    TransactionType
	}

	Transaction struct {
		ID          int64
		OwnerID     int64
		CategoryID  *int64
		Type        TransactionType
		Amount      Money
		Date        Date
		Description string
		CreatedAt   time.Time
	}

	Budget struct {
		ID         int64
		OwnerID    int64
		CategoryID *int64 // nil means the budget covers all spending
		Month      int    // 1-12
		Year       int
		Limit      Money
		AlertSent  bool
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidYear        = errors.New("invalid year")
	ErrInvalidLimit       = errors.New("invalid limit amount")
	ErrInvalidDescription = errors.New("invalid description")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrNotFound           = errors.New("not found")
	ErrNoOwner            = errors.New("owner not found")
)

// ValidationFailed reports whether err belongs to the family of input
// validation errors, as opposed to missing rows or infrastructure faults.
func ValidationFailed(err error) bool {
	for _, v := range []error{
		ErrInvalidAmount, ErrInvalidType, ErrInvalidDate,
		ErrInvalidMonth, ErrInvalidYear, ErrInvalidLimit,
		ErrInvalidDescription, ErrUnknownCategory,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MonthWindow returns the half-open [start, end) window covering the given
// calendar month. December rolls the upper bound into January of the next year.
func MonthWindow(year, month int) (start, end Date) {
	start = NewDate(year, month, 1)
	end = Date{Time: start.AddDate(0, 1, 0)}
	return start, end
}

// In reports whether the date falls inside the half-open [start, end) window.
func (d Date) In(start, end Date) bool {
	return !d.Before(start.Time) && d.Before(end.Time)
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 255 {
		return fmt.Errorf("%w: longer than 255 characters", ErrInvalidDescription)
	}
	return nil
}

// Scope returns the (month, year) pair the transaction counts toward.
func (t Transaction) Scope() (month, year int) {
	return t.Date.Month(), t.Date.Year()
}

func (b Budget) Validate() error {
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 1 {
		return ErrInvalidYear
	}
	if b.Limit.Cents < 0 {
		return ErrInvalidLimit
	}
	return nil
}

// CategoryLabel returns the display name used in alerts for the budget's
// category, or OverallCategory when the budget covers all spending.
func (b Budget) CategoryLabel(name string) string {
	if b.CategoryID == nil || strings.TrimSpace(name) == "" {
		return OverallCategory
	}
	return name
}
