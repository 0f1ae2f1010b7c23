package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

// IsValid reports whether the type is one of the two known kinds.
func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidType   = errors.New("invalid transaction type")
)

// Date is a calendar date with no time-of-day semantics. It is always
// normalized to midnight UTC so equality and comparisons behave as plain
// day comparisons.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time.Time to its calendar date in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

// Today returns the current calendar date.
func Today() Date {
	return DateOf(time.Now())
}

// AddMonths adds n calendar months using native month arithmetic: the
// day-of-month is preserved where valid and otherwise normalized forward
// by the overflow (Jan 31 + 1 month = Mar 2/3). This is "add N calendar
// months", not "add N*30 days".
func (d Date) AddMonths(n int) Date {
	return Date{Time: d.Time.AddDate(0, n, 0)}
}

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

// Before and After compare calendar dates.
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool  { return d.Time.After(other.Time) }

// Validate checks that the date is usable.
func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

const dateLayout = "2006-01-02"

// String renders the ISO-8601 calendar date.
func (d Date) String() string {
	return d.Time.Format(dateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts "YYYY-MM-DD" or a full RFC 3339 timestamp, keeping
// only the calendar date.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		*d = DateOf(t)
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return ErrInvalidDate
	}
	*d = DateOf(t)
	return nil
}

// Transaction is a recorded income or expense, optionally split across
// multiple dated installments.
type Transaction struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Type             TransactionType `json:"type"`
	Description      string          `json:"description,omitempty"`
	TotalValue       Money           `json:"totalValue"`
	InstallmentCount int             `json:"installmentCount"`
	StartDate        Date            `json:"startDate"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	CreatedBy        string          `json:"createdBy"`
	CreatedByName    string          `json:"createdByName"`
}

// Installment is one dated, valued slice of a transaction's total,
// independently markable as paid. Parent fields are denormalized so rows
// render without a transaction lookup; on transaction edit they are
// re-stamped together with the fresh schedule.
type Installment struct {
	ID                     string          `json:"id"`
	TransactionID          string          `json:"transactionId"`
	TransactionName        string          `json:"transactionName"`
	TransactionType        TransactionType `json:"transactionType"`
	TransactionDescription string          `json:"transactionDescription,omitempty"`
	InstallmentNumber      int             `json:"installmentNumber"`
	TotalInstallments      int             `json:"totalInstallments"`
	Value                  Money           `json:"value"`
	DueDate                Date            `json:"dueDate"`
	Paid                   bool            `json:"paid"`
	PaidDate               Date            `json:"paidDate,omitempty"`
	CreatedAt              time.Time       `json:"createdAt"`
	UpdatedAt              time.Time       `json:"updatedAt"`
	CreatedBy              string          `json:"createdBy"`
	CreatedByName          string          `json:"createdByName"`
	ValidatedBy            string          `json:"validatedBy,omitempty"`
	ValidatedByName        string          `json:"validatedByName,omitempty"`
}

// LumpSumLabel is shown for single-installment transactions instead of an
// "X/Y" progression.
const LumpSumLabel = "À vista"

// Label renders the installment progression for display: "3/12", or the
// lump-sum label when the transaction has a single installment.
func (i Installment) Label() string {
	if i.TotalInstallments <= 1 {
		return LumpSumLabel
	}
	return fmt.Sprintf("%d/%d", i.InstallmentNumber, i.TotalInstallments)
}

// TransactionDraft is the validated input for creating or editing a
// transaction. CustomValues and CustomDates, when present, override the
// equal-split schedule per index.
type TransactionDraft struct {
	Name             string          `json:"name"`
	Type             TransactionType `json:"type"`
	Description      string          `json:"description,omitempty"`
	TotalValue       Money           `json:"totalValue"`
	InstallmentCount int             `json:"installmentCount"`
	StartDate        Date            `json:"startDate"`
	CustomValues     []Money         `json:"customInstallments,omitempty"`
	CustomDates      []Date          `json:"customDates,omitempty"`
}
