package core

import "strings"

// FieldResult is the outcome of a single field validation. Invalid input
// is an expected, representable result, not a Go error: callers decide
// whether to block submission.
type FieldResult struct {
	Valid   bool
	Message string
}

func ok() FieldResult                { return FieldResult{Valid: true} }
func invalid(msg string) FieldResult { return FieldResult{Valid: false, Message: msg} }

// ValidateName requires a trimmed length between 3 and 100 characters.
func ValidateName(name string) FieldResult {
	trimmed := strings.TrimSpace(name)
	if len([]rune(trimmed)) < 3 {
		return invalid("name must have at least 3 characters")
	}
	if len([]rune(name)) > 100 {
		return invalid("name must have at most 100 characters")
	}
	return ok()
}

// ValidateDescription allows an empty description and caps present ones at
// 500 characters.
func ValidateDescription(description string) FieldResult {
	if len([]rune(description)) > 500 {
		return invalid("description cannot exceed 500 characters")
	}
	return ok()
}

// ValidateValue bounds a transaction value to [0.01, 999999.99].
func ValidateValue(value Money) FieldResult {
	if value.Cents < MinTransactionValue {
		return invalid("value must be at least 0.01")
	}
	if value.Cents > MaxTransactionValue {
		return invalid("value must be at most 999999.99")
	}
	return ok()
}

// ValidateInstallmentCount bounds the count to [1, 360].
func ValidateInstallmentCount(count int) FieldResult {
	if count < 1 {
		return invalid("installment count must be at least 1")
	}
	if count > 360 {
		return invalid("installment count must be at most 360")
	}
	return ok()
}

// ValidateDate requires a usable calendar date; with allowPast false the
// date must also be today or later.
func ValidateDate(date Date, allowPast bool) FieldResult {
	if date.Validate() != nil {
		return invalid("invalid date")
	}
	if !allowPast && date.Before(Today()) {
		return invalid("date cannot be in the past")
	}
	return ok()
}

// CustomSumResult carries the outcome of a custom-installment sum check,
// including the computed sum and signed difference so callers can present
// "short by X" / "over by X" feedback.
type CustomSumResult struct {
	Valid      bool  `json:"valid"`
	Sum        Money `json:"sum"`
	Difference Money `json:"difference"`
}

// ValidateCustomInstallments checks that candidate per-installment values
// add up to the expected total. In cents arithmetic a within-one-cent
// tolerance means the difference must be exactly zero.
func ValidateCustomInstallments(values []Money, total Money) CustomSumResult {
	var sum Money
	for _, v := range values {
		sum = sum.Add(v)
	}
	diff := sum.Sub(total)
	return CustomSumResult{
		Valid:      diff.IsZero(),
		Sum:        sum,
		Difference: diff,
	}
}

// FieldError is a structured, recoverable validation failure surfaced to
// the caller as an inline field message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateDraft runs every field guard over a transaction draft and
// collects the failures. An empty slice means the draft is acceptable for
// scheduling and persistence.
func ValidateDraft(draft TransactionDraft) []FieldError {
	var errs []FieldError

	if r := ValidateName(draft.Name); !r.Valid {
		errs = append(errs, FieldError{Field: "name", Message: r.Message})
	}
	if !draft.Type.IsValid() {
		errs = append(errs, FieldError{Field: "type", Message: "type must be INCOME or EXPENSE"})
	}
	if r := ValidateDescription(draft.Description); !r.Valid {
		errs = append(errs, FieldError{Field: "description", Message: r.Message})
	}
	if r := ValidateValue(draft.TotalValue); !r.Valid {
		errs = append(errs, FieldError{Field: "totalValue", Message: r.Message})
	}
	if r := ValidateInstallmentCount(draft.InstallmentCount); !r.Valid {
		errs = append(errs, FieldError{Field: "installmentCount", Message: r.Message})
	}
	if r := ValidateDate(draft.StartDate, true); !r.Valid {
		errs = append(errs, FieldError{Field: "startDate", Message: r.Message})
	}
	if len(draft.CustomValues) > 0 {
		if len(draft.CustomValues) != draft.InstallmentCount {
			errs = append(errs, FieldError{Field: "customInstallments", Message: "custom values must match the installment count"})
		} else if r := ValidateCustomInstallments(draft.CustomValues, draft.TotalValue); !r.Valid {
			errs = append(errs, FieldError{
				Field:   "customInstallments",
				Message: "custom values sum to " + r.Sum.String() + ", expected " + draft.TotalValue.String(),
			})
		}
	}

	return errs
}
