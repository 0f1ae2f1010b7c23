package core

// ScheduleEntry is one computed slot of an installment schedule before it
// is materialized into a persisted Installment.
type ScheduleEntry struct {
	Number  int
	Value   Money
	DueDate Date
}

// CalculateInstallments turns a transaction's total value, installment
// count and start date into the full ordered schedule. The result is
// 1-indexed and its length always equals count.
//
// Equal-split policy: the base value is the total divided by count,
// truncated to the cent. Every installment gets the base except the last,
// which also absorbs the leftover cents. Concentrating the rounding error
// in the final installment keeps the schedule sum exactly equal to the
// total.
//
// When customValues has exactly count entries they are used verbatim per
// index; callers are responsible for checking the sum (see
// ValidateCustomInstallments). When customDates has exactly count entries,
// each well-formed entry overrides the due date at its index; everything
// else defaults to start plus (number-1) calendar months.
//
// The function is pure: no I/O, fully deterministic given its inputs.
func CalculateInstallments(total Money, count int, start Date, customValues []Money, customDates []Date) []ScheduleEntry {
	if count < 1 {
		return nil
	}

	entries := make([]ScheduleEntry, count)

	useCustomValues := len(customValues) == count
	useCustomDates := len(customDates) == count

	base := total.Cents / int64(count)
	remainder := total.Cents - base*int64(count)

	for i := 0; i < count; i++ {
		value := Money{Cents: base}
		if i == count-1 {
			value.Cents += remainder
		}
		if useCustomValues {
			value = customValues[i]
		}

		due := start.AddMonths(i)
		if useCustomDates && customDates[i].Validate() == nil {
			due = customDates[i]
		}

		entries[i] = ScheduleEntry{
			Number:  i + 1,
			Value:   value,
			DueDate: due,
		}
	}

	return entries
}

// DistributeRemainder splits a total into count values, optionally pinning
// the first installment (a down payment) and equal-splitting the rest with
// the same truncate-then-last-absorbs rule as CalculateInstallments.
//
// With a nil first value, or count 1, the split is plain equal
// distribution.
func DistributeRemainder(total Money, count int, first *Money) []Money {
	if count < 1 {
		return nil
	}

	values := make([]Money, 0, count)

	if first != nil && count > 1 {
		values = append(values, *first)
		remaining := total.Sub(*first)
		remainingCount := int64(count - 1)
		base := remaining.Cents / remainingCount
		remainder := remaining.Cents - base*remainingCount
		for i := int64(0); i < remainingCount; i++ {
			v := Money{Cents: base}
			if i == remainingCount-1 {
				v.Cents += remainder
			}
			values = append(values, v)
		}
		return values
	}

	base := total.Cents / int64(count)
	remainder := total.Cents - base*int64(count)
	for i := 0; i < count; i++ {
		v := Money{Cents: base}
		if i == count-1 {
			v.Cents += remainder
		}
		values = append(values, v)
	}
	return values
}
