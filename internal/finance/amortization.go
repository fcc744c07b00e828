// Package finance implements the loan amortization engine and the due-date
// arithmetic used by loans and monthly recurring expenses.
package finance

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// ScheduleEntry is one period of an amortization schedule. Schedules are
// derived on demand and never persisted.
type ScheduleEntry struct {
	Installment int        `json:"installment"`
	Date        time.Time  `json:"date"`
	Principal   core.Money `json:"principal"`
	Interest    core.Money `json:"interest"`
	Balance     core.Money `json:"balance"`
}

// Schedule is the full equal-installment breakdown for a loan.
type Schedule struct {
	EMI     core.Money      `json:"emi"`
	Months  int             `json:"months"`
	Entries []ScheduleEntry `json:"schedule"`
}

// TermMonths derives a whole-month term from a loan's date range:
// ceil(days / 30) with a floor of one month.
func TermMonths(start, end time.Time) int {
	days := end.Sub(start).Hours() / 24
	months := int(math.Ceil(days / 30))
	if months < 1 {
		return 1
	}
	return months
}

// EMI computes the equal monthly installment for the given principal, annual
// interest rate in percent, and term in months. A zero rate falls back to a
// straight-line split to avoid dividing by zero in the annuity formula.
func EMI(principal core.Money, annualRatePct float64, months int) core.Money {
	if months < 1 {
		months = 1
	}
	r := annualRatePct / 12 / 100
	if r == 0 {
		return core.NewMoney(principal.Decimal().Div(decimal.NewFromInt(int64(months))).Round(2))
	}
	// EMI = P*r*(1+r)^n / ((1+r)^n - 1). float64 for the power term, decimal
	// for the monetary result.
	p, _ := principal.Decimal().Float64()
	factor := math.Pow(1+r, float64(months))
	emi := p * r * factor / (factor - 1)
	return core.MoneyFromFloat(emi)
}

// BuildSchedule generates the period-by-period breakdown. Installment i is
// dated i calendar months after start (clamped at month end), its interest is
// the monthly rate applied to the running balance, and its principal portion
// is capped at the remaining balance so rounding can never drive the balance
// negative. The final installment pays off the balance exactly.
func BuildSchedule(principal core.Money, annualRatePct float64, months int, start time.Time) Schedule {
	if months < 1 {
		months = 1
	}
	r := decimal.NewFromFloat(annualRatePct / 12 / 100)
	emi := EMI(principal, annualRatePct, months)

	entries := make([]ScheduleEntry, 0, months)
	balance := principal.Decimal().Round(2)

	for i := 1; i <= months; i++ {
		interest := balance.Mul(r).Round(2)
		principalPart := emi.Decimal().Sub(interest)
		if balance.LessThan(principalPart) || i == months {
			principalPart = balance
		}
		balance = balance.Sub(principalPart)
		if balance.IsNegative() {
			balance = decimal.Zero
		}
		entries = append(entries, ScheduleEntry{
			Installment: i,
			Date:        AddMonthsClamped(start, i),
			Principal:   core.NewMoney(principalPart),
			Interest:    core.NewMoney(interest),
			Balance:     core.NewMoney(balance),
		})
	}

	return Schedule{EMI: emi, Months: months, Entries: entries}
}
