package finance

import (
	"testing"
	"time"

	"fintrack/internal/core"
)

func money(t *testing.T, s string) core.Money {
	t.Helper()
	m, err := core.ParseMoney(s)
	if err != nil {
		t.Fatalf("parse money %q: %v", s, err)
	}
	return m
}

func TestTermMonths(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{name: "one year", end: start.AddDate(0, 0, 360), want: 12},
		{name: "partial month rounds up", end: start.AddDate(0, 0, 31), want: 2},
		{name: "same day floors to one", end: start, want: 1},
		{name: "end before start floors to one", end: start.AddDate(0, 0, -5), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TermMonths(start, tt.end); got != tt.want {
				t.Errorf("TermMonths() = %d, want %d", got, tt.want)
			}
		})
	}
}

// Zero-rate loans split the principal evenly: P=1200, n=12 gives twelve
// installments of exactly 100 with no interest and a closing balance of zero.
func TestBuildSchedule_ZeroRate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := BuildSchedule(money(t, "1200"), 0, 12, start)

	if !s.EMI.Equal(money(t, "100")) {
		t.Errorf("EMI = %s, want 100.00", s.EMI)
	}
	if s.Months != 12 || len(s.Entries) != 12 {
		t.Fatalf("months = %d, entries = %d, want 12/12", s.Months, len(s.Entries))
	}
	for _, e := range s.Entries {
		if !e.Principal.Equal(money(t, "100")) {
			t.Errorf("installment %d principal = %s, want 100.00", e.Installment, e.Principal)
		}
		if !e.Interest.IsZero() {
			t.Errorf("installment %d interest = %s, want 0", e.Installment, e.Interest)
		}
	}
	if !s.Entries[11].Balance.IsZero() {
		t.Errorf("final balance = %s, want 0", s.Entries[11].Balance)
	}
}

func TestBuildSchedule_Invariants(t *testing.T) {
	start := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		principal string
		rate      float64
		months    int
	}{
		{name: "typical loan", principal: "2277.07", rate: 7.5, months: 24},
		{name: "high rate", principal: "10000", rate: 18, months: 36},
		{name: "single installment", principal: "500", rate: 5, months: 1},
		{name: "uneven zero rate", principal: "1000", rate: 0, months: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal := money(t, tt.principal)
			s := BuildSchedule(principal, tt.rate, tt.months, start)

			if len(s.Entries) != tt.months {
				t.Fatalf("entries = %d, want %d", len(s.Entries), tt.months)
			}

			// Principal portions sum back to the original principal.
			sum := core.MoneyFromCents(0)
			for _, e := range s.Entries {
				sum = sum.Add(e.Principal)
			}
			if !sum.Equal(principal) {
				t.Errorf("sum of principal = %s, want %s", sum, principal)
			}

			// Balance chain: each entry's balance is the previous balance
			// minus its principal portion, ending at exactly zero.
			prev := principal
			for _, e := range s.Entries {
				want := prev.Sub(e.Principal)
				if !e.Balance.Equal(want) {
					t.Errorf("installment %d balance = %s, want %s", e.Installment, e.Balance, want)
				}
				if e.Balance.IsNegative() {
					t.Errorf("installment %d balance went negative: %s", e.Installment, e.Balance)
				}
				prev = e.Balance
			}
			if !s.Entries[len(s.Entries)-1].Balance.IsZero() {
				t.Errorf("final balance = %s, want exactly 0", s.Entries[len(s.Entries)-1].Balance)
			}
		})
	}
}

// The calculator is a pure function: identical inputs yield identical
// schedules.
func TestBuildSchedule_Deterministic(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	a := BuildSchedule(money(t, "5000"), 6.9, 18, start)
	b := BuildSchedule(money(t, "5000"), 6.9, 18, start)

	if !a.EMI.Equal(b.EMI) || len(a.Entries) != len(b.Entries) {
		t.Fatal("schedules differ on identical inputs")
	}
	for i := range a.Entries {
		if !a.Entries[i].Principal.Equal(b.Entries[i].Principal) ||
			!a.Entries[i].Interest.Equal(b.Entries[i].Interest) ||
			!a.Entries[i].Balance.Equal(b.Entries[i].Balance) ||
			!a.Entries[i].Date.Equal(b.Entries[i].Date) {
			t.Fatalf("entry %d differs between runs", i)
		}
	}
}

func TestBuildSchedule_InstallmentDates(t *testing.T) {
	// Jan 31 start: installment dates clamp at month end instead of rolling
	// into the next month.
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	s := BuildSchedule(money(t, "300"), 0, 3, start)

	want := []time.Time{
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), // leap February
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
	}
	for i, e := range s.Entries {
		if !e.Date.Equal(want[i]) {
			t.Errorf("installment %d date = %s, want %s", e.Installment, e.Date.Format("2006-01-02"), want[i].Format("2006-01-02"))
		}
	}
}
